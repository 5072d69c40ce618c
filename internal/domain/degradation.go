package domain

import "math"

// Climate zones derived from mean annual precipitation.
const (
	ZoneArid     = "arid"
	ZoneSemiArid = "semi_arid"
	ZoneSubHumid = "sub_humid"
	ZoneHumid    = "humid"
)

// Regenerative practices.
const (
	PracticeRotationalGrazing    = "rotational_grazing"
	PracticeCoverCropping        = "cover_cropping"
	PracticeNoTillOrganic        = "no_till_organic"
	PracticeAgroforestry         = "agroforestry"
	PracticeGrasslandRestoration = "grassland_restoration"
)

const (
	// recoverableFraction caps restoration at 80% of the deficit.
	recoverableFraction = 0.8
	// carbonToCO2 is the CO2/C molecular weight ratio (44/12).
	carbonToCO2 = 3.67
	// carbonPriceUSD is the voluntary market price per t CO2e.
	carbonPriceUSD = 15
	// defaultReferenceSOC applies when a texture row lacks the zone.
	defaultReferenceSOC = 45
	// defaultAccumulationRate applies to unknown practices (t C/ha/yr).
	defaultAccumulationRate = 0.5
	// fallbackRestoreYears is reported when the accumulation rate is zero.
	fallbackRestoreYears = 20
	// maxAccumulationRate is the best practice rate; feasibility is scored against it.
	maxAccumulationRate = 0.8
)

// referenceSOC holds literature undegraded SOC stocks (t C/ha, 0-30 cm) by texture and climate zone.
var referenceSOC = map[string]map[string]float64{
	TextureSand:          {ZoneArid: 12, ZoneSemiArid: 20, ZoneSubHumid: 35, ZoneHumid: 45},
	TextureLoamySand:     {ZoneArid: 15, ZoneSemiArid: 25, ZoneSubHumid: 40, ZoneHumid: 50},
	TextureSandyLoam:     {ZoneArid: 20, ZoneSemiArid: 35, ZoneSubHumid: 55, ZoneHumid: 70},
	TextureLoam:          {ZoneArid: 25, ZoneSemiArid: 45, ZoneSubHumid: 65, ZoneHumid: 85},
	TextureSiltLoam:      {ZoneArid: 25, ZoneSemiArid: 45, ZoneSubHumid: 65, ZoneHumid: 85},
	TextureSilt:          {ZoneArid: 22, ZoneSemiArid: 40, ZoneSubHumid: 60, ZoneHumid: 78},
	TextureSandyClayLoam: {ZoneArid: 28, ZoneSemiArid: 42, ZoneSubHumid: 60, ZoneHumid: 78},
	TextureClayLoam:      {ZoneArid: 30, ZoneSemiArid: 50, ZoneSubHumid: 75, ZoneHumid: 95},
	TextureSiltyClayLoam: {ZoneArid: 30, ZoneSemiArid: 50, ZoneSubHumid: 75, ZoneHumid: 95},
	TextureSandyClay:     {ZoneArid: 32, ZoneSemiArid: 48, ZoneSubHumid: 70, ZoneHumid: 88},
	TextureSiltyClay:     {ZoneArid: 33, ZoneSemiArid: 52, ZoneSubHumid: 78, ZoneHumid: 98},
	TextureClay:          {ZoneArid: 35, ZoneSemiArid: 55, ZoneSubHumid: 80, ZoneHumid: 100},
}

// accumulationRates are SOC gains under regenerative practice (t C/ha/yr).
var accumulationRates = map[string]float64{
	PracticeRotationalGrazing:    0.5,
	PracticeCoverCropping:        0.4,
	PracticeNoTillOrganic:        0.3,
	PracticeAgroforestry:         0.8,
	PracticeGrasslandRestoration: 0.6,
}

// commodityPractices maps a supply-chain commodity to its likely practice.
var commodityPractices = map[string]string{
	CommodityCashmere: PracticeRotationalGrazing,
	CommodityWool:     PracticeRotationalGrazing,
	CommodityCotton:   PracticeCoverCropping,
	CommodityLeather:  PracticeGrasslandRestoration,
	CommodityMulti:    PracticeGrasslandRestoration,
}

// DegradationAssessment is the restoration outlook for one project.
// PriorityRank stays 0 until a portfolio ranking assigns it.
type DegradationAssessment struct {
	ProjectID               string  `json:"project_id"`
	CurrentSOC              float64 `json:"current_soc_t_per_ha"`
	SoilTexture             string  `json:"soil_texture"`
	ClimateZone             string  `json:"climate_zone"`
	Practice                string  `json:"practice"`
	ReferenceSOC            float64 `json:"reference_soc_t_per_ha"`
	SOCDeficit              float64 `json:"soc_deficit_t_per_ha"`
	SOCDeficitPercent       float64 `json:"soc_deficit_percent"`
	PotentialSOCGain        float64 `json:"potential_soc_gain_t_per_ha"`
	PotentialCO2e           float64 `json:"potential_co2e_t_per_ha"`
	TimeToRestoreYears      int     `json:"time_to_restore_years"`
	CarbonValueUSDPerHa     float64 `json:"carbon_value_usd_per_ha"`
	ProductivityGainPercent float64 `json:"productivity_gain_percent"`
	PriorityScore           float64 `json:"priority_score"`
	PriorityRank            int     `json:"priority_rank"`
}

// ClassifyClimateZone buckets mean annual precipitation (mm) into a zone.
func ClassifyClimateZone(annualPrecipMM float64) string {
	switch {
	case annualPrecipMM < 250:
		return ZoneArid
	case annualPrecipMM < 500:
		return ZoneSemiArid
	case annualPrecipMM < 1000:
		return ZoneSubHumid
	default:
		return ZoneHumid
	}
}

// ReferenceSOC looks up the undegraded SOC stock for a texture and zone.
// Unknown textures use the Loam row.
func ReferenceSOC(texture, zone string) float64 {
	row, ok := referenceSOC[texture]
	if !ok {
		row = referenceSOC[TextureLoam]
	}
	if v, ok := row[zone]; ok {
		return v
	}
	return defaultReferenceSOC
}

// PracticeFor returns the regenerative practice associated with a commodity.
func PracticeFor(commodity string) string {
	if p, ok := commodityPractices[commodity]; ok {
		return p
	}
	return PracticeGrasslandRestoration
}

// AccumulationRate returns the annual SOC accumulation rate of a practice.
func AccumulationRate(practice string) float64 {
	if r, ok := accumulationRates[practice]; ok {
		return r
	}
	return defaultAccumulationRate
}

// SOCDeficit is the shortfall of current SOC against the reference, never negative.
func SOCDeficit(reference, current float64) float64 {
	return math.Max(0, reference-current)
}

// ComputeDegradation assesses the SOC deficit, restoration potential,
// economic value and priority score of one project. Hectares must be finite
// and non-negative; validation is the caller's job.
func ComputeDegradation(projectID string, currentSOC float64, texture string, annualPrecipMM float64, commodity string, hectares float64) DegradationAssessment {
	zone := ClassifyClimateZone(annualPrecipMM)
	reference := ReferenceSOC(texture, zone)

	deficit := SOCDeficit(reference, currentSOC)
	var deficitPercent float64
	if reference > 0 {
		deficitPercent = math.Round(deficit / reference * 100)
	}

	practice := PracticeFor(commodity)
	rate := AccumulationRate(practice)

	gain := deficit * recoverableFraction
	co2e := Round(gain*carbonToCO2, 1)

	restoreYears := fallbackRestoreYears
	if rate > 0 {
		restoreYears = int(math.Ceil(gain / rate))
	}

	return DegradationAssessment{
		ProjectID:               projectID,
		CurrentSOC:              Round(currentSOC, 1),
		SoilTexture:             texture,
		ClimateZone:             zone,
		Practice:                practice,
		ReferenceSOC:            reference,
		SOCDeficit:              Round(deficit, 1),
		SOCDeficitPercent:       deficitPercent,
		PotentialSOCGain:        Round(gain, 1),
		PotentialCO2e:           co2e,
		TimeToRestoreYears:      restoreYears,
		CarbonValueUSDPerHa:     math.Round(co2e * carbonPriceUSD),
		ProductivityGainPercent: math.Min(30, math.Round(deficitPercent*0.5)),
		PriorityScore:           priorityScore(deficitPercent, hectares, rate),
	}
}

// priorityScore combines degradation severity (max 40), project scale
// (max 30) and restoration feasibility (max 30), clamped to [0, 100].
func priorityScore(deficitPercent, hectares, rate float64) float64 {
	degradation := math.Min(40, deficitPercent)
	scale := math.Min(30, math.Log10(math.Max(hectares, 1))*6)
	feasibility := math.Min(30, rate/maxAccumulationRate*30)
	score := degradation + scale + feasibility
	return Round(math.Max(0, math.Min(100, score)), 1)
}
