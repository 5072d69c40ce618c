package domain

import "math"

// Standard SoilGrids depth bands, shallowest first.
var SoilDepthBands = []string{"0-5cm", "5-15cm", "15-30cm", "30-60cm", "60-100cm"}

// DepthLayer is SOC content and bulk density for one depth band.
type DepthLayer struct {
	Depth       string  `json:"depth"`
	SOC         float64 `json:"soc"`          // g/kg
	BulkDensity float64 `json:"bulk_density"` // g/cm³
}

// SoilProfile summarises topsoil properties at a location.
type SoilProfile struct {
	SOCStock     float64      `json:"soc_stock_t_per_ha"` // 0-30 cm
	TextureClass string       `json:"texture_class"`
	PH           float64      `json:"ph"`
	BulkDensity  float64      `json:"bulk_density"`
	Sand         float64      `json:"sand"`
	Silt         float64      `json:"silt"`
	Clay         float64      `json:"clay"`
	CEC          float64      `json:"cec"` // cmol/kg
	DepthProfile []DepthLayer `json:"depth_profile"`

	// IsEstimate marks literature-derived values used when the soil provider is unavailable.
	IsEstimate bool `json:"is_estimate"`
}

type soilBaseline struct {
	soc, sand, silt, clay, pH, bulkDensity float64
}

var depthMultipliers = []float64{1.3, 1.1, 1.0, 0.7, 0.4}

// EstimateSoilProfile returns a literature-based soil profile for a
// location, used in place of provider data. Latitude selects a broad climate
// band and longitude adds up to ±10% regional variation to SOC.
func EstimateSoilProfile(lat, lng float64) SoilProfile {
	var base soilBaseline
	switch absLat := math.Abs(lat); {
	case absLat > 40: // temperate and cold steppe
		base = soilBaseline{soc: 28, sand: 42, silt: 35, clay: 23, pH: 7.2, bulkDensity: 1.32}
	case absLat > 25: // subtropical
		base = soilBaseline{soc: 22, sand: 48, silt: 30, clay: 22, pH: 6.8, bulkDensity: 1.38}
	default: // tropical
		base = soilBaseline{soc: 18, sand: 38, silt: 32, clay: 30, pH: 5.9, bulkDensity: 1.25}
	}

	variation := (math.Sin(lng*0.1)+1)/2*0.2 - 0.1
	soc := Round(base.soc*(1+variation), 1)

	profile := make([]DepthLayer, len(SoilDepthBands))
	for i, band := range SoilDepthBands {
		profile[i] = DepthLayer{
			Depth:       band,
			SOC:         Round(soc*depthMultipliers[i], 1),
			BulkDensity: Round(base.bulkDensity+float64(i)*0.03, 2),
		}
	}

	return SoilProfile{
		SOCStock:     soc,
		TextureClass: ClassifyTexture(base.sand, base.silt, base.clay),
		PH:           base.pH,
		BulkDensity:  base.bulkDensity,
		Sand:         base.sand,
		Silt:         base.silt,
		Clay:         base.clay,
		CEC:          Round(base.clay*0.6+soc*0.3, 1),
		DepthProfile: profile,
		IsEstimate:   true,
	}
}
