package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyClimateZone(t *testing.T) {
	tests := []struct {
		precip   float64
		expected string
	}{
		{0, ZoneArid},
		{249.6, ZoneArid},
		{249.9, ZoneArid},
		{250, ZoneSemiArid},
		{499, ZoneSemiArid},
		{500, ZoneSubHumid},
		{999.9, ZoneSubHumid},
		{1000, ZoneHumid},
		{2400, ZoneHumid},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ClassifyClimateZone(tt.precip), "precip %v", tt.precip)
	}
}

func TestReferenceSOC(t *testing.T) {
	assert.Equal(t, 100.0, ReferenceSOC(TextureClay, ZoneHumid))
	assert.Equal(t, 12.0, ReferenceSOC(TextureSand, ZoneArid))
	assert.Equal(t, 45.0, ReferenceSOC("Peat", ZoneSemiArid), "unknown texture uses the Loam row")
	assert.Equal(t, 45.0, ReferenceSOC(TextureClay, "polar"), "unknown zone uses the default")
}

func TestPracticeAndRate(t *testing.T) {
	assert.Equal(t, PracticeRotationalGrazing, PracticeFor(CommodityCashmere))
	assert.Equal(t, PracticeRotationalGrazing, PracticeFor(CommodityWool))
	assert.Equal(t, PracticeCoverCropping, PracticeFor(CommodityCotton))
	assert.Equal(t, PracticeGrasslandRestoration, PracticeFor(CommodityLeather))
	assert.Equal(t, PracticeGrasslandRestoration, PracticeFor("alpaca"))

	assert.Equal(t, 0.8, AccumulationRate(PracticeAgroforestry))
	assert.Equal(t, 0.3, AccumulationRate(PracticeNoTillOrganic))
	assert.Equal(t, 0.5, AccumulationRate("unknown"))
}

func TestComputeDegradation_ClayHumid(t *testing.T) {
	a := ComputeDegradation("p-1", 60, TextureClay, 1200, CommodityCotton, 10000)

	assert.Equal(t, "p-1", a.ProjectID)
	assert.Equal(t, ZoneHumid, a.ClimateZone)
	assert.Equal(t, 100.0, a.ReferenceSOC)
	assert.Equal(t, 40.0, a.SOCDeficit)
	assert.Equal(t, 40.0, a.SOCDeficitPercent)
	assert.Equal(t, 32.0, a.PotentialSOCGain)
	assert.Equal(t, 117.4, a.PotentialCO2e)
	assert.Equal(t, 1761.0, a.CarbonValueUSDPerHa)
	assert.Equal(t, 20.0, a.ProductivityGainPercent)
	// cover cropping 0.4 t C/ha/yr: ceil(32 / 0.4)
	assert.Equal(t, 80, a.TimeToRestoreYears)
	// 40 + log10(10000)*6 + 0.4/0.8*30
	assert.Equal(t, 79.0, a.PriorityScore)
	assert.Zero(t, a.PriorityRank)
}

func TestComputeDegradation_NoDeficit(t *testing.T) {
	a := ComputeDegradation("p-2", 80, TextureSand, 100, CommodityWool, 1)

	assert.Zero(t, a.SOCDeficit)
	assert.Zero(t, a.SOCDeficitPercent)
	assert.Zero(t, a.PotentialSOCGain)
	assert.Zero(t, a.PotentialCO2e)
	assert.Zero(t, a.CarbonValueUSDPerHa)
	assert.Zero(t, a.TimeToRestoreYears)
	// feasibility only: 0.5/0.8*30
	assert.Equal(t, 18.8, a.PriorityScore)
}

func TestComputeDegradation_ProductivityCapped(t *testing.T) {
	a := ComputeDegradation("p-3", 5, TextureClay, 1500, CommodityMulti, 500)
	assert.Equal(t, 95.0, a.SOCDeficitPercent)
	assert.Equal(t, 30.0, a.ProductivityGainPercent)
}

func TestComputeDegradation_ScoreBounds(t *testing.T) {
	textures := append([]string{"Unknown"}, TextureClasses...)
	for _, texture := range textures {
		for _, precip := range []float64{0, 300, 700, 1500} {
			for _, soc := range []float64{0, 10, 50, 200} {
				for _, ha := range []float64{0, 1, 1e3, 1e9} {
					a := ComputeDegradation("p", soc, texture, precip, CommodityCashmere, ha)
					assert.GreaterOrEqual(t, a.PriorityScore, 0.0)
					assert.LessOrEqual(t, a.PriorityScore, 100.0)
				}
			}
		}
	}
}

func TestComputeDegradation_ScaleSaturates(t *testing.T) {
	large := ComputeDegradation("p", 0, TextureLoam, 700, CommodityCotton, 1e6)
	huge := ComputeDegradation("p", 0, TextureLoam, 700, CommodityCotton, 1e12)
	// log10(1e6)*6 = 36 is already past the cap of 30.
	assert.Equal(t, large.PriorityScore, huge.PriorityScore)
}

func TestComputeDegradation_DeficitRoundTrip(t *testing.T) {
	a := ComputeDegradation("p", 31.26, TextureSiltyClay, 640, CommodityLeather, 2500)
	assert.Equal(t, a.SOCDeficit, Round(SOCDeficit(a.ReferenceSOC, a.CurrentSOC), 1))
}

func TestComputeDegradation_RestoreYearsCeil(t *testing.T) {
	// grassland restoration 0.6: gain = 0.8 * (65 - 60) = 4 -> ceil(6.67)
	a := ComputeDegradation("p", 60, TextureLoam, 700, CommodityLeather, 100)
	assert.Equal(t, 7, a.TimeToRestoreYears)
	assert.Equal(t, math.Round(4*3.67*10)/10, a.PotentialCO2e)
}
