package soilgrids

import (
	"math"

	"github.com/beccaRND/ci-fund-intelligence/internal/domain"
)

// SoilGrids reports mapped units: SOC in dg/kg, bulk density in cg/cm³,
// texture fractions in g/kg, pH×10 and CEC in mmol(c)/kg.
const (
	socFactor         = 10.0
	bulkDensityFactor = 100.0
	textureFactor     = 10.0
	phFactor          = 10.0
	cecFactor         = 10.0

	defaultBulkDensity = 1.3
	// topsoilBands covers 0-30 cm.
	topsoilBands = 3
)

var bandThicknessCm = map[string]float64{
	"0-5cm":    5,
	"5-15cm":   10,
	"15-30cm":  15,
	"30-60cm":  30,
	"60-100cm": 40,
}

type layerIndex map[string]map[string]*float64 // property -> depth label -> mean

func indexLayers(layers []layer) layerIndex {
	idx := make(layerIndex, len(layers))
	for _, l := range layers {
		byDepth := make(map[string]*float64, len(l.Depths))
		for _, d := range l.Depths {
			byDepth[d.Label] = d.Values.Mean
		}
		idx[l.Name] = byDepth
	}
	return idx
}

func (idx layerIndex) value(property, band string) (float64, bool) {
	v := idx[property][band]
	if v == nil {
		return 0, false
	}
	return *v, true
}

// topsoilMean averages the present 0-30 cm values of a property, scaled down by factor.
func (idx layerIndex) topsoilMean(property string, factor float64) (float64, bool) {
	var sum float64
	var n int
	for _, band := range domain.SoilDepthBands[:topsoilBands] {
		if v, ok := idx.value(property, band); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n) / factor, true
}

// processLayers converts SoilGrids layer means into a SoilProfile. SOC stock
// for 0-30 cm is Σ soc·bd·thickness·0.1 over the three topsoil bands.
func processLayers(layers []layer) domain.SoilProfile {
	idx := indexLayers(layers)

	profile := make([]domain.DepthLayer, len(domain.SoilDepthBands))
	for i, band := range domain.SoilDepthBands {
		soc, _ := idx.value("soc", band)
		bd := defaultBulkDensity
		if v, ok := idx.value("bdod", band); ok {
			bd = v / bulkDensityFactor
		}
		profile[i] = domain.DepthLayer{
			Depth:       band,
			SOC:         soc / socFactor,
			BulkDensity: domain.Round(bd, 2),
		}
	}

	var stock, bdSum float64
	for _, dl := range profile[:topsoilBands] {
		stock += dl.SOC * dl.BulkDensity * bandThicknessCm[dl.Depth] * 0.1
		bdSum += dl.BulkDensity
	}

	sand, _ := idx.topsoilMean("sand", textureFactor)
	silt, _ := idx.topsoilMean("silt", textureFactor)
	clay, _ := idx.topsoilMean("clay", textureFactor)
	sand, silt, clay = math.Round(sand), math.Round(silt), math.Round(clay)
	ph, _ := idx.topsoilMean("phh2o", phFactor)
	cec, _ := idx.topsoilMean("cec", cecFactor)

	return domain.SoilProfile{
		SOCStock:     domain.Round(stock, 1),
		TextureClass: domain.ClassifyTexture(sand, silt, clay),
		PH:           domain.Round(ph, 1),
		BulkDensity:  domain.Round(bdSum/topsoilBands, 2),
		Sand:         sand,
		Silt:         silt,
		Clay:         clay,
		CEC:          domain.Round(cec, 1),
		DepthProfile: profile,
	}
}
