package domain

// Soil texture class labels, simplified from the USDA texture triangle.
const (
	TextureSand          = "Sand"
	TextureLoamySand     = "Loamy Sand"
	TextureSandyLoam     = "Sandy Loam"
	TextureLoam          = "Loam"
	TextureSiltLoam      = "Silt Loam"
	TextureSilt          = "Silt"
	TextureSandyClayLoam = "Sandy Clay Loam"
	TextureClayLoam      = "Clay Loam"
	TextureSiltyClayLoam = "Silty Clay Loam"
	TextureSandyClay     = "Sandy Clay"
	TextureSiltyClay     = "Silty Clay"
	TextureClay          = "Clay"
)

// TextureClasses lists every label ClassifyTexture can return.
var TextureClasses = []string{
	TextureSand, TextureLoamySand, TextureSandyLoam, TextureLoam,
	TextureSiltLoam, TextureSilt, TextureSandyClayLoam, TextureClayLoam,
	TextureSiltyClayLoam, TextureSandyClay, TextureSiltyClay, TextureClay,
}

// ClassifyTexture maps sand/silt/clay percentages to a texture class.
// The checks form a decision tree and the first match wins:
//
//	clay >= 40: sand >= 45 Sandy Clay | silt >= 40 Silty Clay | Clay
//	clay >= 27: 20 <= sand <= 45 Clay Loam | sand < 20 Silty Clay Loam | Sandy Clay Loam
//	silt >= 50: clay >= 12 Silt Loam | Silt
//	sand >= 85 Sand | sand >= 70 Loamy Sand
//	7 <= clay < 27: sand >= 43 Sandy Loam | Loam
//	otherwise Loam
//
// The percentages are not required to sum to 100.
func ClassifyTexture(sand, silt, clay float64) string {
	switch {
	case clay >= 40:
		switch {
		case sand >= 45:
			return TextureSandyClay
		case silt >= 40:
			return TextureSiltyClay
		default:
			return TextureClay
		}
	case clay >= 27:
		switch {
		case sand >= 20 && sand <= 45:
			return TextureClayLoam
		case sand < 20:
			return TextureSiltyClayLoam
		default:
			return TextureSandyClayLoam
		}
	case silt >= 50:
		if clay >= 12 {
			return TextureSiltLoam
		}
		return TextureSilt
	case sand >= 85:
		return TextureSand
	case sand >= 70:
		return TextureLoamySand
	case clay >= 7 && clay < 27 && sand >= 43:
		return TextureSandyLoam
	default:
		return TextureLoam
	}
}
