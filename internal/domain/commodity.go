package domain

// PricePoint is one observation in a commodity price series.
type PricePoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// CommodityPrices is either a price series with its unit or, for
// commodities without a public series, a context paragraph.
type CommodityPrices struct {
	Commodity   string       `json:"commodity"`
	Prices      []PricePoint `json:"prices"`
	Unit        string       `json:"unit"`
	ContextText string       `json:"context_text,omitempty"`
}

// SolarConditions are multi-year averages from the NASA POWER agroclimatology feed.
type SolarConditions struct {
	SolarRadiation float64 `json:"solar_radiation"` // kWh/m²/day
	ClearSkyDays   float64 `json:"clear_sky_days"`
	WindSpeed      float64 `json:"wind_speed"` // m/s
}
