package domain

// Supply-chain commodities tracked by the fund.
const (
	CommodityCotton   = "cotton"
	CommodityWool     = "wool"
	CommodityCashmere = "cashmere"
	CommodityLeather  = "leather"
	CommodityMulti    = "multi"
)

// Project describes one restoration project in the portfolio.
type Project struct {
	ID         string  `json:"id" yaml:"id"`
	Name       string  `json:"name" yaml:"name"`
	Grantee    string  `json:"grantee,omitempty" yaml:"grantee"`
	Country    string  `json:"country" yaml:"country"`
	Region     string  `json:"region,omitempty" yaml:"region"`
	Commodity  string  `json:"commodity" yaml:"commodity"`
	Hectares   float64 `json:"hectares" yaml:"hectares"`
	Lat        float64 `json:"lat" yaml:"lat"`
	Lng        float64 `json:"lng" yaml:"lng"`
	YearJoined int     `json:"year_joined,omitempty" yaml:"year_joined"`
	Status     string  `json:"status,omitempty" yaml:"status"`
}
