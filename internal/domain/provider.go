package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNoData is returned by providers that answered but had nothing for the location.
var ErrNoData = errors.New("no data for location")

// DateRange bounds a climate request. Zero values ask the provider for its
// default window (the last five years up to today).
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ClimateProvider fetches a daily climate series for a coordinate.
type ClimateProvider interface {
	DailyClimate(ctx context.Context, lat, lng float64, window DateRange) (ClimateSeries, error)
}

// SoilProvider fetches the soil profile for a coordinate.
type SoilProvider interface {
	SoilProfile(ctx context.Context, lat, lng float64) (SoilProfile, error)
}

// CommodityProvider fetches price data or context for a commodity.
type CommodityProvider interface {
	CommodityPrices(ctx context.Context, commodity string) (CommodityPrices, error)
}

// SolarProvider fetches long-term solar and wind averages for a coordinate.
type SolarProvider interface {
	SolarConditions(ctx context.Context, lat, lng float64) (SolarConditions, error)
}
