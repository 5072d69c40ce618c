package pipeline

import (
	"context"
	"log/slog"

	"github.com/beccaRND/ci-fund-intelligence/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Profile source names, used as keys of Profile.Errors.
const (
	SourceClimate   = "climate"
	SourceSoil      = "soil"
	SourceCommodity = "commodity"
	SourceSolar     = "nasa"
)

const (
	customProjectID  = "custom"
	defaultHectares  = 1000
	defaultCommodity = domain.CommodityCotton
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Target is the location a profile is built for: a portfolio project or
// bare coordinates with an optional commodity.
type Target struct {
	Project   *domain.Project
	Lat, Lng  float64
	Commodity string
}

func (t Target) resolve() (id string, c Coordinates, commodity string, hectares float64) {
	if t.Project != nil {
		return t.Project.ID, Coordinates{t.Project.Lat, t.Project.Lng}, t.Project.Commodity, t.Project.Hectares
	}
	commodity = t.Commodity
	if commodity == "" {
		commodity = defaultCommodity
	}
	return customProjectID, Coordinates{t.Lat, t.Lng}, commodity, defaultHectares
}

// Profile combines every data source for one location. A source that failed
// is nil and named in Errors; the rest are still reported.
type Profile struct {
	Coordinates Coordinates                   `json:"coordinates"`
	Project     *domain.Project               `json:"project"`
	Climate     *domain.ProcessedClimate      `json:"climate"`
	Soil        *domain.SoilProfile           `json:"soil"`
	Commodity   *domain.CommodityPrices       `json:"commodity"`
	Solar       *domain.SolarConditions       `json:"nasa"`
	Degradation *domain.DegradationAssessment `json:"degradation"`
	Errors      map[string]string             `json:"errors"`
}

// Aggregator fans out to all profile sources for a location.
type Aggregator struct {
	climate   domain.ClimateProvider
	soil      domain.SoilProvider
	commodity domain.CommodityProvider
	solar     domain.SolarProvider
	logger    *slog.Logger
}

// NewAggregator creates a profile aggregator over the four providers.
func NewAggregator(climate domain.ClimateProvider, soil domain.SoilProvider, commodity domain.CommodityProvider, solar domain.SolarProvider, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		climate:   climate,
		soil:      soil,
		commodity: commodity,
		solar:     solar,
		logger:    logger,
	}
}

// Profile fetches all sources in parallel. A degradation assessment is
// included when both soil and climate succeeded.
func (a *Aggregator) Profile(ctx context.Context, target Target) Profile {
	id, coords, commodity, hectares := target.resolve()

	var (
		climate domain.ProcessedClimate
		soil    domain.SoilProfile
		prices  domain.CommodityPrices
		solar   domain.SolarConditions
		errs    [4]error
		g       errgroup.Group
	)
	g.Go(func() error {
		series, err := a.climate.DailyClimate(ctx, coords.Lat, coords.Lng, domain.DateRange{})
		if err == nil {
			climate = domain.ProcessClimate(series)
		}
		errs[0] = err
		return nil
	})
	g.Go(func() error {
		soil, errs[1] = a.soil.SoilProfile(ctx, coords.Lat, coords.Lng)
		return nil
	})
	g.Go(func() error {
		prices, errs[2] = a.commodity.CommodityPrices(ctx, commodity)
		return nil
	})
	g.Go(func() error {
		solar, errs[3] = a.solar.SolarConditions(ctx, coords.Lat, coords.Lng)
		return nil
	})
	_ = g.Wait()

	p := Profile{
		Coordinates: coords,
		Project:     target.Project,
		Errors:      map[string]string{},
	}
	for i, name := range []string{SourceClimate, SourceSoil, SourceCommodity, SourceSolar} {
		if errs[i] != nil {
			a.logger.Warn("profile source failed", "source", name, "project_id", id, "error", errs[i])
			p.Errors[name] = errs[i].Error()
		}
	}
	if errs[0] == nil {
		p.Climate = &climate
	}
	if errs[1] == nil {
		p.Soil = &soil
	}
	if errs[2] == nil {
		p.Commodity = &prices
	}
	if errs[3] == nil {
		p.Solar = &solar
	}
	if p.Climate != nil && p.Soil != nil {
		d := domain.ComputeDegradation(id, soil.SOCStock, soil.TextureClass, climate.AnnualPrecip, commodity, hectares)
		p.Degradation = &d
	}
	return p
}
