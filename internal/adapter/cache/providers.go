package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/beccaRND/ci-fund-intelligence/internal/domain"
	"github.com/beccaRND/ci-fund-intelligence/internal/observability"
	"github.com/jonboulle/clockwork"
)

// locationKey rounds to ~11 m so repeated lookups for one project site share an entry.
func locationKey(lat, lng float64) string {
	return fmt.Sprintf("%.4f,%.4f", lat, lng)
}

// ClimateProvider wraps a domain.ClimateProvider with an LRU cache keyed by
// location and date window. Entries expire after the configured TTL so a
// periodic re-rank sees fresh observations.
type ClimateProvider struct {
	inner   domain.ClimateProvider
	cache   *LRU[string, domain.ClimateSeries]
	metrics *observability.Metrics
}

// NewClimateProvider creates a cache decorator around a climate provider.
func NewClimateProvider(inner domain.ClimateProvider, maxEntries int, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *ClimateProvider {
	return &ClimateProvider{
		inner:   inner,
		cache:   NewLRU[string, domain.ClimateSeries](maxEntries, ttl, clock),
		metrics: metrics,
	}
}

func (c *ClimateProvider) DailyClimate(ctx context.Context, lat, lng float64, window domain.DateRange) (domain.ClimateSeries, error) {
	key := fmt.Sprintf("%s|%s|%s", locationKey(lat, lng),
		window.Start.Format("2006-01-02"), window.End.Format("2006-01-02"))
	if series, ok := c.cache.Get(key); ok {
		c.metrics.ProviderCache.WithLabelValues("open_meteo", "hit").Inc()
		return series, nil
	}
	c.metrics.ProviderCache.WithLabelValues("open_meteo", "miss").Inc()

	series, err := c.inner.DailyClimate(ctx, lat, lng, window)
	if err != nil {
		return series, err
	}
	// Only cache non-empty series so a transient empty answer can be retried.
	if len(series.Days) > 0 {
		c.cache.Put(key, series)
	}
	return series, nil
}

// SoilProvider wraps a domain.SoilProvider with an LRU cache keyed by location.
type SoilProvider struct {
	inner   domain.SoilProvider
	cache   *LRU[string, domain.SoilProfile]
	metrics *observability.Metrics
}

// NewSoilProvider creates a cache decorator around a soil provider.
func NewSoilProvider(inner domain.SoilProvider, maxEntries int, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *SoilProvider {
	return &SoilProvider{
		inner:   inner,
		cache:   NewLRU[string, domain.SoilProfile](maxEntries, ttl, clock),
		metrics: metrics,
	}
}

func (c *SoilProvider) SoilProfile(ctx context.Context, lat, lng float64) (domain.SoilProfile, error) {
	key := locationKey(lat, lng)
	if profile, ok := c.cache.Get(key); ok {
		c.metrics.ProviderCache.WithLabelValues("soilgrids", "hit").Inc()
		return profile, nil
	}
	c.metrics.ProviderCache.WithLabelValues("soilgrids", "miss").Inc()

	profile, err := c.inner.SoilProfile(ctx, lat, lng)
	if err != nil {
		return profile, err
	}
	if !profile.IsEstimate {
		c.cache.Put(key, profile)
	}
	return profile, nil
}
