package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/beccaRND/ci-fund-intelligence/internal/domain"
	"github.com/beccaRND/ci-fund-intelligence/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingClimate struct {
	calls  int
	series domain.ClimateSeries
	err    error
}

func (m *countingClimate) DailyClimate(_ context.Context, lat, lng float64, _ domain.DateRange) (domain.ClimateSeries, error) {
	m.calls++
	s := m.series
	s.Latitude, s.Longitude = lat, lng
	return s, m.err
}

type countingSoil struct {
	calls   int
	profile domain.SoilProfile
	err     error
}

func (m *countingSoil) SoilProfile(_ context.Context, _, _ float64) (domain.SoilProfile, error) {
	m.calls++
	return m.profile, m.err
}

func oneDay() domain.ClimateSeries {
	v := 1.0
	return domain.ClimateSeries{Days: []domain.DailyObservation{{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Precipitation: &v}}}
}

func TestClimateProvider_CacheHit(t *testing.T) {
	inner := &countingClimate{series: oneDay()}
	metrics := observability.NewMetricsForTesting()
	cached := NewClimateProvider(inner, 10, 0, nil, metrics)
	window := domain.DateRange{Start: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)}

	s1, err := cached.DailyClimate(context.Background(), -33.12341, 18.4, window)
	require.NoError(t, err)
	s2, err := cached.DailyClimate(context.Background(), -33.12342, 18.4, window)
	require.NoError(t, err)

	assert.Equal(t, s1, s2)
	assert.Equal(t, 1, inner.calls, "nearby coordinates share one entry")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ProviderCache.WithLabelValues("open_meteo", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ProviderCache.WithLabelValues("open_meteo", "miss")))
}

func TestClimateProvider_WindowIsPartOfKey(t *testing.T) {
	inner := &countingClimate{series: oneDay()}
	cached := NewClimateProvider(inner, 10, 0, nil, observability.NewMetricsForTesting())

	_, _ = cached.DailyClimate(context.Background(), 1, 2, domain.DateRange{})
	_, _ = cached.DailyClimate(context.Background(), 1, 2, domain.DateRange{Start: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)})

	assert.Equal(t, 2, inner.calls)
}

func TestClimateProvider_DoesNotCacheErrorsOrEmpty(t *testing.T) {
	inner := &countingClimate{err: errors.New("upstream down")}
	cached := NewClimateProvider(inner, 10, 0, nil, observability.NewMetricsForTesting())

	_, err := cached.DailyClimate(context.Background(), 1, 2, domain.DateRange{})
	require.Error(t, err)

	inner.err = nil
	_, err = cached.DailyClimate(context.Background(), 1, 2, domain.DateRange{})
	require.NoError(t, err)
	_, _ = cached.DailyClimate(context.Background(), 1, 2, domain.DateRange{})

	assert.Equal(t, 3, inner.calls)
}

func TestSoilProvider_CachesMeasuredProfiles(t *testing.T) {
	inner := &countingSoil{profile: domain.SoilProfile{SOCStock: 42.1, TextureClass: domain.TextureLoam}}
	cached := NewSoilProvider(inner, 10, 0, nil, observability.NewMetricsForTesting())

	for range 3 {
		p, err := cached.SoilProfile(context.Background(), 10, 20)
		require.NoError(t, err)
		assert.Equal(t, 42.1, p.SOCStock)
	}
	assert.Equal(t, 1, inner.calls)
}

func TestSoilProvider_SkipsEstimates(t *testing.T) {
	inner := &countingSoil{profile: domain.EstimateSoilProfile(10, 20)}
	cached := NewSoilProvider(inner, 10, 0, nil, observability.NewMetricsForTesting())

	_, _ = cached.SoilProfile(context.Background(), 10, 20)
	_, _ = cached.SoilProfile(context.Background(), 10, 20)

	assert.Equal(t, 2, inner.calls)
}

func TestClimateProvider_DefaultWindowRefetchedAfterTTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	inner := &countingClimate{series: oneDay()}
	cached := NewClimateProvider(inner, 10, 24*time.Hour, clock, observability.NewMetricsForTesting())

	// Three daily portfolio refreshes of the same site with the provider's default window.
	for range 3 {
		_, err := cached.DailyClimate(context.Background(), 1, 2, domain.DateRange{})
		require.NoError(t, err)
		_, err = cached.DailyClimate(context.Background(), 1, 2, domain.DateRange{})
		require.NoError(t, err)
		clock.Advance(24 * time.Hour)
	}

	assert.Equal(t, 3, inner.calls, "one upstream fetch per refresh, repeats within a day are hits")
}

func TestSoilProvider_RefetchedAfterTTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	inner := &countingSoil{profile: domain.SoilProfile{SOCStock: 42.1}}
	cached := NewSoilProvider(inner, 10, 7*24*time.Hour, clock, observability.NewMetricsForTesting())

	_, _ = cached.SoilProfile(context.Background(), 10, 20)
	clock.Advance(6 * 24 * time.Hour)
	_, _ = cached.SoilProfile(context.Background(), 10, 20)
	assert.Equal(t, 1, inner.calls)

	clock.Advance(24 * time.Hour)
	_, _ = cached.SoilProfile(context.Background(), 10, 20)
	assert.Equal(t, 2, inner.calls)
}
