package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/beccaRND/ci-fund-intelligence/internal/domain"
	"github.com/beccaRND/ci-fund-intelligence/internal/pipeline"
)

var errUpstream = errors.New("upstream unavailable")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func f64(v float64) *float64 { return &v }

// yearOfRain returns a 2023 series with uniform daily precipitation summing to annualMM.
func yearOfRain(annualMM float64) domain.ClimateSeries {
	days := make([]domain.DailyObservation, 365)
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range days {
		days[i] = domain.DailyObservation{
			Date:          start.AddDate(0, 0, i),
			TempMean:      f64(15),
			Precipitation: f64(annualMM / 365),
		}
	}
	return domain.ClimateSeries{Days: days}
}

// mockClimate answers per latitude; unknown latitudes fail.
type mockClimate struct {
	byLat    map[float64]domain.ClimateSeries
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (m *mockClimate) DailyClimate(_ context.Context, lat, _ float64, _ domain.DateRange) (domain.ClimateSeries, error) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(m.delay)

	s, ok := m.byLat[lat]
	if !ok {
		return domain.ClimateSeries{}, errUpstream
	}
	return s, nil
}

type mockSoil struct {
	byLat map[float64]domain.SoilProfile
}

func (m *mockSoil) SoilProfile(_ context.Context, lat, _ float64) (domain.SoilProfile, error) {
	p, ok := m.byLat[lat]
	if !ok {
		return domain.SoilProfile{}, errUpstream
	}
	return p, nil
}

type mockCommodity struct {
	err error
}

func (m mockCommodity) CommodityPrices(_ context.Context, commodity string) (domain.CommodityPrices, error) {
	if m.err != nil {
		return domain.CommodityPrices{}, m.err
	}
	return domain.CommodityPrices{Commodity: commodity, Prices: []domain.PricePoint{{Date: "2024", Price: 88.1}}}, nil
}

type mockSolar struct {
	err error
}

func (m mockSolar) SolarConditions(context.Context, float64, float64) (domain.SolarConditions, error) {
	return domain.SolarConditions{SolarRadiation: 5.2, ClearSkyDays: 12, WindSpeed: 3.1}, m.err
}

type staticProjects []domain.Project

func (s staticProjects) Projects() []domain.Project { return s }

type mockPublisher struct {
	mu        sync.Mutex
	failFirst int
	calls     int
	published []pipeline.PortfolioResult
}

func (m *mockPublisher) Publish(_ context.Context, result pipeline.PortfolioResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.calls <= m.failFirst {
		return errUpstream
	}
	m.published = append(m.published, result)
	return nil
}
