package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpadapter "github.com/beccaRND/ci-fund-intelligence/internal/adapter/http"
	"github.com/beccaRND/ci-fund-intelligence/internal/domain"
	"github.com/beccaRND/ci-fund-intelligence/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("connection refused")

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockClimate struct {
	err    error
	window domain.DateRange
}

func (m *mockClimate) DailyClimate(_ context.Context, _, _ float64, window domain.DateRange) (domain.ClimateSeries, error) {
	m.window = window
	if m.err != nil {
		return domain.ClimateSeries{}, m.err
	}
	rain := 2.0
	return domain.ClimateSeries{Days: []domain.DailyObservation{
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Precipitation: &rain},
	}}, nil
}

type mockSoil struct{ profile domain.SoilProfile }

func (m mockSoil) SoilProfile(context.Context, float64, float64) (domain.SoilProfile, error) {
	return m.profile, nil
}

type mockCommodity struct{ err error }

func (m mockCommodity) CommodityPrices(_ context.Context, commodity string) (domain.CommodityPrices, error) {
	if m.err != nil {
		return domain.CommodityPrices{}, m.err
	}
	return domain.CommodityPrices{Commodity: commodity, Prices: []domain.PricePoint{{Date: "2024", Price: 80}}, Unit: "US cents/lb"}, nil
}

type mockProfiles struct{ target pipeline.Target }

func (m *mockProfiles) Profile(_ context.Context, target pipeline.Target) pipeline.Profile {
	m.target = target
	return pipeline.Profile{Coordinates: pipeline.Coordinates{Lat: target.Lat, Lng: target.Lng}, Errors: map[string]string{}}
}

type mockAnalyzer struct{ err error }

func (m mockAnalyzer) Analyze(_ context.Context, req pipeline.ContextRequest) (pipeline.ContextAnalysis, error) {
	if m.err != nil {
		return pipeline.ContextAnalysis{}, m.err
	}
	return pipeline.ContextAnalysis{Window: req.Window}, nil
}

type mockLandscape struct {
	latest    *pipeline.PortfolioResult
	refreshes int
}

func (m *mockLandscape) Latest() (pipeline.PortfolioResult, bool) {
	if m.latest == nil {
		return pipeline.PortfolioResult{}, false
	}
	return *m.latest, true
}

func (m *mockLandscape) Refresh(context.Context) pipeline.PortfolioResult {
	m.refreshes++
	r := pipeline.PortfolioResult{RunID: fmt.Sprintf("run-%d", m.refreshes)}
	m.latest = &r
	return r
}

type mockProjects map[string]domain.Project

func (m mockProjects) Find(id string) (domain.Project, bool) {
	p, ok := m[id]
	return p, ok
}

type fixture struct {
	srv       *httpadapter.Server
	climate   *mockClimate
	profiles  *mockProfiles
	landscape *mockLandscape
}

func newFixture(opts ...func(*httpadapter.API)) fixture {
	f := fixture{climate: &mockClimate{}, profiles: &mockProfiles{}, landscape: &mockLandscape{}}
	api := &httpadapter.API{
		Climate:   f.climate,
		Soil:      mockSoil{profile: domain.SoilProfile{SOCStock: 42.1, TextureClass: domain.TextureLoam}},
		Commodity: mockCommodity{},
		Profiles:  f.profiles,
		Analyzer:  mockAnalyzer{},
		Landscape: f.landscape,
		Projects:  mockProjects{"karoo-wool": {ID: "karoo-wool", Lat: -32.3, Lng: 22.6, Commodity: domain.CommodityWool}},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(api)
	}
	f.srv = httpadapter.NewServer(":0", &mockReadiness{}, api, []string{"https://fund.example.org"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return f
}

func newTestServer(readyErr error) *httpadapter.Server {
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, nil, nil, slog.Default())
}

type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Source  string          `json:"source"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func do(t *testing.T, srv http.Handler, method, target string, body any) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(method, target, reader))

	var resp response
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("portfolio has not been ranked yet"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "portfolio has not been ranked yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestAPIRoutesAbsentWithoutAPI(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/soil?lat=1&lng=2", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClimate(t *testing.T) {
	f := newFixture()

	rec, resp := do(t, f.srv, http.MethodGet, "/api/climate?lat=-32.3&lng=22.6&startDate=2020-01-01&endDate=2024-12-31", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "Open-Meteo Historical Weather API (ERA5)", resp.Source)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), f.climate.window.Start)

	var processed domain.ProcessedClimate
	require.NoError(t, json.Unmarshal(resp.Data, &processed))
	assert.Equal(t, 2.0, processed.AnnualPrecip)
}

func TestAPI_BadQueryParameters(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"missing lat", "/api/climate?lng=1"},
		{"non numeric", "/api/climate?lat=abc&lng=1"},
		{"out of range", "/api/climate?lat=95&lng=1"},
		{"nan latitude", "/api/climate?lat=NaN&lng=1"},
		{"infinite longitude", "/api/climate?lat=1&lng=-Inf"},
		{"nan soil", "/api/soil?lat=1&lng=nan"},
		{"nan profile", "/api/profile?lat=NaN&lng=NaN"},
		{"bad date", "/api/climate?lat=1&lng=1&startDate=2020-13-01"},
		{"reversed dates", "/api/climate?lat=1&lng=1&startDate=2024-01-01&endDate=2020-01-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := do(t, newFixture().srv, http.MethodGet, tt.query, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestClimate_UpstreamFailure(t *testing.T) {
	f := newFixture()
	f.climate.err = errUpstream

	rec, resp := do(t, f.srv, http.MethodGet, "/api/climate?lat=1&lng=2", nil)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Failed to fetch climate data", resp.Error)
	assert.Equal(t, "connection refused", resp.Message)
}

func TestSoil(t *testing.T) {
	rec, resp := do(t, newFixture().srv, http.MethodGet, "/api/soil?lat=1&lng=2", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ISRIC SoilGrids v2.0", resp.Source)
	var soil domain.SoilProfile
	require.NoError(t, json.Unmarshal(resp.Data, &soil))
	assert.Equal(t, 42.1, soil.SOCStock)
}

func TestCommodities(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		rec, resp := do(t, newFixture().srv, http.MethodGet, "/api/commodities?commodity=cotton", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "World Bank Commodity Price Data", resp.Source)
	})
	t.Run("missing parameter", func(t *testing.T) {
		rec, resp := do(t, newFixture().srv, http.MethodGet, "/api/commodities", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "commodity parameter is required", resp.Error)
	})
	t.Run("upstream failure", func(t *testing.T) {
		srv := newFixture(func(a *httpadapter.API) { a.Commodity = mockCommodity{err: errUpstream} }).srv
		rec, _ := do(t, srv, http.MethodGet, "/api/commodities?commodity=wool", nil)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestProfile(t *testing.T) {
	t.Run("by project", func(t *testing.T) {
		f := newFixture()
		rec, _ := do(t, f.srv, http.MethodGet, "/api/profile?projectId=karoo-wool", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, f.profiles.target.Project)
		assert.Equal(t, "karoo-wool", f.profiles.target.Project.ID)
	})
	t.Run("unknown project", func(t *testing.T) {
		rec, _ := do(t, newFixture().srv, http.MethodGet, "/api/profile?projectId=nope", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
	t.Run("by coordinates", func(t *testing.T) {
		f := newFixture()
		rec, _ := do(t, f.srv, http.MethodGet, "/api/profile?lat=10&lng=20&commodity=leather", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, pipeline.Target{Lat: 10, Lng: 20, Commodity: "leather"}, f.profiles.target)
	})
	t.Run("neither", func(t *testing.T) {
		rec, resp := do(t, newFixture().srv, http.MethodGet, "/api/profile", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, resp.Error, "projectId")
	})
}

func TestLandscape(t *testing.T) {
	f := newFixture()

	_, first := do(t, f.srv, http.MethodGet, "/api/landscape", nil)
	_, second := do(t, f.srv, http.MethodGet, "/api/landscape", nil)
	assert.Equal(t, 1, f.landscape.refreshes, "cached ranking is reused")
	assert.JSONEq(t, string(first.Data), string(second.Data))

	_, refreshed := do(t, f.srv, http.MethodGet, "/api/landscape?refresh=true", nil)
	assert.Equal(t, 2, f.landscape.refreshes)

	var result pipeline.PortfolioResult
	require.NoError(t, json.Unmarshal(refreshed.Data, &result))
	assert.Equal(t, "run-2", result.RunID)
}

func TestChecklist(t *testing.T) {
	rec, resp := do(t, newFixture().srv, http.MethodPost, "/api/checklist", map[string]any{
		"lab_method":      "Dry combustion",
		"gps_coordinates": true,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Score      int                                 `json:"score"`
		Label      string                              `json:"label"`
		Results    []domain.ChecklistResult            `json:"results"`
		ByCategory map[string][]domain.ChecklistResult `json:"by_category"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &body))
	assert.Len(t, body.Results, len(domain.SoilCarbonChecklist()))
	assert.Less(t, body.Score, 50)
	assert.Equal(t, "Significant gaps", body.Label)
	assert.NotEmpty(t, body.ByCategory)
}

func TestChecklist_MalformedBody(t *testing.T) {
	rec, resp := do(t, newFixture().srv, http.MethodPost, "/api/checklist", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp.Error, "invalid request body")
}

func TestContext(t *testing.T) {
	window := pipeline.MonitoringWindow{Start: "2022-01", End: "2023-12"}

	t.Run("ok", func(t *testing.T) {
		rec, resp := do(t, newFixture().srv, http.MethodPost, "/api/context", pipeline.ContextRequest{Lat: 1, Lng: 2, Window: window})
		require.Equal(t, http.StatusOK, rec.Code)
		var analysis pipeline.ContextAnalysis
		require.NoError(t, json.Unmarshal(resp.Data, &analysis))
		assert.Equal(t, window, analysis.Window)
	})
	t.Run("invalid window", func(t *testing.T) {
		srv := newFixture(func(a *httpadapter.API) {
			a.Analyzer = mockAnalyzer{err: fmt.Errorf("%w: bad", pipeline.ErrInvalidWindow)}
		}).srv
		rec, _ := do(t, srv, http.MethodPost, "/api/context", pipeline.ContextRequest{Lat: 1, Lng: 2})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
	t.Run("upstream failure", func(t *testing.T) {
		srv := newFixture(func(a *httpadapter.API) { a.Analyzer = mockAnalyzer{err: errUpstream} }).srv
		rec, _ := do(t, srv, http.MethodPost, "/api/context", pipeline.ContextRequest{Lat: 1, Lng: 2, Window: window})
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
	t.Run("bad coordinates", func(t *testing.T) {
		rec, _ := do(t, newFixture().srv, http.MethodPost, "/api/context", pipeline.ContextRequest{Lat: 200, Window: window})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture()
	req := httptest.NewRequest(http.MethodOptions, "/api/soil", nil)
	req.Header.Set("Origin", "https://fund.example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()

	f.srv.ServeHTTP(rec, req)

	assert.Equal(t, "https://fund.example.org", rec.Header().Get("Access-Control-Allow-Origin"))
}
