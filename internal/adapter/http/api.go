package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/beccaRND/ci-fund-intelligence/internal/adapter/soilgrids"
	"github.com/beccaRND/ci-fund-intelligence/internal/adapter/worldbank"
	"github.com/beccaRND/ci-fund-intelligence/internal/domain"
	"github.com/beccaRND/ci-fund-intelligence/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

const (
	climateSource   = "Open-Meteo Historical Weather API (ERA5)"
	landscapeSource = "Open-Meteo + ISRIC SoilGrids, literature reference stocks"
	checklistSource = "Soil carbon verification checklist"
	maxBodyBytes    = 1 << 20
)

// ProjectFinder looks up a portfolio project by id.
type ProjectFinder interface {
	Find(id string) (domain.Project, bool)
}

// ProfileBuilder assembles every data source for a location.
type ProfileBuilder interface {
	Profile(ctx context.Context, target pipeline.Target) pipeline.Profile
}

// ContextAnalyzer interprets a monitoring window against the climate record.
type ContextAnalyzer interface {
	Analyze(ctx context.Context, req pipeline.ContextRequest) (pipeline.ContextAnalysis, error)
}

// Landscape serves the ranked portfolio.
type Landscape interface {
	Latest() (pipeline.PortfolioResult, bool)
	Refresh(ctx context.Context) pipeline.PortfolioResult
}

// API holds the collaborators behind the /api routes.
type API struct {
	Climate   domain.ClimateProvider
	Soil      domain.SoilProvider
	Commodity domain.CommodityProvider
	Profiles  ProfileBuilder
	Analyzer  ContextAnalyzer
	Landscape Landscape
	Projects  ProjectFinder
	Logger    *slog.Logger
}

// envelope is the response shape of every /api route.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Source  string `json:"source,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func (a *API) routes(r chi.Router) {
	r.Get("/climate", a.handleClimate)
	r.Get("/soil", a.handleSoil)
	r.Get("/commodities", a.handleCommodities)
	r.Get("/profile", a.handleProfile)
	r.Get("/landscape", a.handleLandscape)
	r.Post("/checklist", a.handleChecklist)
	r.Post("/context", a.handleContext)
}

func (a *API) handleClimate(w http.ResponseWriter, r *http.Request) {
	lat, lng, err := coordinates(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	window, err := dateRange(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	series, err := a.Climate.DailyClimate(r.Context(), lat, lng, window)
	if err != nil {
		a.upstreamError(w, "Failed to fetch climate data", err)
		return
	}
	ok(w, domain.ProcessClimate(series), climateSource)
}

func (a *API) handleSoil(w http.ResponseWriter, r *http.Request) {
	lat, lng, err := coordinates(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	profile, err := a.Soil.SoilProfile(r.Context(), lat, lng)
	if err != nil {
		a.upstreamError(w, "Failed to fetch soil data", err)
		return
	}
	ok(w, profile, soilgrids.Source(profile))
}

func (a *API) handleCommodities(w http.ResponseWriter, r *http.Request) {
	commodity := r.URL.Query().Get("commodity")
	if commodity == "" {
		badRequest(w, "commodity parameter is required")
		return
	}

	prices, err := a.Commodity.CommodityPrices(r.Context(), commodity)
	if err != nil {
		a.upstreamError(w, "Failed to fetch commodity data", err)
		return
	}
	ok(w, prices, worldbank.Source(prices))
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var target pipeline.Target
	if id := q.Get("projectId"); id != "" {
		project, found := a.Projects.Find(id)
		if !found {
			writeJSON(w, http.StatusNotFound, envelope{Error: fmt.Sprintf("project %q not found", id)})
			return
		}
		target.Project = &project
	} else {
		lat, lng, err := coordinates(r)
		if err != nil {
			badRequest(w, "Either projectId or lat/lng coordinates are required")
			return
		}
		target = pipeline.Target{Lat: lat, Lng: lng, Commodity: q.Get("commodity")}
	}

	ok(w, a.Profiles.Profile(r.Context(), target), "")
}

func (a *API) handleLandscape(w http.ResponseWriter, r *http.Request) {
	result, found := a.Landscape.Latest()
	if !found || r.URL.Query().Get("refresh") == "true" {
		result = a.Landscape.Refresh(r.Context())
	}
	ok(w, result, landscapeSource)
}

// checklistResponse is the scored outcome of a checklist submission.
type checklistResponse struct {
	Score      int                                 `json:"score"`
	Label      string                              `json:"label"`
	Results    []domain.ChecklistResult            `json:"results"`
	ByCategory map[string][]domain.ChecklistResult `json:"by_category"`
}

func (a *API) handleChecklist(w http.ResponseWriter, r *http.Request) {
	var form domain.UploadFormData
	if err := decodeBody(w, r, &form); err != nil {
		badRequest(w, err.Error())
		return
	}

	results := domain.RunChecklist(form)
	score := domain.ComputeScore(results)
	ok(w, checklistResponse{
		Score:      score,
		Label:      domain.ScoreLabel(score),
		Results:    results,
		ByCategory: domain.GroupByCategory(results),
	}, checklistSource)
}

func (a *API) handleContext(w http.ResponseWriter, r *http.Request) {
	var req pipeline.ContextRequest
	if err := decodeBody(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := validCoordinates(req.Lat, req.Lng); err != nil {
		badRequest(w, err.Error())
		return
	}

	analysis, err := a.Analyzer.Analyze(r.Context(), req)
	switch {
	case errors.Is(err, pipeline.ErrInvalidWindow):
		badRequest(w, err.Error())
	case err != nil:
		a.upstreamError(w, "Failed to fetch climate data", err)
	default:
		ok(w, analysis, climateSource)
	}
}

func (a *API) upstreamError(w http.ResponseWriter, msg string, err error) {
	a.Logger.Warn("upstream request failed", "error", err)
	writeJSON(w, http.StatusBadGateway, envelope{Error: msg, Message: err.Error()})
}

func ok(w http.ResponseWriter, data any, source string) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, Source: source})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, envelope{Error: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func coordinates(r *http.Request) (lat, lng float64, err error) {
	q := r.URL.Query()
	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(q.Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		return 0, 0, errors.New("lat and lng are required numeric parameters")
	}
	return lat, lng, validCoordinates(lat, lng)
}

func validCoordinates(lat, lng float64) error {
	if !finite(lat) || !finite(lng) {
		return errors.New("lat and lng must be finite numbers")
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return fmt.Errorf("coordinates out of range: %g,%g", lat, lng)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// dateRange reads optional startDate/endDate (YYYY-MM-DD) query parameters.
func dateRange(r *http.Request) (domain.DateRange, error) {
	var window domain.DateRange
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"startDate", &window.Start}, {"endDate", &window.End}} {
		raw := r.URL.Query().Get(p.name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return domain.DateRange{}, fmt.Errorf("%s must be YYYY-MM-DD", p.name)
		}
		*p.dst = t
	}
	if !window.Start.IsZero() && !window.End.IsZero() && window.Start.After(window.End) {
		return domain.DateRange{}, errors.New("startDate is after endDate")
	}
	return window, nil
}
