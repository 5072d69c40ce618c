// Package openmeteo implements domain.ClimateProvider against the Open-Meteo
// historical weather archive.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/beccaRND/ci-fund-intelligence/internal/adapter/ratelimit"
	"github.com/beccaRND/ci-fund-intelligence/internal/domain"
	"github.com/beccaRND/ci-fund-intelligence/internal/observability"
	"github.com/jonboulle/clockwork"
)

const (
	providerName       = "open_meteo"
	dateLayout         = "2006-01-02"
	defaultWindowYears = 5
)

var dailyVariables = []string{
	"temperature_2m_mean",
	"temperature_2m_max",
	"temperature_2m_min",
	"precipitation_sum",
	"et0_fao_evapotranspiration",
}

// Client fetches daily climate series from Open-Meteo.
type Client struct {
	httpClient *ratelimit.Client
	baseURL    string
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an Open-Meteo archive client.
func NewClient(baseURL string, httpClient *ratelimit.Client, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		clock:      clockwork.NewRealClock(),
		logger:     logger,
		metrics:    metrics,
	}
}

// WithClock replaces the time source used for the default date window.
func (c *Client) WithClock(clock clockwork.Clock) *Client {
	c.clock = clock
	return c
}

// DailyClimate returns the daily series for a coordinate. Zero window bounds
// default to the five years ending today.
func (c *Client) DailyClimate(ctx context.Context, lat, lng float64, window domain.DateRange) (domain.ClimateSeries, error) {
	start, end := c.resolveWindow(window)

	params := url.Values{
		"latitude":   {strconv.FormatFloat(lat, 'f', -1, 64)},
		"longitude":  {strconv.FormatFloat(lng, 'f', -1, 64)},
		"start_date": {start.Format(dateLayout)},
		"end_date":   {end.Format(dateLayout)},
		"daily":      {strings.Join(dailyVariables, ",")},
		"timezone":   {"auto"},
	}

	started := c.clock.Now()
	series, err := c.fetch(ctx, c.baseURL+"?"+params.Encode())
	c.metrics.ProviderAPIDuration.WithLabelValues(providerName).Observe(c.clock.Since(started).Seconds())
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues(providerName, "error").Inc()
		c.logger.Warn("climate request failed", "lat", lat, "lng", lng, "error", err)
		return domain.ClimateSeries{}, err
	}
	if len(series.Days) == 0 {
		c.metrics.ProviderRequests.WithLabelValues(providerName, "empty").Inc()
		return series, nil
	}
	c.metrics.ProviderRequests.WithLabelValues(providerName, "success").Inc()
	return series, nil
}

func (c *Client) resolveWindow(window domain.DateRange) (time.Time, time.Time) {
	end := window.End
	if end.IsZero() {
		end = c.clock.Now()
	}
	start := window.Start
	if start.IsZero() {
		start = c.clock.Now().AddDate(-defaultWindowYears, 0, 0)
	}
	return start, end
}

func (c *Client) fetch(ctx context.Context, fullURL string) (domain.ClimateSeries, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.ClimateSeries{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ClimateSeries{}, fmt.Errorf("open-meteo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.ClimateSeries{}, fmt.Errorf("open-meteo API error: status %d: %s", resp.StatusCode, body)
	}

	var raw response
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return domain.ClimateSeries{}, fmt.Errorf("decode response: %w", err)
	}
	return raw.toSeries()
}

// Open-Meteo API response types. Every daily array is parallel to Time and
// may hold nulls for missing readings.

type response struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Daily     daily   `json:"daily"`
}

type daily struct {
	Time               []string   `json:"time"`
	TemperatureMean    []*float64 `json:"temperature_2m_mean"`
	TemperatureMax     []*float64 `json:"temperature_2m_max"`
	TemperatureMin     []*float64 `json:"temperature_2m_min"`
	PrecipitationSum   []*float64 `json:"precipitation_sum"`
	Evapotranspiration []*float64 `json:"et0_fao_evapotranspiration"`
}

func (r response) toSeries() (domain.ClimateSeries, error) {
	series := domain.ClimateSeries{
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Days:      make([]domain.DailyObservation, 0, len(r.Daily.Time)),
	}
	for i, ts := range r.Daily.Time {
		date, err := time.Parse(dateLayout, ts)
		if err != nil {
			return domain.ClimateSeries{}, fmt.Errorf("parse date %q: %w", ts, err)
		}
		series.Days = append(series.Days, domain.DailyObservation{
			Date:               date,
			TempMean:           at(r.Daily.TemperatureMean, i),
			TempMin:            at(r.Daily.TemperatureMin, i),
			TempMax:            at(r.Daily.TemperatureMax, i),
			Precipitation:      at(r.Daily.PrecipitationSum, i),
			Evapotranspiration: at(r.Daily.Evapotranspiration, i),
		})
	}
	return series, nil
}

// at tolerates arrays shorter than the time axis.
func at(values []*float64, i int) *float64 {
	if i < len(values) {
		return values[i]
	}
	return nil
}
