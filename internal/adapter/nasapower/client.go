// Package nasapower implements domain.SolarProvider against the NASA POWER
// monthly point API (agroclimatology community).
package nasapower

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

	"github.com/beccaRND/ci-fund-intelligence/internal/adapter/ratelimit"
	"github.com/beccaRND/ci-fund-intelligence/internal/domain"
	"github.com/beccaRND/ci-fund-intelligence/internal/observability"
	"github.com/jonboulle/clockwork"
)

const (
	providerName = "nasa_power"
	windowYears  = 5
	// missingValue is the POWER fill value for months without data.
	missingValue = -999.0

	paramSolar    = "ALLSKY_SFC_SW_DWN"
	paramClearSky = "CLRSKY_DAYS"
	paramWind     = "WS2M"
)

// Client fetches long-term solar and wind averages.
type Client struct {
	httpClient *ratelimit.Client
	baseURL    string
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a NASA POWER client.
func NewClient(baseURL string, httpClient *ratelimit.Client, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		clock:      clockwork.NewRealClock(),
		logger:     logger,
		metrics:    metrics,
	}
}

// WithClock replaces the time source that picks the averaging years.
func (c *Client) WithClock(clock clockwork.Clock) *Client {
	c.clock = clock
	return c
}

// SolarConditions averages the monthly values of the last five full years.
func (c *Client) SolarConditions(ctx context.Context, lat, lng float64) (domain.SolarConditions, error) {
	endYear := c.clock.Now().Year() - 1
	params := url.Values{
		"parameters": {strings.Join([]string{paramSolar, paramClearSky, paramWind}, ",")},
		"community":  {"AG"},
		"latitude":   {strconv.FormatFloat(lat, 'f', -1, 64)},
		"longitude":  {strconv.FormatFloat(lng, 'f', -1, 64)},
		"start":      {strconv.Itoa(endYear - windowYears + 1)},
		"end":        {strconv.Itoa(endYear)},
		"format":     {"JSON"},
	}

	started := c.clock.Now()
	parameters, err := c.fetch(ctx, c.baseURL+"?"+params.Encode())
	c.metrics.ProviderAPIDuration.WithLabelValues(providerName).Observe(c.clock.Since(started).Seconds())
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues(providerName, "error").Inc()
		c.logger.Warn("solar request failed", "lat", lat, "lng", lng, "error", err)
		return domain.SolarConditions{}, err
	}
	c.metrics.ProviderRequests.WithLabelValues(providerName, "success").Inc()

	return domain.SolarConditions{
		SolarRadiation: averageMonthly(parameters[paramSolar]),
		ClearSkyDays:   averageMonthly(parameters[paramClearSky]),
		WindSpeed:      averageMonthly(parameters[paramWind]),
	}, nil
}

func (c *Client) fetch(ctx context.Context, fullURL string) (map[string]map[string]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nasa power request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("nasa power API error: status %d: %s", resp.StatusCode, body)
	}

	var raw response
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if raw.Properties.Parameter == nil {
		return nil, fmt.Errorf("nasa power parameters: %w", domain.ErrNoData)
	}
	return raw.Properties.Parameter, nil
}

type response struct {
	Properties struct {
		// parameter name -> YYYYMM (or YYYY13 for the annual value) -> value
		Parameter map[string]map[string]float64 `json:"parameter"`
	} `json:"properties"`
}

// averageMonthly returns the mean of all non-fill values, 2dp.
func averageMonthly(values map[string]float64) float64 {
	var sum float64
	var n int
	for _, v := range values {
		if v == missingValue {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	return domain.Round(sum/float64(n), 2)
}
