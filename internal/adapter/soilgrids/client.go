// Package soilgrids implements domain.SoilProvider against the ISRIC
// SoilGrids v2 properties API.
package soilgrids

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
)

const providerName = "soilgrids"

var properties = []string{"soc", "phh2o", "sand", "silt", "clay", "bdod", "cec"}

// Client fetches and converts SoilGrids layer means.
type Client struct {
	httpClient *ratelimit.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a SoilGrids client.
func NewClient(baseURL string, httpClient *ratelimit.Client, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     logger,
		metrics:    metrics,
	}
}

// SoilProfile returns the converted 0-30 cm soil profile at a coordinate.
func (c *Client) SoilProfile(ctx context.Context, lat, lng float64) (domain.SoilProfile, error) {
	params := url.Values{
		"lat":   {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":   {strconv.FormatFloat(lng, 'f', -1, 64)},
		"depth": {strings.Join(domain.SoilDepthBands, ",")},
		"value": {"mean"},
	}
	for _, p := range properties {
		params.Add("property", p)
	}

	started := time.Now()
	raw, err := c.fetch(ctx, c.baseURL+"?"+params.Encode())
	c.metrics.ProviderAPIDuration.WithLabelValues(providerName).Observe(time.Since(started).Seconds())
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues(providerName, "error").Inc()
		return domain.SoilProfile{}, err
	}
	if len(raw.Properties.Layers) == 0 {
		c.metrics.ProviderRequests.WithLabelValues(providerName, "empty").Inc()
		return domain.SoilProfile{}, fmt.Errorf("soilgrids at %.4f,%.4f: %w", lat, lng, domain.ErrNoData)
	}
	c.metrics.ProviderRequests.WithLabelValues(providerName, "success").Inc()
	return processLayers(raw.Properties.Layers), nil
}

func (c *Client) fetch(ctx context.Context, fullURL string) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return response{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("soilgrids request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return response{}, fmt.Errorf("soilgrids API error: status %d: %s", resp.StatusCode, body)
	}

	var raw response
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return response{}, fmt.Errorf("decode response: %w", err)
	}
	return raw, nil
}

// SoilGrids API response types.

type response struct {
	Properties struct {
		Layers []layer `json:"layers"`
	} `json:"properties"`
}

type layer struct {
	Name   string  `json:"name"`
	Depths []depth `json:"depths"`
}

type depth struct {
	Label  string `json:"label"`
	Values struct {
		Mean *float64 `json:"mean"`
	} `json:"values"`
}
