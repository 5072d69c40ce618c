// Package worldbank implements domain.CommodityProvider with World Bank
// indicator series and static market context for fibres without one.
package worldbank

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/beccaRND/ci-fund-intelligence/internal/adapter/ratelimit"
	"github.com/beccaRND/ci-fund-intelligence/internal/domain"
	"github.com/beccaRND/ci-fund-intelligence/internal/observability"
	"github.com/jonboulle/clockwork"
)

const (
	providerName   = "world_bank"
	firstPriceYear = 2019
	priceUnit      = "US cents/lb"
)

// indicators maps commodities with a public World Bank series to its code.
var indicators = map[string]string{
	domain.CommodityCotton: "COTTON_A_INDX",
}

const cottonContext = "Cotton A-Index approximate values. Global cotton production ~25M tonnes annually. " +
	"India is the largest producer. Organic cotton commands 10-20% premiums."

var commodityContext = map[string]string{
	domain.CommodityCashmere: "Mongolia supplies approximately 40% of global cashmere demand. About 80% is exported unprocessed, and roughly 70% of pastureland shows signs of degradation. " +
		"The Sustainable Fibre Alliance (SFA) has certified over 21,500 herders across 17 provinces. Premium certified cashmere commands 10-15% price premiums over conventional.",
	domain.CommodityWool: "Global wool production is approximately 1.1 million tonnes annually. Australia leads production (25%), followed by China (18%). " +
		"Fine merino wool trades at significant premiums, and Wildlife Friendly-certified wool from Patagonia commands 15% premiums. The wool market has seen moderate price recovery since 2020 lows.",
	domain.CommodityLeather: "Global leather industry valued at approximately $400B. The Gran Chaco region in Argentina faces acute deforestation pressure from cattle ranching. " +
		"Sustainable leather certification is emerging but not yet standardized. Leather was dropped from the fund's 2025 eligible commodities list.",
}

// Client fetches commodity price series from the World Bank API.
type Client struct {
	httpClient *ratelimit.Client
	baseURL    string
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a World Bank indicator client.
func NewClient(baseURL string, httpClient *ratelimit.Client, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		clock:      clockwork.NewRealClock(),
		logger:     logger,
		metrics:    metrics,
	}
}

// WithClock replaces the time source that bounds the requested years.
func (c *Client) WithClock(clock clockwork.Clock) *Client {
	c.clock = clock
	return c
}

// CommodityPrices returns the price series for commodities with a public
// indicator and a context paragraph for the rest. A failed cotton lookup
// falls back to approximate published values.
func (c *Client) CommodityPrices(ctx context.Context, commodity string) (domain.CommodityPrices, error) {
	indicator, ok := indicators[commodity]
	if !ok {
		return contextOnly(commodity), nil
	}

	started := c.clock.Now()
	prices, err := c.fetch(ctx, indicator)
	c.metrics.ProviderAPIDuration.WithLabelValues(providerName).Observe(c.clock.Since(started).Seconds())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.CommodityPrices{}, ctxErr
		}
		c.metrics.ProviderRequests.WithLabelValues(providerName, "error").Inc()
		c.logger.Warn("commodity price request failed, using approximate series", "commodity", commodity, "error", err)
		return cottonFallback(), nil
	}
	if len(prices) == 0 {
		c.metrics.ProviderRequests.WithLabelValues(providerName, "empty").Inc()
		return cottonFallback(), nil
	}
	c.metrics.ProviderRequests.WithLabelValues(providerName, "success").Inc()
	return domain.CommodityPrices{Commodity: commodity, Prices: prices, Unit: priceUnit}, nil
}

func (c *Client) fetch(ctx context.Context, indicator string) ([]domain.PricePoint, error) {
	params := url.Values{
		"date":     {fmt.Sprintf("%d:%d", firstPriceYear, c.clock.Now().Year())},
		"format":   {"json"},
		"per_page": {"100"},
	}
	fullURL := fmt.Sprintf("%s/country/WLD/indicator/%s?%s", c.baseURL, url.PathEscape(indicator), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("world bank request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("world bank API error: status %d: %s", resp.StatusCode, body)
	}

	// The API answers [metadata, observations]; errors come back as a single-element array.
	var envelope []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(envelope) < 2 {
		return nil, fmt.Errorf("world bank indicator %s: %w", indicator, domain.ErrNoData)
	}
	var rows []observation
	if err := json.Unmarshal(envelope[1], &rows); err != nil {
		return nil, fmt.Errorf("decode observations: %w", err)
	}
	return toPrices(rows), nil
}

type observation struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

func toPrices(rows []observation) []domain.PricePoint {
	prices := make([]domain.PricePoint, 0, len(rows))
	for _, row := range rows {
		if row.Value == nil {
			continue
		}
		prices = append(prices, domain.PricePoint{Date: row.Date, Price: domain.Round(*row.Value, 2)})
	}
	sort.Slice(prices, func(i, j int) bool { return prices[i].Date < prices[j].Date })
	return prices
}

func contextOnly(commodity string) domain.CommodityPrices {
	text, ok := commodityContext[commodity]
	if !ok {
		text = fmt.Sprintf("No public price data available for %s.", commodity)
	}
	return domain.CommodityPrices{Commodity: commodity, Prices: []domain.PricePoint{}, ContextText: text}
}

// cottonFallback is the approximate Cotton A-Index in US cents/lb.
func cottonFallback() domain.CommodityPrices {
	values := []float64{75.2, 68.4, 102.8, 128.3, 95.7, 88.1}
	prices := make([]domain.PricePoint, len(values))
	for i, v := range values {
		prices[i] = domain.PricePoint{Date: strconv.Itoa(firstPriceYear + i), Price: v}
	}
	return domain.CommodityPrices{
		Commodity:   domain.CommodityCotton,
		Prices:      prices,
		Unit:        priceUnit + " (approximate)",
		ContextText: cottonContext,
	}
}

// Source names the data origin of a price result for response attribution.
func Source(p domain.CommodityPrices) string {
	switch {
	case len(p.Prices) == 0:
		return "Published market reports"
	case p.ContextText != "":
		return "Approximate published market values"
	default:
		return "World Bank Commodity Price Data"
	}
}

