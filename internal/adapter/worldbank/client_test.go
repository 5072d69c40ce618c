package worldbank

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/beccaRND/ci-fund-intelligence/internal/adapter/ratelimit"
	"github.com/beccaRND/ci-fund-intelligence/internal/domain"
	"github.com/beccaRND/ci-fund-intelligence/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string) *Client {
	c := NewClient(baseURL, ratelimit.NewClient(5*time.Second, 100, 10),
		slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
	return c.WithClock(clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
}

func TestClient_CottonSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/country/WLD/indicator/COTTON_A_INDX", r.URL.Path)
		assert.Equal(t, "2019:2025", r.URL.Query().Get("date"))
		_, _ = io.WriteString(w, `[
			{"page":1,"pages":1,"total":3},
			[
				{"date":"2023","value":95.6789},
				{"date":"2021","value":102.8},
				{"date":"2022","value":null}
			]
		]`)
	}))
	defer srv.Close()

	p, err := testClient(srv.URL).CommodityPrices(context.Background(), domain.CommodityCotton)
	require.NoError(t, err)

	assert.Equal(t, []domain.PricePoint{{Date: "2021", Price: 102.8}, {Date: "2023", Price: 95.68}}, p.Prices)
	assert.Equal(t, "US cents/lb", p.Unit)
	assert.Empty(t, p.ContextText)
	assert.Equal(t, "World Bank Commodity Price Data", Source(p))
}

func TestClient_CottonFallbackOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p, err := testClient(srv.URL).CommodityPrices(context.Background(), domain.CommodityCotton)
	require.NoError(t, err)

	require.Len(t, p.Prices, 6)
	assert.Equal(t, domain.PricePoint{Date: "2019", Price: 75.2}, p.Prices[0])
	assert.Equal(t, domain.PricePoint{Date: "2024", Price: 88.1}, p.Prices[5])
	assert.Equal(t, "US cents/lb (approximate)", p.Unit)
	assert.NotEmpty(t, p.ContextText)
	assert.Equal(t, "Approximate published market values", Source(p))
}

func TestClient_CottonFallbackOnMessageEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"message":[{"id":"175","value":"Invalid format"}]}]`)
	}))
	defer srv.Close()

	p, err := testClient(srv.URL).CommodityPrices(context.Background(), domain.CommodityCotton)
	require.NoError(t, err)
	assert.Len(t, p.Prices, 6)
}

func TestClient_ContextOnlyCommodities(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected for context-only commodities")
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	for _, commodity := range []string{domain.CommodityWool, domain.CommodityCashmere, domain.CommodityLeather} {
		p, err := c.CommodityPrices(context.Background(), commodity)
		require.NoError(t, err)
		assert.Empty(t, p.Prices, commodity)
		assert.Equal(t, commodityContext[commodity], p.ContextText)
		assert.Equal(t, "Published market reports", Source(p))
	}

	p, err := c.CommodityPrices(context.Background(), "alpaca")
	require.NoError(t, err)
	assert.Equal(t, "No public price data available for alpaca.", p.ContextText)
}
