// Package ratelimit provides the rate-limited HTTP client shared by the
// upstream data provider adapters.
package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Client wraps an *http.Client with a token-bucket limiter. The rate halves
// after a 429 response, down to a quarter of the initial rate, and recovers
// by 20% per success up to the initial rate.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter

	mu          sync.Mutex
	initialRate rate.Limit
	minRate     rate.Limit
	currentRate rate.Limit
}

// NewClient creates a client allowing perSecond requests with the given burst.
func NewClient(timeout time.Duration, perSecond float64, burst int) *Client {
	r := rate.Limit(perSecond)
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     rate.NewLimiter(r, burst),
		initialRate: r,
		minRate:     r / 4,
		currentRate: r,
	}
}

// Do waits for the limiter and then sends the request.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if err := c.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		c.onRateLimited()
	} else {
		c.onSuccess()
	}
	return resp, nil
}

// Wait blocks until the limiter allows an event or ctx is done.
func (c *Client) Wait(ctx context.Context) error {
	return c.limiter.Wait(ctx)
}

// Limit returns the current request rate.
func (c *Client) Limit() rate.Limit {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentRate
}

func (c *Client) onRateLimited() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setRate(max(c.currentRate*0.5, c.minRate))
}

func (c *Client) onSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.currentRate < c.initialRate {
		c.setRate(min(c.currentRate*1.2, c.initialRate))
	}
}

func (c *Client) setRate(r rate.Limit) {
	c.currentRate = r
	c.limiter.SetLimit(r)
}
