// Package pipeline orchestrates the provider-backed computations: portfolio
// ranking, location profiles, monitoring context analysis and publishing of
// ranked assessments.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/beccaRND/ci-fund-intelligence/internal/domain"
	"github.com/beccaRND/ci-fund-intelligence/internal/observability"
)

const (
	initialBackoff     = 200 * time.Millisecond
	maxBackoff         = 5 * time.Second
	maxPublishAttempts = 5
)

// ProjectSource supplies the portfolio to rank.
type ProjectSource interface {
	Projects() []domain.Project
}

// Publisher delivers a ranked portfolio downstream.
type Publisher interface {
	Publish(ctx context.Context, result PortfolioResult) error
}

// Portfolio keeps the latest ranking of a project portfolio, refreshing it
// on an interval and publishing each run.
type Portfolio struct {
	source    ProjectSource
	ranker    *Ranker
	publisher Publisher // nil disables publishing
	interval  time.Duration
	logger    *slog.Logger
	metrics   *observability.Metrics

	refreshMu  sync.Mutex
	generation atomic.Uint64 // completed, stored runs
	latest     atomic.Pointer[PortfolioResult]
}

// NewPortfolio creates a Portfolio. Pass a nil publisher to skip publishing
// and a zero interval to rank only once per Run.
func NewPortfolio(source ProjectSource, ranker *Ranker, publisher Publisher, interval time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Portfolio {
	return &Portfolio{
		source:    source,
		ranker:    ranker,
		publisher: publisher,
		interval:  interval,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once a ranking run has assessed at least one project.
func (p *Portfolio) CheckReadiness(_ context.Context) error {
	latest := p.latest.Load()
	if latest == nil {
		return errors.New("portfolio has not been ranked yet")
	}
	if latest.SuccessCount == 0 {
		return errors.New("last portfolio run assessed no projects")
	}
	return nil
}

// Latest returns the most recent ranking, if any.
func (p *Portfolio) Latest() (PortfolioResult, bool) {
	latest := p.latest.Load()
	if latest == nil {
		return PortfolioResult{}, false
	}
	return *latest, true
}

// Refresh ranks the portfolio now, stores the result and publishes it.
// Callers that queue behind a running refresh share its result instead of
// ranking again. A run whose context ends before it finishes is discarded
// and the previous ranking is returned.
func (p *Portfolio) Refresh(ctx context.Context) PortfolioResult {
	gen := p.generation.Load()
	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	if p.generation.Load() != gen {
		if latest, ok := p.Latest(); ok {
			return latest
		}
	}

	result := p.ranker.Rank(ctx, p.source.Projects())
	if err := ctx.Err(); err != nil {
		p.logger.Warn("portfolio ranking interrupted, keeping previous result", "run_id", result.RunID, "error", err)
		if latest, ok := p.Latest(); ok {
			return latest
		}
		return result
	}
	p.latest.Store(&result)
	p.generation.Add(1)

	if p.publisher != nil && len(result.Assessments) > 0 {
		if err := p.publishWithRetry(ctx, result); err != nil {
			p.logger.Error("publish assessments failed", "run_id", result.RunID, "error", err)
		}
	}
	return result
}

// Run ranks the portfolio immediately and then on every interval until the
// context is cancelled.
func (p *Portfolio) Run(ctx context.Context) error {
	p.logger.Info("portfolio refresher started", "interval", p.interval)
	p.metrics.PortfolioRunning.Set(1)
	defer p.metrics.PortfolioRunning.Set(0)

	p.Refresh(ctx)
	if p.interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("portfolio refresher stopping", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			p.Refresh(ctx)
		}
	}
}

// publishWithRetry retries with capped exponential backoff until the publish
// succeeds, the attempts run out or the context ends.
func (p *Portfolio) publishWithRetry(ctx context.Context, result PortfolioResult) error {
	backoff := initialBackoff
	var err error
	for attempt := 1; attempt <= maxPublishAttempts; attempt++ {
		if err = p.publisher.Publish(ctx, result); err == nil {
			p.metrics.AssessmentsPublished.Add(float64(len(result.Assessments)))
			return nil
		}
		p.logger.Warn("publish attempt failed", "run_id", result.RunID, "attempt", attempt, "error", err)
		if attempt == maxPublishAttempts || !sleepWithContext(ctx, backoff) {
			break
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
	return err
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
