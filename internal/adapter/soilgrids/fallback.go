package soilgrids

import (
	"context"
	"log/slog"

	"github.com/beccaRND/ci-fund-intelligence/internal/domain"
	"github.com/beccaRND/ci-fund-intelligence/internal/observability"
)

// FallbackProvider answers with literature estimates whenever the wrapped
// provider fails. It never returns an error except on context cancellation.
type FallbackProvider struct {
	inner   domain.SoilProvider
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewFallbackProvider wraps a soil provider with the literature fallback.
func NewFallbackProvider(inner domain.SoilProvider, logger *slog.Logger, metrics *observability.Metrics) *FallbackProvider {
	return &FallbackProvider{inner: inner, logger: logger, metrics: metrics}
}

func (f *FallbackProvider) SoilProfile(ctx context.Context, lat, lng float64) (domain.SoilProfile, error) {
	profile, err := f.inner.SoilProfile(ctx, lat, lng)
	if err == nil {
		return profile, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.SoilProfile{}, ctxErr
	}
	f.logger.Warn("soil provider unavailable, using literature estimate", "lat", lat, "lng", lng, "error", err)
	f.metrics.SoilFallbacks.Inc()
	return domain.EstimateSoilProfile(lat, lng), nil
}

// Source names the data origin of a profile for response attribution.
func Source(p domain.SoilProfile) string {
	if p.IsEstimate {
		return "Estimated from published literature (SoilGrids unavailable)"
	}
	return "ISRIC SoilGrids v2.0"
}
