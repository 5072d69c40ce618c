// Package cli implements the landctl subcommands: portfolio ranking,
// checklist scoring, monitoring interpretation and seed file validation.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/beccaRND/ci-fund-intelligence/internal/adapter/cache"
	"github.com/beccaRND/ci-fund-intelligence/internal/adapter/openmeteo"
	"github.com/beccaRND/ci-fund-intelligence/internal/adapter/ratelimit"
	"github.com/beccaRND/ci-fund-intelligence/internal/adapter/soilgrids"
	"github.com/beccaRND/ci-fund-intelligence/internal/config"
	"github.com/beccaRND/ci-fund-intelligence/internal/domain"
	"github.com/beccaRND/ci-fund-intelligence/internal/observability"
)

// env is what every network-backed command needs.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	climate domain.ClimateProvider
	soil    domain.SoilProvider
}

func loadEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := observability.NewLoggerTo(os.Stderr, cfg)
	metrics := observability.NewMetrics()
	httpClient := ratelimit.NewClient(cfg.ProviderTimeout, cfg.ProviderRateLimit, cfg.ProviderRateBurst)

	return &env{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		climate: cache.NewClimateProvider(openmeteo.NewClient(cfg.OpenMeteoURL, httpClient, logger, metrics), cfg.ClimateCacheSize, cfg.ClimateCacheTTL, nil, metrics),
		soil: soilgrids.NewFallbackProvider(
			soilgrids.NewClient(cfg.SoilGridsURL, httpClient, logger, metrics), logger, metrics),
	}, nil
}
