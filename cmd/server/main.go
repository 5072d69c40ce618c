package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/beccaRND/ci-fund-intelligence/internal/adapter/cache"
	httpadapter "github.com/beccaRND/ci-fund-intelligence/internal/adapter/http"
	kafkaadapter "github.com/beccaRND/ci-fund-intelligence/internal/adapter/kafka"
	"github.com/beccaRND/ci-fund-intelligence/internal/adapter/nasapower"
	"github.com/beccaRND/ci-fund-intelligence/internal/adapter/openmeteo"
	"github.com/beccaRND/ci-fund-intelligence/internal/adapter/ratelimit"
	"github.com/beccaRND/ci-fund-intelligence/internal/adapter/seed"
	"github.com/beccaRND/ci-fund-intelligence/internal/adapter/soilgrids"
	"github.com/beccaRND/ci-fund-intelligence/internal/adapter/worldbank"
	"github.com/beccaRND/ci-fund-intelligence/internal/config"
	"github.com/beccaRND/ci-fund-intelligence/internal/observability"
	"github.com/beccaRND/ci-fund-intelligence/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	projects, err := seed.LoadFile(cfg.ProjectsFile)
	if err != nil {
		logger.Error("failed to load projects", "path", cfg.ProjectsFile, "error", err)
		os.Exit(1)
	}
	logger.Info("projects loaded", "count", projects.Len(), "path", cfg.ProjectsFile)

	// All providers share one adaptive rate limiter.
	httpClient := ratelimit.NewClient(cfg.ProviderTimeout, cfg.ProviderRateLimit, cfg.ProviderRateBurst)

	climate := cache.NewClimateProvider(
		openmeteo.NewClient(cfg.OpenMeteoURL, httpClient, logger, metrics),
		cfg.ClimateCacheSize, cfg.ClimateCacheTTL, nil, metrics)
	soil := soilgrids.NewFallbackProvider(
		cache.NewSoilProvider(soilgrids.NewClient(cfg.SoilGridsURL, httpClient, logger, metrics), cfg.SoilCacheSize, cfg.SoilCacheTTL, nil, metrics),
		logger, metrics)
	commodity := worldbank.NewClient(cfg.WorldBankURL, httpClient, logger, metrics)
	solar := nasapower.NewClient(cfg.NASAPowerURL, httpClient, logger, metrics)

	// Initialize assessment publishing (feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS).
	var publisher pipeline.Publisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPublisher
		logger.Info("assessment publishing enabled", "topic", cfg.KafkaAssessmentTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("assessment publishing disabled")
	}

	ranker := pipeline.NewRanker(climate, soil, cfg.PortfolioBatchSize, logger, metrics)
	portfolio := pipeline.NewPortfolio(projects, ranker, publisher, cfg.PortfolioRefreshInterval, logger, metrics)

	api := &httpadapter.API{
		Climate:   climate,
		Soil:      soil,
		Commodity: commodity,
		Profiles:  pipeline.NewAggregator(climate, soil, commodity, solar, logger),
		Analyzer:  pipeline.NewAnalyzer(climate),
		Landscape: portfolio,
		Projects:  projects,
		Logger:    logger,
	}
	srv := httpadapter.NewServer(cfg.HTTPAddr, portfolio, api, cfg.CORSAllowedOrigins, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start portfolio refresher.
	refresherDone := make(chan struct{})
	go func() {
		defer close(refresherDone)
		if err := portfolio.Run(ctx); err != nil {
			logger.Error("portfolio refresher error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-refresherDone:
	case <-shutdownCtx.Done():
		logger.Warn("portfolio refresher did not stop before shutdown timeout")
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
