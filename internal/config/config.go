package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

const maxPortfolioBatchSize = 32

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr           string
	LogLevel           string
	LogFormat          string
	ShutdownTimeout    time.Duration
	CORSAllowedOrigins []string

	// Portfolio ranking.
	PortfolioBatchSize       int
	PortfolioRefreshInterval time.Duration
	ProjectsFile             string

	// Upstream data providers.
	ProviderTimeout   time.Duration
	ProviderRateLimit float64
	ProviderRateBurst int
	OpenMeteoURL      string
	SoilGridsURL      string
	WorldBankURL      string
	NASAPowerURL      string
	ClimateCacheSize  int
	SoilCacheSize     int
	ClimateCacheTTL   time.Duration
	SoilCacheTTL      time.Duration

	// Assessment publishing.
	KafkaEnabled         bool
	KafkaBrokers         []string
	KafkaAssessmentTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	providerTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("PROVIDER_TIMEOUT", "15s"))
	if err != nil || providerTimeout <= 0 {
		return nil, errors.New("invalid PROVIDER_TIMEOUT")
	}

	batchSize, err := positiveInt("PORTFOLIO_BATCH_SIZE", 4)
	if err != nil {
		return nil, err
	}
	if batchSize > maxPortfolioBatchSize {
		return nil, fmt.Errorf("PORTFOLIO_BATCH_SIZE must be at most %d", maxPortfolioBatchSize)
	}

	refreshInterval, err := time.ParseDuration(sharedcfg.EnvOrDefault("PORTFOLIO_REFRESH_INTERVAL", "24h"))
	if err != nil || refreshInterval < 0 {
		return nil, errors.New("invalid PORTFOLIO_REFRESH_INTERVAL")
	}

	climateTTL, err := time.ParseDuration(sharedcfg.EnvOrDefault("CLIMATE_CACHE_TTL", "24h"))
	if err != nil || climateTTL < 0 {
		return nil, errors.New("invalid CLIMATE_CACHE_TTL")
	}
	soilTTL, err := time.ParseDuration(sharedcfg.EnvOrDefault("SOIL_CACHE_TTL", "168h"))
	if err != nil || soilTTL < 0 {
		return nil, errors.New("invalid SOIL_CACHE_TTL")
	}

	rateLimit, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("PROVIDER_RATE_LIMIT", "5"), 64)
	if err != nil || rateLimit <= 0 {
		return nil, errors.New("invalid PROVIDER_RATE_LIMIT")
	}
	rateBurst, err := positiveInt("PROVIDER_RATE_BURST", 5)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = sharedcfg.ParseBrokers(raw)
	}
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		CORSAllowedOrigins: splitList(sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),

		PortfolioBatchSize:       batchSize,
		PortfolioRefreshInterval: refreshInterval,
		ProjectsFile:             sharedcfg.EnvOrDefault("PROJECTS_FILE", "data/projects.yaml"),

		ProviderTimeout:   providerTimeout,
		ProviderRateLimit: rateLimit,
		ProviderRateBurst: rateBurst,
		OpenMeteoURL:      sharedcfg.EnvOrDefault("OPEN_METEO_URL", "https://archive-api.open-meteo.com/v1/archive"),
		SoilGridsURL:      sharedcfg.EnvOrDefault("SOILGRIDS_URL", "https://rest.isric.org/soilgrids/v2.0/properties/query"),
		WorldBankURL:      sharedcfg.EnvOrDefault("WORLDBANK_URL", "https://api.worldbank.org/v2"),
		NASAPowerURL:      sharedcfg.EnvOrDefault("NASA_POWER_URL", "https://power.larc.nasa.gov/api/temporal/monthly/point"),
		ClimateCacheSize:  cacheSize("CLIMATE_CACHE_SIZE"),
		SoilCacheSize:     cacheSize("SOIL_CACHE_SIZE"),
		ClimateCacheTTL:   climateTTL,
		SoilCacheTTL:      soilTTL,

		KafkaEnabled:         kafkaEnabled,
		KafkaBrokers:         brokers,
		KafkaAssessmentTopic: sharedcfg.EnvOrDefault("KAFKA_ASSESSMENT_TOPIC", "restoration-assessments"),
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaAssessmentTopic == "" {
		return nil, errors.New("KAFKA_ASSESSMENT_TOPIC is required")
	}

	return cfg, nil
}

func positiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func cacheSize(key string) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 256
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
