package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ci_fund"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Upstream data provider metrics.
	ProviderRequests    *prometheus.CounterVec   // labels: provider={open_meteo,soilgrids,world_bank,nasa_power}, outcome={success,error,empty}
	ProviderAPIDuration *prometheus.HistogramVec // labels: provider
	ProviderCache       *prometheus.CounterVec   // labels: provider, result={hit,miss}
	SoilFallbacks       prometheus.Counter

	// Portfolio ranking metrics.
	AssessmentsComputed  prometheus.Counter
	AssessmentFailures   prometheus.Counter
	PortfolioDuration    prometheus.Histogram
	AssessmentsPublished prometheus.Counter
	PortfolioRunning     prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Upstream data provider requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_api_duration_seconds",
			Help:      "Upstream data provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"provider"}),
		ProviderCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_cache_total",
			Help:      "Provider cache lookups by provider and result.",
		}, []string{"provider", "result"}),
		SoilFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "soil_fallbacks_total",
			Help:      "Soil lookups answered with literature estimates.",
		}),
		AssessmentsComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_computed_total",
			Help:      "Degradation assessments computed by the portfolio ranker.",
		}),
		AssessmentFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessment_failures_total",
			Help:      "Projects the portfolio ranker could not assess.",
		}),
		PortfolioDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "portfolio_run_duration_seconds",
			Help:      "Duration of a complete portfolio ranking run.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		AssessmentsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_published_total",
			Help:      "Ranked assessments written to the assessment topic.",
		}),
		PortfolioRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "portfolio_running",
			Help:      "1 while a portfolio ranking run is in progress.",
		}),
	}

	prometheus.MustRegister(
		m.ProviderRequests,
		m.ProviderAPIDuration,
		m.ProviderCache,
		m.SoilFallbacks,
		m.AssessmentsComputed,
		m.AssessmentFailures,
		m.PortfolioDuration,
		m.AssessmentsPublished,
		m.PortfolioRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ProviderRequests:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "provider_requests_total"}, []string{"provider", "outcome"}),
		ProviderAPIDuration:  prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: "provider_api_duration_seconds"}, []string{"provider"}),
		ProviderCache:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "provider_cache_total"}, []string{"provider", "result"}),
		SoilFallbacks:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "soil_fallbacks_total"}),
		AssessmentsComputed:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "assessments_computed_total"}),
		AssessmentFailures:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "assessment_failures_total"}),
		PortfolioDuration:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "portfolio_run_duration_seconds"}),
		AssessmentsPublished: prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "assessments_published_total"}),
		PortfolioRunning:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "portfolio_running"}),
	}
}
