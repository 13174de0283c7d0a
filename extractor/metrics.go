package extractor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for scrape runs.
type Metrics struct {
	Registry      *prometheus.Registry
	RunsTotal     *prometheus.CounterVec
	RunDuration   prometheus.Histogram
	PagesScraped  prometheus.Counter
	MetricMisses  *prometheus.CounterVec
	LoginFailures *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wing_scrape_runs_total",
			Help: "Total scrape runs by outcome.",
		},
		[]string{"outcome"},
	)
	runDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wing_scrape_run_duration_seconds",
			Help:    "Wall time of a full scrape run including login.",
			Buckets: prometheus.ExponentialBuckets(5, 2, 8),
		},
	)
	pages := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wing_pages_scraped_total",
			Help: "Total daily report pages scraped.",
		},
	)
	misses := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wing_metric_misses_total",
			Help: "Metrics left empty because their element was not found.",
		},
		[]string{"field"},
	)
	loginFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wing_login_failures_total",
			Help: "Failed logins by kind.",
		},
		[]string{"kind"},
	)

	registry.MustRegister(runs, runDuration, pages, misses, loginFailures)

	return &Metrics{
		Registry:      registry,
		RunsTotal:     runs,
		RunDuration:   runDuration,
		PagesScraped:  pages,
		MetricMisses:  misses,
		LoginFailures: loginFailures,
	}
}
