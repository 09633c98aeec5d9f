package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingestion and build pipeline.
type Metrics struct {
	// Window-level ingestion metrics.
	WindowsProcessed *prometheus.CounterVec // labels: outcome={fetched,cache_hit,failed}
	CacheCorruption  prometheus.Counter
	FetchDuration    prometheus.Histogram

	// Flatten/build metrics.
	RowsFlattened        prometheus.Counter
	BuildDuration        prometheus.Histogram
	DuplicateApproachIDs prometheus.Gauge

	// Orbit enrichment metrics.
	OrbitLookups *prometheus.CounterVec // labels: outcome={fetched,cache_hit,failed}

	PipelineRunning prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.WindowsProcessed,
		m.CacheCorruption,
		m.FetchDuration,
		m.RowsFlattened,
		m.BuildDuration,
		m.DuplicateApproachIDs,
		m.OrbitLookups,
		m.PipelineRunning,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		WindowsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "neo_etl",
			Name:      "windows_processed_total",
			Help:      "Fetch windows processed, by outcome.",
		}, []string{"outcome"}),
		CacheCorruption: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neo_etl",
			Name:      "cache_corruption_total",
			Help:      "Cache entries that failed decoding or schema validation.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "neo_etl",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of one feed window fetch including retries.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		RowsFlattened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neo_etl",
			Name:      "rows_flattened_total",
			Help:      "Flat (object, approach) rows emitted by the normalizer.",
		}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "neo_etl",
			Name:      "build_duration_seconds",
			Help:      "Duration of a complete table build.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		DuplicateApproachIDs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "neo_etl",
			Name:      "duplicate_approach_ids",
			Help:      "Distinct colliding approach_id values found by the last build.",
		}),
		OrbitLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "neo_etl",
			Name:      "orbit_lookups_total",
			Help:      "Orbit lookup requests, by outcome.",
		}, []string{"outcome"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "neo_etl",
			Name:      "pipeline_running",
			Help:      "1 while an ingestion run is active, 0 otherwise.",
		}),
	}
}
