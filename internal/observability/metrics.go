package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for map runs.
type Metrics struct {
	// Fetch metrics.
	FetchRequests *prometheus.CounterVec   // labels: family, outcome={success,error}
	FetchDuration *prometheus.HistogramVec // labels: family

	// Normalization metrics.
	RecordsNormalized   *prometheus.CounterVec // labels: family
	RecordsWithoutCoord *prometheus.CounterVec // labels: family
	Categories          *prometheus.GaugeVec   // labels: family

	// Rendering metrics.
	MarkersRendered *prometheus.GaugeVec   // labels: family
	RunsTotal       *prometheus.CounterVec // labels: outcome={success,error}
	RunDuration     prometheus.Histogram
	LastSuccess     prometheus.Gauge

	// Export metrics.
	RecordsPublished prometheus.Counter
	PublishErrors    prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := NewMetricsForTesting()

	prometheus.MustRegister(
		m.FetchRequests,
		m.FetchDuration,
		m.RecordsNormalized,
		m.RecordsWithoutCoord,
		m.Categories,
		m.MarkersRendered,
		m.RunsTotal,
		m.RunDuration,
		m.LastSuccess,
		m.RecordsPublished,
		m.PublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plantmap",
			Name:      "fetch_requests_total",
			Help:      "Dataset fetches by family and outcome.",
		}, []string{"family", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "plantmap",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a count-then-fetch round trip.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"family"}),
		RecordsNormalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plantmap",
			Name:      "records_normalized_total",
			Help:      "Rows produced by the normalizer.",
		}, []string{"family"}),
		RecordsWithoutCoord: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plantmap",
			Name:      "records_without_coordinates_total",
			Help:      "Rows kept in the table but skipped on the map.",
		}, []string{"family"}),
		Categories: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "plantmap",
			Name:      "categories",
			Help:      "Distinct categories seen in the last run.",
		}, []string{"family"}),
		MarkersRendered: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "plantmap",
			Name:      "markers_rendered",
			Help:      "Markers placed on the last rendered map.",
		}, []string{"family"}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plantmap",
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "plantmap",
			Name:      "run_duration_seconds",
			Help:      "Duration of a full fetch-normalize-render run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "plantmap",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plantmap",
			Name:      "records_published_total",
			Help:      "Normalized records written to the export topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plantmap",
			Name:      "publish_errors_total",
			Help:      "Failed export batches.",
		}),
	}
}
