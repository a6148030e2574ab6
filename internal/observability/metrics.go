package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the ingestion pipeline.
type Metrics struct {
	PointsExtracted prometheus.Counter
	PointsLoaded    prometheus.Counter
	LoadErrors      prometheus.Counter
	FilesProcessed  prometheus.Counter
	PipelineRunning prometheus.Gauge

	CommitDuration     prometheus.Histogram
	FileIngestDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		PointsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "xco2_etl",
			Name:      "points_extracted_total",
			Help:      "Total soundings read and normalized from dataset files.",
		}),
		PointsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "xco2_etl",
			Name:      "points_loaded_total",
			Help:      "Total records committed to the sink.",
		}),
		LoadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "xco2_etl",
			Name:      "load_errors_total",
			Help:      "Total ingestions aborted by an extraction or persistence error.",
		}),
		FilesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "xco2_etl",
			Name:      "files_processed_total",
			Help:      "Total dataset files fully ingested.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "xco2_etl",
			Name:      "pipeline_running",
			Help:      "1 while an ingestion is in progress, 0 otherwise.",
		}),
		CommitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "xco2_etl",
			Name:      "commit_duration_seconds",
			Help:      "Duration of a single-record add and commit.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5},
		}),
		FileIngestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "xco2_etl",
			Name:      "file_ingest_duration_seconds",
			Help:      "Duration of a complete open-extract-load-close cycle for one file.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
	}

	prometheus.MustRegister(
		m.PointsExtracted,
		m.PointsLoaded,
		m.LoadErrors,
		m.FilesProcessed,
		m.PipelineRunning,
		m.CommitDuration,
		m.FileIngestDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		PointsExtracted:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "xco2_etl", Name: "points_extracted_total"}),
		PointsLoaded:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "xco2_etl", Name: "points_loaded_total"}),
		LoadErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "xco2_etl", Name: "load_errors_total"}),
		FilesProcessed:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "xco2_etl", Name: "files_processed_total"}),
		PipelineRunning:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "xco2_etl", Name: "pipeline_running"}),
		CommitDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "xco2_etl", Name: "commit_duration_seconds"}),
		FileIngestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "xco2_etl", Name: "file_ingest_duration_seconds"}),
	}
}
