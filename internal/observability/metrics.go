package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// data-prep batch runs.
type Metrics struct {
	FilesProcessed prometheus.Counter
	FilesFailed    prometheus.Counter
	RunActive      prometheus.Gauge

	// Per-output metrics.
	OutputFiles *prometheus.CounterVec // labels: resolution={monthly,seasonal,yearly,mixed}
	PlanEntries prometheus.Histogram

	// External statistics tool metrics.
	CDOInvocations *prometheus.CounterVec   // labels: operator, outcome={success,error}
	CDODuration    *prometheus.HistogramVec // labels: operator
}

// NewMetrics creates and registers all run metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FilesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dataprep",
			Name:      "files_processed_total",
			Help:      "Total input files processed to completion.",
		}),
		FilesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dataprep",
			Name:      "files_failed_total",
			Help:      "Total input files that failed processing.",
		}),
		RunActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dataprep",
			Name:      "run_active",
			Help:      "1 while a batch run is in progress, 0 otherwise.",
		}),
		OutputFiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dataprep",
			Name:      "output_files_total",
			Help:      "Output files written, by time resolution.",
		}, []string{"resolution"}),
		PlanEntries: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dataprep",
			Name:      "plan_entries",
			Help:      "Number of aggregation plan entries per input file and period.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		}),
		CDOInvocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dataprep",
			Name:      "cdo_invocations_total",
			Help:      "CDO subprocess invocations by operator and outcome.",
		}, []string{"operator", "outcome"}),
		CDODuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dataprep",
			Name:      "cdo_duration_seconds",
			Help:      "CDO subprocess duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}, []string{"operator"}),
	}

	prometheus.MustRegister(
		m.FilesProcessed,
		m.FilesFailed,
		m.RunActive,
		m.OutputFiles,
		m.PlanEntries,
		m.CDOInvocations,
		m.CDODuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FilesProcessed: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "dataprep", Name: "files_processed_total"}),
		FilesFailed:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "dataprep", Name: "files_failed_total"}),
		RunActive:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "dataprep", Name: "run_active"}),
		OutputFiles:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "dataprep", Name: "output_files_total"}, []string{"resolution"}),
		PlanEntries:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "dataprep", Name: "plan_entries"}),
		CDOInvocations: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "dataprep", Name: "cdo_invocations_total"}, []string{"operator", "outcome"}),
		CDODuration:    prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "dataprep", Name: "cdo_duration_seconds"}, []string{"operator"}),
	}
}
