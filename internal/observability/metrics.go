package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// Quick Stats ETL pipeline.
type Metrics struct {
	RecordsFetched  prometheus.Counter
	RecordsDropped  *prometheus.CounterVec // labels: reason={filtered,redacted,incomplete_pair}
	RowsProduced    prometheus.Counter
	FetchErrors     prometheus.Counter
	PipelineRunning prometheus.Gauge

	FetchDuration prometheus.Histogram
	CycleDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RecordsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quickstats_etl",
			Name:      "records_fetched_total",
			Help:      "Total raw records returned by the Quick Stats API.",
		}),
		RecordsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quickstats_etl",
			Name:      "records_dropped_total",
			Help:      "Raw records excluded during normalization, by reason.",
		}, []string{"reason"}),
		RowsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quickstats_etl",
			Name:      "rows_produced_total",
			Help:      "Normalized county/year rows handed to the sinks.",
		}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quickstats_etl",
			Name:      "fetch_errors_total",
			Help:      "Failed Quick Stats API calls.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quickstats_etl",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quickstats_etl",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of one Quick Stats API call.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quickstats_etl",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete fetch-normalize-load cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}

	prometheus.MustRegister(
		m.RecordsFetched,
		m.RecordsDropped,
		m.RowsProduced,
		m.FetchErrors,
		m.PipelineRunning,
		m.FetchDuration,
		m.CycleDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RecordsFetched:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quickstats_etl", Name: "records_fetched_total"}),
		RecordsDropped:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "quickstats_etl", Name: "records_dropped_total"}, []string{"reason"}),
		RowsProduced:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quickstats_etl", Name: "rows_produced_total"}),
		FetchErrors:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quickstats_etl", Name: "fetch_errors_total"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "quickstats_etl", Name: "pipeline_running"}),
		FetchDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "quickstats_etl", Name: "fetch_duration_seconds"}),
		CycleDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "quickstats_etl", Name: "cycle_duration_seconds"}),
	}
}
