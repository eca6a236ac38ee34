package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "flood_basket"

// Metrics holds the Prometheus counters, histograms, and gauges for the basket service.
type Metrics struct {
	// Basket metrics.
	BasketRecords       prometheus.Gauge
	RecordsIngested     prometheus.Counter
	RecordsRemoved      prometheus.Counter
	BasketClears        prometheus.Counter
	StorageLoadFailures prometheus.Counter
	StorageSaveFailures prometheus.Counter
	Classifications     *prometheus.CounterVec // labels: tier={LOW,MODERATE,HIGH,EXTREME}
	MalformedFields     *prometheus.CounterVec // labels: field

	// Report metrics.
	ReportCache *prometheus.CounterVec // labels: result={hit,miss}

	// Pipeline metrics.
	MessagesConsumed        prometheus.Counter
	MessagesProduced        prometheus.Counter
	TransformErrors         prometheus.Counter
	PipelineRunning         prometheus.Gauge
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// multiple tests can build their own without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// NewUnregisteredMetrics creates Metrics for short-lived processes, such as
// the CLI, that have no scrape endpoint.
func NewUnregisteredMetrics() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		BasketRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records",
			Help:      "Number of analysis records currently in the basket.",
		}),
		RecordsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_ingested_total",
			Help:      "Total analysis records added to the basket.",
		}),
		RecordsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_removed_total",
			Help:      "Total analysis records removed individually.",
		}),
		BasketClears: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clears_total",
			Help:      "Total confirmed basket clears.",
		}),
		StorageLoadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_load_failures_total",
			Help:      "Storage loads that were missing or corrupt and fell back to an empty basket.",
		}),
		StorageSaveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_save_failures_total",
			Help:      "Failed writes of the basket to its storage slot.",
		}),
		Classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Ingested records by severity tier.",
		}, []string{"tier"}),
		MalformedFields: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_fields_total",
			Help:      "Numeric input fields that failed to parse and were coerced to zero.",
		}, []string{"field"}),
		ReportCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_total",
			Help:      "Assembled report cache lookups by result.",
		}, []string{"result"}),
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total analysis messages read from the source topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Total report messages written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Total messages that could not be ingested.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the ingest pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-ingest-publish cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.BasketRecords,
		m.RecordsIngested,
		m.RecordsRemoved,
		m.BasketClears,
		m.StorageLoadFailures,
		m.StorageSaveFailures,
		m.Classifications,
		m.MalformedFields,
		m.ReportCache,
		m.MessagesConsumed,
		m.MessagesProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
	}
}
