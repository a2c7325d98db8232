package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "msg1_etl"

// Record error kinds used as the "kind" label of RecordErrors.
const (
	KindUnknownCategory = "unknown_category"
	KindMalformed       = "malformed"
	KindOther           = "other"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the extraction pipeline.
type Metrics struct {
	SourceUnits      prometheus.Counter
	SourceFailures   prometheus.Counter
	RecordsExtracted prometheus.Counter
	RecordErrors     *prometheus.CounterVec // labels: kind={unknown_category,malformed,other}
	SyncSkipped      prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Accumulator metrics.
	RecordsDropped prometheus.Counter
	ChunksFlushed  prometheus.Counter
	EmptyChunks    prometheus.Counter
	ChunkRows      prometheus.Histogram

	UnitScanDuration prometheus.Histogram
	RowsSaved        *prometheus.CounterVec // labels: key={3,4,5,6,7,9,all}

	// Remote collection metrics.
	RemoteRequests    *prometheus.CounterVec // labels: outcome={success,error,not_found}
	RemoteCache       *prometheus.CounterVec // labels: result={hit,miss}
	RemoteAPIDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// tests can build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		SourceUnits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_units_total",
			Help:      "Monthly payloads read from archives.",
		}),
		SourceFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_failures_total",
			Help:      "Archives or payloads that could not be read or decompressed.",
		}),
		RecordsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_extracted_total",
			Help:      "Records decoded into rows.",
		}),
		RecordErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_errors_total",
			Help:      "Synced records that failed to decode, by kind.",
		}, []string{"kind"}),
		SyncSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_skipped_total",
			Help:      "64-byte windows skipped for lacking the sync marker.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while an extraction run is active, 0 otherwise.",
		}),
		RecordsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "Rows dropped at chunk flush for missing essential fields.",
		}),
		ChunksFlushed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_flushed_total",
			Help:      "Chunks flushed into collections.",
		}),
		EmptyChunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "empty_chunks_total",
			Help:      "Chunks skipped because no row survived filtering.",
		}),
		ChunkRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_rows",
			Help:      "Rows kept per flushed chunk.",
			Buckets:   prometheus.ExponentialBuckets(100, 4, 7),
		}),
		UnitScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "unit_scan_duration_seconds",
			Help:      "Time to scan one monthly payload.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		RowsSaved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_saved_total",
			Help:      "Rows saved per collection key.",
		}, []string{"key"}),
		RemoteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_requests_total",
			Help:      "Remote collection requests by outcome.",
		}, []string{"outcome"}),
		RemoteCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_cache_total",
			Help:      "Remote collection cache lookups by result.",
		}, []string{"result"}),
		RemoteAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_api_duration_seconds",
			Help:      "Remote collection request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.SourceUnits,
		m.SourceFailures,
		m.RecordsExtracted,
		m.RecordErrors,
		m.SyncSkipped,
		m.PipelineRunning,
		m.RecordsDropped,
		m.ChunksFlushed,
		m.EmptyChunks,
		m.ChunkRows,
		m.UnitScanDuration,
		m.RowsSaved,
		m.RemoteRequests,
		m.RemoteCache,
		m.RemoteAPIDuration,
	}
}
