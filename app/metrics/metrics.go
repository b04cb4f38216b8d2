package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics
	IngestionRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestion_runs_total",
			Help: "Total number of ingestion runs",
		},
		[]string{"outcome"},
	)

	ItemsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestion_items_processed_total",
			Help: "Total number of items processed, by result",
		},
		[]string{"result"},
	)

	AdapterFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestion_adapter_failures_total",
			Help: "Total number of failed adapter invocations",
		},
		[]string{"adapter"},
	)

	BatchRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingestion_batch_retries_total",
			Help: "Total number of batch retry attempts",
		},
	)

	// Embedding cache metrics
	EmbeddingCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "embedding_cache_hits_total",
			Help: "Total number of embedding cache hits",
		},
	)

	EmbeddingCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "embedding_cache_misses_total",
			Help: "Total number of embedding cache misses",
		},
	)

	EmbeddingCacheSweptEntries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "embedding_cache_swept_entries_total",
			Help: "Total number of expired cache entries removed by the sweep",
		},
	)

	// Embedding provider metrics
	EmbeddingProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_provider_calls_total",
			Help: "Total number of embedding provider calls",
		},
		[]string{"status"},
	)

	EmbeddingProviderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "embedding_provider_call_duration_seconds",
			Help:    "Embedding provider call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Application health metrics
	ApplicationInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "application_info",
			Help: "Application information",
		},
		[]string{"service", "version"},
	)
)

// Init sets metrics that carry static label values
func Init(serviceName, version string) {
	ApplicationInfo.WithLabelValues(serviceName, version).Set(1)
}
