package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search and embedding Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rankfuse",
			Name:      "search_requests_total",
			Help:      "Total number of search requests",
		},
		[]string{"fusion_method", "status"},
	)

	FusionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rankfuse",
			Name:      "fusion_duration_seconds",
			Help:      "Candidate fusion duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"fusion_method"},
	)

	ResultCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rankfuse",
			Name:      "result_cache_total",
			Help:      "Query result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rankfuse",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rankfuse",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	ChunksProducedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rankfuse",
			Name:      "chunks_produced_total",
			Help:      "Total chunks produced by the ingestion chunker",
		},
	)
)

// RegisterSearchMetrics registers the search, cache, embedding, and
// chunking metrics. Called explicitly from the composition root; no init().
func RegisterSearchMetrics() {
	prometheus.MustRegister(
		SearchRequestsTotal,
		FusionDuration,
		ResultCacheTotal,
		EmbeddingRequestsTotal,
		EmbeddingRequestDuration,
		ChunksProducedTotal,
	)
}
