package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search service and context rendering metrics.
var (
	SearchServiceRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchbot",
			Name:      "search_service_requests_total",
			Help:      "Total number of search service requests by operation and HTTP status",
		},
		[]string{"op", "status"},
	)

	SearchServiceRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "searchbot",
			Name:      "search_service_request_duration_seconds",
			Help:      "Search service request duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"op"},
	)

	RenderedContextTokens = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "searchbot",
			Name:      "rendered_context_tokens",
			Help:      "Tokens used by rendered search context",
			Buckets:   prometheus.ExponentialBuckets(16, 2, 10),
		},
		[]string{"mode"},
	)

	RenderedContextTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchbot",
			Name:      "rendered_context_total",
			Help:      "Rendered contexts by mode and outcome (ok, truncated, empty, no_input)",
		},
		[]string{"mode", "outcome"},
	)
)

var registered bool

// Register registers all application metrics with the default registry. Must be called once from main.
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(
		EmbeddingRequestsTotal,
		EmbeddingRequestDuration,
		EmbeddingTokensTotal,
		EmbeddingErrorsTotal,
		EmbeddingCacheTotal,
		CompletionRequestsTotal,
		CompletionTokensTotal,
		SearchServiceRequestsTotal,
		SearchServiceRequestDuration,
		RenderedContextTokens,
		RenderedContextTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
	registered = true
}
