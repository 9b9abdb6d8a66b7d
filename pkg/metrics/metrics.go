// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// ChatMessagesTotal tracks processed chat messages by category and
	// reply source.
	ChatMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Total chat messages processed",
		},
		[]string{"category", "source"},
	)

	// GenerationDuration tracks remote generation latency.
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_generation_duration_seconds",
			Help:    "Remote generation duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"provider", "status"},
	)

	// GenerationFallbacksTotal tracks replies served by the deterministic
	// responder.
	GenerationFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_generation_fallbacks_total",
			Help: "Replies produced by the fallback responder",
		},
	)

	// SentimentFallbacksTotal tracks sentiment estimates produced by the
	// keyword heuristic.
	SentimentFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_sentiment_fallbacks_total",
			Help: "Sentiment estimates produced by the heuristic path",
		},
	)

	// PersistenceFailuresTotal tracks swallowed turn persistence errors.
	PersistenceFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_persistence_failures_total",
			Help: "Turn persistence errors (logged and swallowed)",
		},
	)

	// TurnsTotal tracks persisted conversation turns.
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "Total conversation turns persisted",
		},
		[]string{"category"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordGeneration records metrics for a remote generation call.
func RecordGeneration(provider, status string, duration float64) {
	GenerationDuration.WithLabelValues(provider, status).Observe(duration)
}
