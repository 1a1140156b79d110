package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlp_queries_processed_total",
			Help: "Total number of pipeline invocations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "nlp_query_duration_seconds",
			Help: "Duration of pipeline invocations in seconds",
		},
		[]string{"operation"},
	)

	FallbackResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlp_fallback_responses_total",
			Help: "Total number of text-fallback responses synthesized from unparsable model output",
		},
		[]string{"operation"},
	)

	GenerationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemini_generation_failures_total",
			Help: "Total number of failed or empty generation calls",
		},
		[]string{"reason"},
	)
)
