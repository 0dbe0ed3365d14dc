// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StageExamplesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_examples_processed_total",
			Help: "Total number of examples processed per stage",
		},
		[]string{"stage"},
	)

	StageExamplesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_examples_failed_total",
			Help: "Total number of examples that failed per stage",
		},
		[]string{"stage", "error_code"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pipeline_stage_duration_seconds",
			Help: "Duration of pipeline stage runs in seconds",
		},
		[]string{"stage"},
	)

	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_llm_requests_total",
			Help: "Total number of LLM completion requests by outcome",
		},
		[]string{"outcome"},
	)

	LLMRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_llm_retries_total",
			Help: "Total number of LLM request retries",
		},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_cache_hits_total",
			Help: "Total number of LLM response cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_cache_misses_total",
			Help: "Total number of LLM response cache misses",
		},
	)
)
