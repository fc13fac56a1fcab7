package generate

import "github.com/prometheus/client_golang/prometheus"

var (
	batchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "llmgen",
			Subsystem: "generate",
			Name:      "batches_total",
			Help:      "Total number of generation batches completed",
		},
	)

	generatedTokensTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "llmgen",
			Subsystem: "generate",
			Name:      "tokens_total",
			Help:      "Total number of newly generated tokens",
		},
	)

	generationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "llmgen",
			Subsystem: "generate",
			Name:      "batch_duration_seconds",
			Help:      "Duration of one generation call in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	batchFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llmgen",
			Subsystem: "generate",
			Name:      "batch_failures_total",
			Help:      "Total failed generation batches by stage",
		},
		[]string{"stage"},
	)
)

func init() {
	prometheus.MustRegister(batchesTotal, generatedTokensTotal, generationDuration, batchFailuresTotal)
}
