package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inferd",
			Subsystem: "engine",
			Name:      "generations_total",
			Help:      "Generation sessions by terminal state",
		},
		[]string{"state"},
	)

	tokensEmittedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "inferd",
			Subsystem: "engine",
			Name:      "tokens_emitted_total",
			Help:      "Text fragments streamed to consumers",
		},
	)

	decodeCallsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "inferd",
			Subsystem: "engine",
			Name:      "decode_calls_total",
			Help:      "Batches pushed through the native decode call",
		},
	)

	guardRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "inferd",
			Subsystem: "engine",
			Name:      "guard_rejections_total",
			Help:      "Generate calls rejected because a session was already running",
		},
	)

	generating = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "inferd",
			Subsystem: "engine",
			Name:      "generating",
			Help:      "1 while a generation session holds the guard",
		},
	)

	generationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "inferd",
			Subsystem: "engine",
			Name:      "generation_duration_seconds",
			Help:      "Wall-clock duration of generation sessions",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)
)

func init() {
	prometheus.MustRegister(
		generationsTotal,
		tokensEmittedTotal,
		decodeCallsTotal,
		guardRejections,
		generating,
		generationDuration,
	)
}
