package pipeline

import "github.com/prometheus/client_golang/prometheus"

// model label for runs whose identifier was never resolved
const unknownModel = "unknown"

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nightingale",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Pipeline runs by model, task and outcome stage.",
		},
		[]string{"model", "task", "outcome"},
	)
	generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nightingale",
			Subsystem: "pipeline",
			Name:      "generation_duration_seconds",
			Help:      "Wall-clock time of backend generate calls.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"model", "task"},
	)
)

func init() {
	prometheus.MustRegister(runsTotal, generationDuration)
}
