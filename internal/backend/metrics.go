package backend

import "github.com/prometheus/client_golang/prometheus"

var backendLoads = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "nightingale",
		Subsystem: "backend",
		Name:      "loads_total",
		Help:      "Backend load attempts by driver kind and outcome.",
	},
	[]string{"driver", "outcome"},
)

func init() {
	prometheus.MustRegister(backendLoads)
}
