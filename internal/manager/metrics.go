package manager

import "github.com/prometheus/client_golang/prometheus"

var admissionRejected = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "nightingale",
		Subsystem: "manager",
		Name:      "admission_rejected_total",
		Help:      "Requests rejected by admission, by model and the slot that timed out.",
	},
	[]string{"model", "slot"},
)

func init() {
	prometheus.MustRegister(admissionRejected)
}
