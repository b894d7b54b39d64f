package manager

import "github.com/prometheus/client_golang/prometheus"

var modelLoadsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "manager",
		Name:      "model_loads_total",
		Help:      "Successful model loads since startup",
	},
)

func init() {
	prometheus.MustRegister(modelLoadsTotal)
}
