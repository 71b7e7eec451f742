package metrics

import "github.com/prometheus/client_golang/prometheus"

// AuthRejectedTotal counts API requests refused by bearer auth.
var AuthRejectedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_rejected_total",
		Help:      "API requests rejected by bearer authentication",
	},
	[]string{"reason"}, // missing / scheme / invalid
)

var authMetricsRegistered bool

// RegisterAuthMetrics registers Prometheus auth metrics. Must be called once from main.
func RegisterAuthMetrics() {
	if authMetricsRegistered {
		return
	}
	prometheus.MustRegister(AuthRejectedTotal)
	authMetricsRegistered = true
}
