package client

import "github.com/prometheus/client_golang/prometheus"

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ggufctl",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Requests sent to llama-server by protocol and outcome",
		},
		[]string{"protocol", "outcome"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ggufctl",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Duration of llama-server requests in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"protocol"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration)
}
