package manager

import "github.com/prometheus/client_golang/prometheus"

var (
	launchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ggufctl",
			Subsystem: "server",
			Name:      "launches_total",
			Help:      "llama-server launches by outcome",
		},
		[]string{"result"},
	)

	startupDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ggufctl",
			Subsystem: "server",
			Name:      "startup_seconds",
			Help:      "Time from spawn until llama-server answered ready",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
		},
	)

	readinessChecks = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ggufctl",
			Subsystem: "server",
			Name:      "readiness_checks",
			Help:      "Health checks performed per successful launch",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	runningServers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ggufctl",
			Subsystem: "server",
			Name:      "running",
			Help:      "llama-server processes currently owned",
		},
	)
)

func init() {
	prometheus.MustRegister(launchesTotal, startupDuration, readinessChecks, runningServers)
}
