package nfs

import "github.com/prometheus/client_golang/prometheus"

var (
	OpsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nfs_exports",
		Subsystem: "manager",
		Name:      "operations_total",
		Help:      "Share operations by type and result.",
	}, []string{"op", "result"})

	OpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nfs_exports",
		Subsystem: "manager",
		Name:      "operation_duration_seconds",
		Help:      "Share operation duration in seconds, lock wait included.",
		Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 30},
	}, []string{"op"})

	LockWaitSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "nfs_exports",
		Subsystem: "manager",
		Name:      "lock_wait_seconds",
		Help:      "Time spent waiting for the exports lock.",
		Buckets:   []float64{.001, .01, .05, .1, .5, 1, 5, 30},
	})

	EntriesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "nfs_exports",
		Subsystem: "manager",
		Name:      "entries",
		Help:      "Current number of lines in the exports table.",
	})
)

func init() {
	prometheus.MustRegister(
		OpsTotal,
		OpDuration,
		LockWaitSeconds,
		EntriesGauge,
	)
}
