package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initPoolMetrics() {
	r.PoolsTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "gds_pool_pools_total",
			Help: "Number of cached worker pools, one per distinct concurrency level",
		},
	)

	r.PoolInstallsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gds_pool_installs_total",
			Help: "Total number of install calls per concurrency level",
		},
		[]string{"concurrency"},
	)

	r.PoolTasksTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gds_pool_tasks_total",
			Help: "Total number of closures spawned into worker pools",
		},
		[]string{"concurrency"},
	)

	r.PoolInstallDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gds_pool_install_duration_seconds",
			Help:    "Time an install call blocked its caller",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1, 10, 60},
		},
		[]string{"concurrency"},
	)

	r.WorkerPanicsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "gds_pool_worker_panics_total",
			Help: "Total number of panics raised inside worker closures",
		},
	)
}
