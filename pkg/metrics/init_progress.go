package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initProgressMetrics() {
	r.TasksRunning = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "gds_progress_tasks_running",
			Help: "Number of tasks currently in the RUNNING state",
		},
	)

	r.TaskTransitionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gds_progress_task_transitions_total",
			Help: "Total number of task status transitions by target status",
		},
		[]string{"status"},
	)

	r.TaskDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gds_progress_task_duration_seconds",
			Help:    "Wall time between a task starting and reaching a terminal status",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"status"},
	)

	r.ProgressUnitsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "gds_progress_units_total",
			Help: "Total units of work logged against leaf tasks",
		},
	)

	r.TerminationsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "gds_progress_terminations_total",
			Help: "Total number of computations stopped through a termination flag",
		},
	)
}
