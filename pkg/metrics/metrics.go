package metrics

import (
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry:  prometheus.NewRegistry(),
		startTime: time.Now(),
	}

	r.initPoolMetrics()
	r.initProgressMetrics()
	r.initPartitionMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// RecordPoolCreated records that a worker pool for a new concurrency level was built.
func (r *Registry) RecordPoolCreated() {
	if r == nil {
		return
	}
	r.PoolsTotal.Inc()
}

// RecordInstall records one install call and how long it blocked the caller.
func (r *Registry) RecordInstall(concurrency int, spawned int, duration time.Duration) {
	if r == nil {
		return
	}
	label := strconv.Itoa(concurrency)
	r.PoolInstallsTotal.WithLabelValues(label).Inc()
	r.PoolTasksTotal.WithLabelValues(label).Add(float64(spawned))
	r.PoolInstallDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// RecordWorkerPanic records a panic raised inside a worker closure.
func (r *Registry) RecordWorkerPanic() {
	if r == nil {
		return
	}
	r.WorkerPanicsTotal.Inc()
}

// RecordTaskTransition records a task status change. Running tasks move the
// running gauge up, every terminal status moves it down.
func (r *Registry) RecordTaskTransition(status string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.TaskTransitionsTotal.WithLabelValues(status).Inc()
	switch status {
	case "RUNNING":
		r.TasksRunning.Inc()
	case "FINISHED", "FAILED":
		r.TasksRunning.Dec()
		r.TaskDuration.WithLabelValues(status).Observe(elapsed.Seconds())
	case "CANCELED":
		// Canceled tasks may never have been started; elapsed is zero for those.
		if elapsed > 0 {
			r.TasksRunning.Dec()
			r.TaskDuration.WithLabelValues(status).Observe(elapsed.Seconds())
		}
	}
}

// RecordProgress records units of work logged against a task.
func (r *Registry) RecordProgress(units uint64) {
	if r == nil {
		return
	}
	r.ProgressUnitsTotal.Add(float64(units))
}

// RecordTermination records a computation that observed a stopped termination flag.
func (r *Registry) RecordTermination() {
	if r == nil {
		return
	}
	r.TerminationsTotal.Inc()
}

// RecordPartitions records a batch of partitions produced by one partitioner.
func (r *Registry) RecordPartitions(kind string, nodeCounts []uint64) {
	if r == nil {
		return
	}
	r.PartitionsCreatedTotal.WithLabelValues(kind).Add(float64(len(nodeCounts)))
	hist := r.PartitionNodes.WithLabelValues(kind)
	for _, n := range nodeCounts {
		hist.Observe(float64(n))
	}
}

// UpdateSystemMetrics refreshes uptime, goroutine and memory gauges.
func (r *Registry) UpdateSystemMetrics() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	r.UptimeSeconds.Set(time.Since(r.startTime).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(ms.Alloc))
	r.MemorySysBytes.Set(float64(ms.Sys))
}
