package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric exported by this package.
const Namespace = "gds"

// Registry holds all metrics for the substrate. A nil *Registry is valid and
// records nothing, so libraries can accept an optional registry.
type Registry struct {
	// Worker pool metrics
	PoolsTotal          prometheus.Gauge
	PoolInstallsTotal   *prometheus.CounterVec
	PoolTasksTotal      *prometheus.CounterVec
	PoolInstallDuration *prometheus.HistogramVec
	WorkerPanicsTotal   prometheus.Counter

	// Progress metrics
	TasksRunning         prometheus.Gauge
	TaskTransitionsTotal *prometheus.CounterVec
	TaskDuration         *prometheus.HistogramVec
	ProgressUnitsTotal   prometheus.Counter
	TerminationsTotal    prometheus.Counter

	// Partition metrics
	PartitionsCreatedTotal *prometheus.CounterVec
	PartitionNodes         *prometheus.HistogramVec

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge
	MemorySysBytes   prometheus.Gauge

	registry  *prometheus.Registry
	startTime time.Time
	mu        sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)
