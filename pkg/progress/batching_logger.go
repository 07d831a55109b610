package progress

import (
	"sync/atomic"

	"github.com/dd0wney/cluso-gds/pkg/logging"
	"github.com/dd0wney/cluso-gds/pkg/paged"
)

// MaxLogInterval caps the number of progress units between log checks.
const MaxLogInterval uint64 = 8192

// BatchSize returns how many progress units pass between log checks for a
// task of the given volume run with concurrency workers. The result is a
// power of two no larger than maxInterval; unknown volumes check on every
// call.
func BatchSize(volume uint64, concurrency int, maxInterval uint64) uint64 {
	if volume == UnknownVolume {
		return 1
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if maxInterval == 0 {
		maxInterval = MaxLogInterval
	}
	base := volume / (100 * uint64(concurrency))
	if base == 0 {
		base = 1
	}
	return min(paged.NextPowerOfTwo(base), maxInterval)
}

// BatchingLogger reports the progress of one task, logging only when a
// batch boundary is crossed and the whole-number percentage has grown.
// LogProgress is safe for concurrent use.
type BatchingLogger struct {
	logger      logging.Logger
	task        atomic.Pointer[string]
	concurrency int
	maxInterval uint64

	volume    atomic.Uint64
	batchSize atomic.Uint64
	counter   atomic.Uint64
	percent   atomic.Int64
}

// NewBatchingLogger creates a logger for task. A zero maxInterval selects
// MaxLogInterval.
func NewBatchingLogger(logger logging.Logger, task string, volume uint64, concurrency int, maxInterval uint64) *BatchingLogger {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if maxInterval == 0 {
		maxInterval = MaxLogInterval
	}
	b := &BatchingLogger{
		logger:      logger,
		concurrency: concurrency,
		maxInterval: maxInterval,
	}
	b.task.Store(&task)
	b.volume.Store(volume)
	b.batchSize.Store(b.batchFor(volume))
	b.percent.Store(0)
	return b
}

func (b *BatchingLogger) batchFor(volume uint64) uint64 {
	if volume == UnknownVolume {
		// Open-ended counters are reported at the coarsest interval.
		return b.maxInterval
	}
	return BatchSize(volume, b.concurrency, b.maxInterval)
}

// LogProgress adds n units and reports whether a line was written.
func (b *BatchingLogger) LogProgress(n uint64) bool {
	if n == 0 {
		return false
	}
	after := b.counter.Add(n)
	before := after - n
	batch := b.batchSize.Load()
	if before/batch == after/batch {
		return false
	}

	volume := b.volume.Load()
	if volume == UnknownVolume {
		b.logger.Info("progress", logging.Task(b.Task()), logging.Progress(after))
		return true
	}
	return b.logPercent(percentOf(after, volume))
}

func (b *BatchingLogger) logPercent(p int64) bool {
	for {
		last := b.percent.Load()
		if p <= last {
			return false
		}
		if b.percent.CompareAndSwap(last, p) {
			b.logger.Info("progress", logging.Task(b.Task()), logging.Percent(p))
			return true
		}
	}
}

func percentOf(done, volume uint64) int64 {
	if volume == 0 || done >= volume {
		return 100
	}
	// Scale down first so the multiplication cannot overflow.
	if done > UnknownVolume/100 {
		return int64(done / (volume / 100))
	}
	return int64(done * 100 / volume)
}

// LogFinishPercentage reports 100% unless it was already reported.
func (b *BatchingLogger) LogFinishPercentage() {
	b.logPercent(100)
}

// LogMessage writes an informational line tagged with the task.
func (b *BatchingLogger) LogMessage(msg string, fields ...logging.Field) {
	b.logger.Info(msg, append(fields, logging.Task(b.Task()))...)
}

// LogDebug writes a debug line tagged with the task.
func (b *BatchingLogger) LogDebug(msg string, fields ...logging.Field) {
	b.logger.Debug(msg, append(fields, logging.Task(b.Task()))...)
}

// LogWarning writes a warning tagged with the task.
func (b *BatchingLogger) LogWarning(msg string, fields ...logging.Field) {
	b.logger.Warn(msg, append(fields, logging.Task(b.Task()))...)
}

// LogError writes an error line tagged with the task.
func (b *BatchingLogger) LogError(msg string, fields ...logging.Field) {
	b.logger.Error(msg, append(fields, logging.Task(b.Task()))...)
}

// Reset starts counting again against a new volume and returns the old one.
func (b *BatchingLogger) Reset(volume uint64) uint64 {
	old := b.volume.Swap(volume)
	b.batchSize.Store(b.batchFor(volume))
	b.counter.Store(0)
	b.percent.Store(0)
	return old
}

// SetTask renames the task used to tag subsequent lines.
func (b *BatchingLogger) SetTask(task string) {
	b.task.Store(&task)
}

// Task returns the task name lines are tagged with.
func (b *BatchingLogger) Task() string {
	return *b.task.Load()
}

// Counter returns the units logged since the last reset.
func (b *BatchingLogger) Counter() uint64 {
	return b.counter.Load()
}

// Volume returns the volume progress is measured against.
func (b *BatchingLogger) Volume() uint64 {
	return b.volume.Load()
}

// CurrentBatchSize returns the active batch size.
func (b *BatchingLogger) CurrentBatchSize() uint64 {
	return b.batchSize.Load()
}

// LastPercent returns the last logged percentage.
func (b *BatchingLogger) LastPercent() int64 {
	return b.percent.Load()
}
