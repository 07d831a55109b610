package concurrency

import (
	"fmt"
	"math"
	"sync"

	"github.com/dd0wney/cluso-gds/pkg/logging"
)

// WorkerPool runs submitted closures on a fixed set of worker goroutines.
type WorkerPool struct {
	workers   int
	taskQueue chan func()
	wg        sync.WaitGroup
	once      sync.Once
	mu        sync.RWMutex // Protects taskQueue from concurrent close during send
	closed    bool         // Protected by mu
	logger    logging.Logger
}

// MaxWorkers is the maximum number of workers allowed in a pool.
const MaxWorkers = math.MaxInt / 2

// NewWorkerPool starts a pool of exactly workers goroutines.
func NewWorkerPool(workers int) (*WorkerPool, error) {
	return newWorkerPool(workers, logging.NewNopLogger())
}

func newWorkerPool(workers int, logger logging.Logger) (*WorkerPool, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("%w: %d workers", ErrInvalidConcurrency, workers)
	}

	// Prevent overflow in buffer size calculation
	if workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyWorkers, workers, MaxWorkers)
	}

	pool := &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*2), // Buffer for 2x workers
		logger:    logger,
	}

	pool.start()
	return pool, nil
}

// Workers returns the number of worker goroutines.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// start initializes the worker goroutines
func (wp *WorkerPool) start() {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

// worker processes tasks from the queue
func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for task := range wp.taskQueue {
		wp.run(task)
	}
}

// run executes one task. Tasks spawned through a Scope capture their own
// panics; this recover only guards bare Submit callers.
func (wp *WorkerPool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			wp.logger.Error("worker panic recovered",
				logging.Any("panic", r),
				logging.Int("workers", wp.workers))
		}
	}()
	task()
}

// Submit queues task for a worker. When the queue is full the task runs on
// the calling goroutine instead, so nested submissions from inside workers
// cannot deadlock the pool. Returns false if the pool is closed.
func (wp *WorkerPool) Submit(task func()) bool {
	wp.mu.RLock()

	// Check if pool is closed while holding read lock
	if wp.closed {
		wp.mu.RUnlock()
		return false
	}

	select {
	case wp.taskQueue <- task:
		wp.mu.RUnlock()
	default:
		wp.mu.RUnlock()
		wp.run(task)
	}
	return true
}

// help runs one queued task on the calling goroutine if one is waiting.
// It reports false when the queue was empty or closed.
func (wp *WorkerPool) help() bool {
	select {
	case task, ok := <-wp.taskQueue:
		if !ok {
			return false
		}
		wp.run(task)
		return true
	default:
		return false
	}
}

// Close shuts down the worker pool after queued tasks have run.
func (wp *WorkerPool) Close() {
	wp.once.Do(func() {
		// Acquire write lock before closing
		wp.mu.Lock()
		wp.closed = true
		close(wp.taskQueue)
		wp.mu.Unlock()
	})
	wp.wg.Wait()
}

// Closed reports whether Close has been called.
func (wp *WorkerPool) Closed() bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	return wp.closed
}
