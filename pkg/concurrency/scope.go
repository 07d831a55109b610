package concurrency

import (
	"runtime/debug"
	"sync/atomic"
)

// Scope tracks the closures spawned during one Install call.
type Scope struct {
	pool    *WorkerPool
	pending atomic.Int64
	spawned atomic.Int64
	idle    chan struct{}
	failure atomic.Pointer[WorkerPanic] // first panic wins
}

func newScope(pool *WorkerPool) *Scope {
	return &Scope{pool: pool, idle: make(chan struct{}, 1)}
}

// Concurrency returns the worker count of the underlying pool.
func (s *Scope) Concurrency() int {
	return s.pool.workers
}

// Spawn submits task to the pool. Install does not return before task has run.
func (s *Scope) Spawn(task func()) {
	s.pending.Add(1)
	s.spawned.Add(1)
	wrapped := func() {
		defer s.done()
		task()
	}
	if !s.pool.Submit(wrapped) {
		// Closed pool: keep the completion guarantee by running inline.
		wrapped()
	}
}

func (s *Scope) done() {
	if r := recover(); r != nil {
		s.failure.CompareAndSwap(nil, &WorkerPanic{Value: r, Stack: debug.Stack()})
	}
	if s.pending.Add(-1) == 0 {
		select {
		case s.idle <- struct{}{}:
		default:
		}
	}
}

// wait blocks until every spawned task has finished. While waiting, the
// caller runs queued tasks itself so that installs nested inside workers
// make progress even when every worker is blocked in a wait.
func (s *Scope) wait() {
	for s.pending.Load() > 0 {
		if s.pool.help() {
			continue
		}
		select {
		case <-s.idle:
		case task, ok := <-s.pool.taskQueue:
			if ok {
				s.pool.run(task)
			} else {
				<-s.idle
			}
		}
	}
}

func (s *Scope) panicked() *WorkerPanic {
	return s.failure.Load()
}
