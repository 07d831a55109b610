package concurrency

import (
	"sync"
	"time"

	"github.com/dd0wney/cluso-gds/pkg/logging"
	"github.com/dd0wney/cluso-gds/pkg/metrics"
)

// PoolRegistry maps a concurrency value to a lazily built, cached worker
// pool. Pools live until Close; the default registry is never closed.
type PoolRegistry struct {
	mu      sync.RWMutex
	pools   map[int]*WorkerPool
	logger  logging.Logger
	metrics *metrics.Registry
}

// RegistryOption configures a PoolRegistry.
type RegistryOption func(*PoolRegistry)

// WithLogger sets the logger used for pool lifecycle and recovered panics.
func WithLogger(l logging.Logger) RegistryOption {
	return func(r *PoolRegistry) {
		r.logger = l
	}
}

// WithMetrics records pool activity into m. A nil registry records nothing.
func WithMetrics(m *metrics.Registry) RegistryOption {
	return func(r *PoolRegistry) {
		r.metrics = m
	}
}

// NewPoolRegistry creates an empty registry.
func NewPoolRegistry(opts ...RegistryOption) *PoolRegistry {
	r := &PoolRegistry{
		pools:  make(map[int]*WorkerPool),
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var (
	defaultRegistry     *PoolRegistry
	defaultRegistryOnce sync.Once
)

// DefaultPoolRegistry returns the process-wide registry used by
// InstallWithConcurrency.
func DefaultPoolRegistry() *PoolRegistry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewPoolRegistry(
			WithLogger(logging.DefaultLogger().With(logging.Component("pool"))),
			WithMetrics(metrics.DefaultRegistry()),
		)
	})
	return defaultRegistry
}

// Pool returns the pool for c, building it on first request.
func (r *PoolRegistry) Pool(c Concurrency) (*WorkerPool, error) {
	if !c.IsValid() {
		return nil, ErrInvalidConcurrency
	}

	// Fast path
	r.mu.RLock()
	pool, ok := r.pools[c.value]
	r.mu.RUnlock()
	if ok {
		return pool, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if pool, ok := r.pools[c.value]; ok {
		return pool, nil
	}

	pool, err := newWorkerPool(c.value, r.logger)
	if err != nil {
		return nil, err
	}
	r.pools[c.value] = pool
	r.metrics.RecordPoolCreated()
	r.logger.Debug("worker pool created", logging.Concurrency(c.value))
	return pool, nil
}

// Len returns the number of cached pools.
func (r *PoolRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pools)
}

// Close shuts down every cached pool and empties the registry.
func (r *PoolRegistry) Close() {
	r.mu.Lock()
	pools := r.pools
	r.pools = make(map[int]*WorkerPool)
	r.mu.Unlock()

	for _, pool := range pools {
		pool.Close()
	}
}

// Install runs fn on the calling goroutine with a Scope bound to the pool
// for c, and returns once every closure spawned through the scope has
// finished. The first panic raised by a spawned closure is re-raised here
// as a *WorkerPanic.
func Install[R any](r *PoolRegistry, c Concurrency, fn func(s *Scope) R) R {
	pool, err := r.Pool(c)
	if err != nil {
		panic(err)
	}

	start := time.Now()
	s := newScope(pool)

	var result R
	func() {
		defer s.wait()
		result = fn(s)
	}()

	r.metrics.RecordInstall(c.value, int(s.spawned.Load()), time.Since(start))
	if p := s.panicked(); p != nil {
		r.metrics.RecordWorkerPanic()
		r.logger.Error("worker panic propagated",
			logging.Any("panic", p.Value),
			logging.Concurrency(c.value))
		panic(p)
	}
	return result
}

// InstallWithConcurrency is Install on the default registry.
func InstallWithConcurrency[R any](c Concurrency, fn func(s *Scope) R) R {
	return Install(DefaultPoolRegistry(), c, fn)
}

// Run is Install for closures without a result.
func Run(r *PoolRegistry, c Concurrency, fn func(s *Scope)) {
	Install(r, c, func(s *Scope) struct{} {
		fn(s)
		return struct{}{}
	})
}
