// Package parallel runs graph computations over partitions on the shared
// worker pools, reporting through a progress tracker and stopping early when
// the termination flag is raised.
package parallel

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/dd0wney/cluso-gds/pkg/concurrency"
	"github.com/dd0wney/cluso-gds/pkg/logging"
	"github.com/dd0wney/cluso-gds/pkg/paged"
	"github.com/dd0wney/cluso-gds/pkg/partition"
)

// DefaultPollInterval is how many nodes a worker processes between checks
// of the termination flag.
const DefaultPollInterval = 256

// Outcome summarizes a parallel run. Termination is reported here rather
// than as an error.
type Outcome struct {
	Terminated bool
	Processed  uint64
}

// Merge combines two outcomes.
func (o Outcome) Merge(other Outcome) Outcome {
	return Outcome{
		Terminated: o.Terminated || other.Terminated,
		Processed:  o.Processed + other.Processed,
	}
}

// Executor schedules partitioned work. The zero value runs single-threaded
// on the default pool registry and never terminates early.
type Executor struct {
	Concurrency  concurrency.Concurrency
	Flag         *concurrency.TerminationFlag
	Registry     *concurrency.PoolRegistry
	PollInterval uint64
	Logger       logging.Logger
	// PageShift sizes the pages of the arrays drivers allocate; zero means
	// paged.DefaultPageShift.
	PageShift    uint
}

// NewExecutor creates an executor on the default pool registry.
func NewExecutor(c concurrency.Concurrency, flag *concurrency.TerminationFlag) *Executor {
	return &Executor{
		Concurrency:  c,
		Flag:         flag,
		Registry:     concurrency.DefaultPoolRegistry(),
		PollInterval: DefaultPollInterval,
		Logger:       logging.DefaultLogger().With(logging.Component("executor")),
		PageShift:    paged.DefaultPageShift,
	}
}

// WithContext returns a copy of e whose flag stops when ctx is done.
// Call the returned func to detach from ctx once the run is over.
func (e *Executor) WithContext(ctx context.Context) (*Executor, func()) {
	flag, release := concurrency.TerminationFlagFromContext(ctx)
	cp := *e
	cp.Flag = flag
	return &cp, func() { release() }
}

func (e *Executor) concurrency() concurrency.Concurrency {
	if !e.Concurrency.IsValid() {
		return concurrency.Single
	}
	return e.Concurrency
}

func (e *Executor) registry() *concurrency.PoolRegistry {
	if e.Registry == nil {
		return concurrency.DefaultPoolRegistry()
	}
	return e.Registry
}

func (e *Executor) pageShift() uint {
	if e.PageShift == 0 {
		return paged.DefaultPageShift
	}
	return e.PageShift
}

func (e *Executor) logger() logging.Logger {
	if e.Logger == nil {
		return logging.NewNopLogger()
	}
	return e.Logger
}

// Running reports whether a worker that has processed n nodes should go on.
// The flag is only read every PollInterval nodes.
func (e *Executor) Running(n uint64) bool {
	poll := e.PollInterval
	if poll == 0 {
		poll = DefaultPollInterval
	}
	if n%poll != 0 {
		return true
	}
	return e.Flag.Running()
}

// RunPartitions calls fn once per partition on the pool and waits for all
// of them. fn returns how many nodes it processed. Partitions not yet
// started when the flag stops are skipped.
func (e *Executor) RunPartitions(parts []partition.Partition, fn func(p partition.Partition) uint64) Outcome {
	return e.runIndexed(parts, func(_ int, p partition.Partition) uint64 {
		return fn(p)
	})
}

// runIndexed is RunPartitions passing each partition's position in parts.
func (e *Executor) runIndexed(parts []partition.Partition, fn func(k int, p partition.Partition) uint64) Outcome {
	var (
		processed atomic.Uint64
		skipped   atomic.Uint64
		total     uint64
	)
	for _, p := range parts {
		total += p.Length
	}

	c := e.concurrency()
	e.logger().Debug("running partitions",
		logging.Count(len(parts)),
		logging.Concurrency(c.Value()))

	concurrency.Run(e.registry(), c, func(s *concurrency.Scope) {
		for k, p := range parts {
			if !e.Flag.Running() {
				skipped.Add(1)
				continue
			}
			s.Spawn(func() {
				if !e.Flag.Running() {
					skipped.Add(1)
					return
				}
				processed.Add(fn(k, p))
			})
		}
	})

	out := Outcome{Processed: processed.Load()}
	out.Terminated = skipped.Load() > 0 || (e.Flag.Stopped() && out.Processed < total)
	if out.Terminated {
		e.logger().Warn("run terminated",
			logging.Uint64("processed", out.Processed),
			logging.Uint64("total", total),
			logging.String("reason", e.Flag.Reason()))
	}
	return out
}

// RunDegreePartitions is RunPartitions over degree-balanced partitions.
func (e *Executor) RunDegreePartitions(parts []partition.DegreePartition, fn func(p partition.Partition) uint64) Outcome {
	return e.RunPartitions(ranges(parts), fn)
}

func ranges(parts []partition.DegreePartition) []partition.Partition {
	out := make([]partition.Partition, len(parts))
	for i, p := range parts {
		out[i] = p.Partition
	}
	return out
}

// ForEachNode calls fn for every node id in [0, nodeCount) across range
// partitions, polling the termination flag every PollInterval nodes.
func (e *Executor) ForEachNode(nodeCount uint64, fn func(node uint64)) Outcome {
	parts := partition.RangePartitions(nodeCount, e.concurrency())
	return e.RunPartitions(parts, func(p partition.Partition) uint64 {
		var n uint64
		for node := range p.Nodes() {
			if !e.Running(n) {
				break
			}
			fn(node)
			n++
		}
		return n
	})
}

// RunTasks runs independent tasks with at most Concurrency in flight and
// returns the first error. Tasks not yet started when the flag stops are
// skipped and reported as termination.
func (e *Executor) RunTasks(ctx context.Context, tasks ...func(ctx context.Context) error) (Outcome, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency().Value())

	var ran, skipped atomic.Uint64
	for _, task := range tasks {
		g.Go(func() error {
			if !e.Flag.Running() || gctx.Err() != nil {
				skipped.Add(1)
				return nil
			}
			ran.Add(1)
			return task(gctx)
		})
	}
	err := g.Wait()
	return Outcome{Terminated: skipped.Load() > 0 && e.Flag.Stopped(), Processed: ran.Load()}, err
}
