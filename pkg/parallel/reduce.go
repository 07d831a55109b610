package parallel

import (
	"github.com/dd0wney/cluso-gds/pkg/partition"
)

// Map returns mapper(i) for every i in [start, end), in index order. When
// the termination flag stops before every slot is computed it returns nil
// and the flag's ErrTerminated.
func Map[T any](e *Executor, start, end uint64, mapper func(i uint64) T) ([]T, error) {
	if e == nil {
		e = &Executor{}
	}
	if start >= end {
		return []T{}, e.Flag.AssertRunning()
	}

	out := make([]T, end-start)
	parts := shift(partition.RangePartitions(end-start, e.concurrency()), start)
	res := e.RunPartitions(parts, func(p partition.Partition) uint64 {
		var done uint64
		for i := range p.Nodes() {
			if !e.Running(done) {
				break
			}
			out[i-start] = mapper(i)
			done++
		}
		return done
	})
	if res.Terminated {
		return nil, e.Flag.AssertRunning()
	}
	return out, nil
}

// Reduce folds mapper(i) for every i in [start, end) into one value.
// combine must be associative with identity as its neutral element; each
// partition folds from identity and the partition results are combined in
// ascending order, so the result does not depend on scheduling.
func Reduce[T any](e *Executor, start, end uint64, identity T, mapper func(i uint64) T, combine func(a, b T) T) (T, error) {
	if e == nil {
		e = &Executor{}
	}
	if start >= end {
		return identity, e.Flag.AssertRunning()
	}

	parts := shift(partition.RangePartitions(end-start, e.concurrency()), start)
	acc, out := ReducePartitions(e, parts, identity, mapper, combine, nil)
	if out.Terminated {
		return identity, e.Flag.AssertRunning()
	}
	return acc, nil
}

// ReducePartitions is Reduce over caller-chosen partitions. report, if not
// nil, receives the node count of every partition as it finishes. A
// terminated run returns the combination of whatever was folded.
func ReducePartitions[T any](
	e *Executor,
	parts []partition.Partition,
	identity T,
	mapper func(i uint64) T,
	combine func(a, b T) T,
	report func(done uint64),
) (T, Outcome) {
	if e == nil {
		e = &Executor{}
	}
	partial := make([]T, len(parts))
	for k := range partial {
		partial[k] = identity
	}

	out := e.runIndexed(parts, func(k int, p partition.Partition) uint64 {
		acc := identity
		var done uint64
		for i := range p.Nodes() {
			if !e.Running(done) {
				break
			}
			acc = combine(acc, mapper(i))
			done++
		}
		partial[k] = acc
		if report != nil {
			report(done)
		}
		return done
	})

	acc := identity
	for _, v := range partial {
		acc = combine(acc, v)
	}
	return acc, out
}

func shift(parts []partition.Partition, by uint64) []partition.Partition {
	for i := range parts {
		parts[i].Start += by
	}
	return parts
}
