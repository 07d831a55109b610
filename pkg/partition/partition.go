// Package partition splits a node-id space [0, nodeCount) into work units
// for parallel workers. Every function here is pure: the same inputs always
// produce the same partitions, independent of execution order.
package partition

import (
	"iter"
	"sync/atomic"

	"github.com/dd0wney/cluso-gds/pkg/metrics"
	"github.com/dd0wney/cluso-gds/pkg/pools"
)

// Partition is a contiguous range of node ids [Start, Start+Length).
type Partition struct {
	Start  uint64
	Length uint64
}

// End returns the exclusive upper bound of the range.
func (p Partition) End() uint64 {
	return p.Start + p.Length
}

// Contains reports whether node lies in the range.
func (p Partition) Contains(node uint64) bool {
	return node >= p.Start && node < p.End()
}

// Nodes yields every node id of the range in ascending order.
func (p Partition) Nodes() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for n := p.Start; n < p.End(); n++ {
			if !yield(n) {
				return
			}
		}
	}
}

// DegreePartition is a range carrying the summed degree of its nodes.
type DegreePartition struct {
	Partition
	Degree uint64
}

// NodeSetPartition is an explicit, ordered set of node ids.
type NodeSetPartition struct {
	Nodes  []uint64
	pooled bool
}

// Len returns the number of nodes in the set.
func (p *NodeSetPartition) Len() int {
	return len(p.Nodes)
}

// Release returns a pooled node buffer. The partition must not be used after.
func (p *NodeSetPartition) Release() {
	if p.pooled {
		pools.PutIDs(p.Nodes)
		p.pooled = false
	}
	p.Nodes = nil
}

// DegreeFunction reports the relationship degree of a node.
type DegreeFunction interface {
	Degree(node uint64) uint64
}

// DegreeFunc adapts a plain function to DegreeFunction.
type DegreeFunc func(node uint64) uint64

// Degree calls f(node).
func (f DegreeFunc) Degree(node uint64) uint64 {
	return f(node)
}

// Consumer receives partitions one at a time.
type Consumer interface {
	Consume(p Partition)
}

// ConsumerFunc adapts a plain function to Consumer.
type ConsumerFunc func(p Partition)

// Consume calls f(p).
func (f ConsumerFunc) Consume(p Partition) {
	f(p)
}

// Each hands every partition to consumer in order.
func Each(parts []Partition, consumer Consumer) {
	for _, p := range parts {
		consumer.Consume(p)
	}
}

var recorder atomic.Pointer[metrics.Registry]

// SetMetricsRegistry makes every partitioner record into m. Pass nil to stop.
func SetMetricsRegistry(m *metrics.Registry) {
	recorder.Store(m)
}

func record[P any](kind string, parts []P, size func(P) uint64) {
	m := recorder.Load()
	if m == nil {
		return
	}
	sizes := make([]uint64, len(parts))
	for i, p := range parts {
		sizes[i] = size(p)
	}
	m.RecordPartitions(kind, sizes)
}

func rangeLength(p Partition) uint64 { return p.Length }
