package partition

import (
	"encoding/binary"
	"hash/fnv"
	"iter"

	"github.com/dd0wney/cluso-gds/pkg/pools"
)

// IteratorPartitions wraps externally supplied node batches, one partition
// per batch, in the order given. Batches are taken as-is, not copied or
// reordered. Empty batches are skipped.
func IteratorPartitions(batches iter.Seq[[]uint64]) []NodeSetPartition {
	var parts []NodeSetPartition
	for batch := range batches {
		if len(batch) == 0 {
			continue
		}
		parts = append(parts, NodeSetPartition{Nodes: batch})
	}
	record("iterator", parts, nodeSetLength)
	return parts
}

// BatchNodes groups ids into consecutive batches of at most batchSize,
// preserving order. Batch buffers come from a pool; call Release on each
// partition once it has been processed.
func BatchNodes(ids iter.Seq[uint64], batchSize int) []NodeSetPartition {
	batchSize = max(batchSize, 1)

	var parts []NodeSetPartition
	var current []uint64
	for id := range ids {
		if current == nil {
			current = pools.GetIDs(batchSize)
		}
		current = append(current, id)
		if len(current) == batchSize {
			parts = append(parts, NodeSetPartition{Nodes: current, pooled: true})
			current = nil
		}
	}
	if current != nil {
		parts = append(parts, NodeSetPartition{Nodes: current, pooled: true})
	}
	record("batch", parts, nodeSetLength)
	return parts
}

// Strategy assigns every node to one of Count buckets.
type Strategy interface {
	PartitionOf(node uint64) int
	Count() int
}

// HashStrategy scatters nodes by FNV-1a hash of the id; good balance, no locality.
type HashStrategy struct {
	count int
}

// NewHashStrategy creates a hash strategy over count buckets (at least one).
func NewHashStrategy(count int) *HashStrategy {
	return &HashStrategy{count: max(count, 1)}
}

// PartitionOf returns which bucket a node belongs to.
func (hs *HashStrategy) PartitionOf(node uint64) int {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], node)
	h := fnv.New64a()
	h.Write(b[:])
	return int(h.Sum64() % uint64(hs.count))
}

// Count returns the number of buckets.
func (hs *HashStrategy) Count() int {
	return hs.count
}

// RangeStrategy assigns contiguous id ranges to buckets.
type RangeStrategy struct {
	count     int
	rangeSize uint64
}

// NewRangeStrategy covers [0, nodeCount) with count equal ranges.
func NewRangeStrategy(count int, nodeCount uint64) *RangeStrategy {
	count = max(count, 1)
	return &RangeStrategy{
		count:     count,
		rangeSize: max(ceilDiv(nodeCount, uint64(count)), 1),
	}
}

// PartitionOf returns the bucket for node; ids past the range go to the last bucket.
func (rs *RangeStrategy) PartitionOf(node uint64) int {
	b := node / rs.rangeSize
	if b >= uint64(rs.count) {
		return rs.count - 1
	}
	return int(b)
}

// Count returns the number of buckets.
func (rs *RangeStrategy) Count() int {
	return rs.count
}

// GroupPartitions buckets every node of [0, nodeCount) by strategy and
// returns one partition per non-empty bucket, in bucket order. Nodes within
// a bucket stay in ascending order.
func GroupPartitions(nodeCount uint64, strategy Strategy) []NodeSetPartition {
	buckets := make([][]uint64, strategy.Count())
	for n := uint64(0); n < nodeCount; n++ {
		b := strategy.PartitionOf(n)
		buckets[b] = append(buckets[b], n)
	}

	parts := make([]NodeSetPartition, 0, len(buckets))
	for _, nodes := range buckets {
		if len(nodes) > 0 {
			parts = append(parts, NodeSetPartition{Nodes: nodes})
		}
	}
	record("group", parts, nodeSetLength)
	return parts
}

func nodeSetLength(p NodeSetPartition) uint64 { return uint64(len(p.Nodes)) }
