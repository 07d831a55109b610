package partition

import (
	"github.com/dd0wney/cluso-gds/pkg/concurrency"
)

// RangePartitions splits [0, nodeCount) into min(nodeCount, P) contiguous
// partitions whose lengths differ by at most one; the first nodeCount%P
// partitions take the extra node. 17 nodes at concurrency 4 give
// lengths 5, 4, 4, 4. No partition is ever empty, and nodeCount 0 gives none.
func RangePartitions(nodeCount uint64, c concurrency.Concurrency) []Partition {
	parts := rangeSplit(nodeCount, uint64(max(1, c.Value())))
	record("range", parts, rangeLength)
	return parts
}

func rangeSplit(nodeCount, count uint64) []Partition {
	if nodeCount == 0 {
		return nil
	}
	count = min(count, nodeCount)
	base, extra := nodeCount/count, nodeCount%count

	parts := make([]Partition, 0, count)
	var start uint64
	for i := uint64(0); i < count; i++ {
		length := base
		if i < extra {
			length++
		}
		parts = append(parts, Partition{Start: start, Length: length})
		start += length
	}
	return parts
}

// RangePartitionsWithBatchSize splits [0, nodeCount) into partitions of
// max(minBatchSize, ceil(nodeCount/P)) nodes. The last partition takes the
// remainder and may be shorter.
func RangePartitionsWithBatchSize(nodeCount uint64, c concurrency.Concurrency, minBatchSize uint64) []Partition {
	if nodeCount == 0 {
		return nil
	}
	p := uint64(max(1, c.Value()))
	batch := max(minBatchSize, ceilDiv(nodeCount, p), 1)
	parts := fixedSplit(nodeCount, batch)
	record("range_batched", parts, rangeLength)
	return parts
}

// NumberAlignedPartitions splits [0, nodeCount) so that every partition
// starts at a multiple of alignTo, which lets workers own whole words of a
// bit set. Partition lengths are multiples of alignTo except the last.
func NumberAlignedPartitions(nodeCount uint64, c concurrency.Concurrency, alignTo uint64) []Partition {
	if nodeCount == 0 {
		return nil
	}
	alignTo = max(alignTo, 1)
	p := uint64(max(1, c.Value()))
	batch := ceilDiv(ceilDiv(nodeCount, p), alignTo) * alignTo
	parts := fixedSplit(nodeCount, batch)
	record("aligned", parts, rangeLength)
	return parts
}

func fixedSplit(nodeCount, batch uint64) []Partition {
	parts := make([]Partition, 0, ceilDiv(nodeCount, batch))
	for start := uint64(0); start < nodeCount; start += batch {
		parts = append(parts, Partition{Start: start, Length: min(batch, nodeCount-start)})
	}
	return parts
}

func ceilDiv(a, b uint64) uint64 {
	q := a / b
	if a%b != 0 {
		q++
	}
	return q
}
