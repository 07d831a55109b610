package partition

import (
	"math/bits"

	"github.com/dd0wney/cluso-gds/pkg/concurrency"
)

// DegreePartitions splits [0, nodeCount) into at most P contiguous
// partitions of roughly equal total degree, in one left-to-right scan.
// Partition k closes at the first node where the running degree sum reaches
// k*total/P; the last partition absorbs the remainder. The cut is greedy,
// not optimal, but deterministic.
//
// When every node has the same degree, including a total of zero, the result
// is exactly RangePartitions with the matching weights.
func DegreePartitions(nodeCount uint64, c concurrency.Concurrency, degrees DegreeFunction) []DegreePartition {
	if nodeCount == 0 {
		return nil
	}

	var total uint64
	first := degrees.Degree(0)
	uniform := true
	for n := uint64(0); n < nodeCount; n++ {
		d := degrees.Degree(n)
		total += d
		uniform = uniform && d == first
	}

	p := min(uint64(max(1, c.Value())), nodeCount)

	var parts []DegreePartition
	if uniform {
		for _, r := range rangeSplit(nodeCount, p) {
			parts = append(parts, DegreePartition{Partition: r, Degree: r.Length * first})
		}
	} else {
		parts = degreeSplit(nodeCount, p, total, degrees)
	}
	record("degree", parts, func(dp DegreePartition) uint64 { return dp.Length })
	return parts
}

func degreeSplit(nodeCount, p, total uint64, degrees DegreeFunction) []DegreePartition {
	parts := make([]DegreePartition, 0, p)
	var start, cumulative, weight uint64
	k := uint64(1)

	for n := uint64(0); n < nodeCount; n++ {
		d := degrees.Degree(n)
		cumulative += d
		weight += d
		if k < p && reached(cumulative, p, k, total) {
			parts = append(parts, DegreePartition{
				Partition: Partition{Start: start, Length: n + 1 - start},
				Degree:    weight,
			})
			start, weight = n+1, 0
			k++
		}
	}
	if start < nodeCount {
		parts = append(parts, DegreePartition{
			Partition: Partition{Start: start, Length: nodeCount - start},
			Degree:    weight,
		})
	}
	return parts
}

// reached reports cumulative*p >= k*total without overflowing.
func reached(cumulative, p, k, total uint64) bool {
	lhsHi, lhsLo := bits.Mul64(cumulative, p)
	rhsHi, rhsLo := bits.Mul64(k, total)
	return lhsHi > rhsHi || (lhsHi == rhsHi && lhsLo >= rhsLo)
}
