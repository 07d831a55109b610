package parallel

import (
	"math"

	"github.com/dd0wney/cluso-gds/pkg/paged"
	"github.com/dd0wney/cluso-gds/pkg/partition"
	"github.com/dd0wney/cluso-gds/pkg/progress"
)

// DegreeStats summarizes the out-degrees of a graph.
type DegreeStats struct {
	Total uint64
	Max   int64
	Min   int64
}

// DegreeSumTask is the progress task DegreeSum reports into.
func DegreeSumTask(g Graph) *progress.Task {
	return progress.Leaf("DegreeSum", g.NodeCount())
}

// DegreeSum totals the out-degrees of all nodes over degree-balanced
// partitions. Min and Max are zero for an empty graph.
func DegreeSum(g Graph, ex *Executor, tracker progress.Tracker) (DegreeStats, Outcome, error) {
	if tracker == nil {
		tracker = progress.NopTracker{}
	}
	if ex == nil {
		ex = &Executor{}
	}
	n := g.NodeCount()
	if err := tracker.BeginSubtaskWithVolume(n); err != nil {
		return DegreeStats{}, Outcome{}, err
	}

	identity := DegreeStats{Max: math.MinInt64, Min: math.MaxInt64}
	parts := partition.DegreePartitions(n, ex.concurrency(), Degrees(g))
	stats, out := ReducePartitions(ex, ranges(parts), identity,
		func(node uint64) DegreeStats {
			d := int64(g.Degree(node))
			return DegreeStats{Total: uint64(d), Max: d, Min: d}
		},
		func(a, b DegreeStats) DegreeStats {
			return DegreeStats{Total: a.Total + b.Total, Max: max(a.Max, b.Max), Min: min(a.Min, b.Min)}
		},
		tracker.LogProgress)

	if out.Processed == 0 {
		stats.Max, stats.Min = 0, 0
	}
	if out.Terminated {
		return stats, out, tracker.Checkpoint()
	}
	return stats, out, tracker.EndSubtask()
}

// WeightedDegrees holds the summed relationship weight of every node.
type WeightedDegrees struct {
	Degrees *paged.Array[float64]
	Total   float64
	Max     float64
}

// WeightedDegreeTask is the progress task WeightedDegree reports into.
func WeightedDegreeTask(g Graph) *progress.Task {
	return progress.Leaf("WeightedDegree", g.NodeCount())
}

// WeightedDegree sums the outgoing relationship weights of every node.
// Each worker writes only the nodes of its own range partition.
func WeightedDegree(g Graph, ex *Executor, tracker progress.Tracker) (*WeightedDegrees, Outcome, error) {
	if tracker == nil {
		tracker = progress.NopTracker{}
	}
	if ex == nil {
		ex = &Executor{}
	}
	n := g.NodeCount()
	if err := tracker.BeginSubtaskWithVolume(n); err != nil {
		return nil, Outcome{}, err
	}

	degrees, err := paged.NewWithPageShift[float64](n, ex.pageShift())
	if err != nil {
		_ = tracker.EndSubtaskWithFailure()
		return nil, Outcome{}, err
	}
	type weightSums struct{ total, max float64 }
	parts := partition.RangePartitions(n, ex.concurrency())
	sums, out := ReducePartitions(ex, parts, weightSums{},
		func(node uint64) weightSums {
			var sum float64
			g.ForEachNeighbor(node, func(_ uint64, w float64) bool {
				sum += w
				return true
			})
			_ = degrees.Set(node, sum)
			return weightSums{total: sum, max: sum}
		},
		func(a, b weightSums) weightSums {
			return weightSums{total: a.total + b.total, max: max(a.max, b.max)}
		},
		tracker.LogProgress)

	result := &WeightedDegrees{Degrees: degrees, Total: sums.total, Max: sums.max}
	if out.Terminated {
		return result, out, tracker.Checkpoint()
	}
	return result, out, tracker.EndSubtask()
}
