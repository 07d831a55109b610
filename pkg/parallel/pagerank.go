package parallel

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/dd0wney/cluso-gds/pkg/paged"
	"github.com/dd0wney/cluso-gds/pkg/partition"
	"github.com/dd0wney/cluso-gds/pkg/progress"
)

// PageRankOptions configures PageRank.
type PageRankOptions struct {
	DampingFactor float64 // Usually 0.85
	MaxIterations int
	Tolerance     float64 // Stop once no score moves by more than this
	TopN          int
}

// DefaultPageRankOptions returns the usual damping with a short iteration cap.
func DefaultPageRankOptions() PageRankOptions {
	return PageRankOptions{
		DampingFactor: 0.85,
		MaxIterations: 20,
		Tolerance:     1e-6,
		TopN:          10,
	}
}

func (o PageRankOptions) validate() error {
	if o.DampingFactor < 0 || o.DampingFactor >= 1 {
		return fmt.Errorf("%w: damping factor %v not in [0, 1)", ErrInvalidOptions, o.DampingFactor)
	}
	if o.MaxIterations < 1 {
		return fmt.Errorf("%w: max iterations %d", ErrInvalidOptions, o.MaxIterations)
	}
	return nil
}

// PageRankResult holds the scores of every node.
type PageRankResult struct {
	Scores     *paged.Array[float64]
	Iterations int
	Converged  bool
	Terminated bool
	TopNodes   []RankedNode
}

// RankedNode is a node with its score.
type RankedNode struct {
	NodeID uint64
	Score  float64
}

// PageRankTask is the iterative task PageRank reports into: one leaf per
// iteration, the unused ones canceled on convergence.
func PageRankTask(g Graph, opts PageRankOptions) *progress.Task {
	n := g.NodeCount()
	return progress.Iterative("PageRank", func() []*progress.Task {
		return []*progress.Task{progress.Leaf("Iteration", n)}
	}, progress.Dynamic, opts.MaxIterations)
}

// PageRank computes unweighted PageRank by pushing each node's share along
// its relationships. Scores sum to 1; the mass of nodes without
// relationships is spread evenly over the graph.
func PageRank(g Graph, opts PageRankOptions, ex *Executor, tracker progress.Tracker) (*PageRankResult, error) {
	if tracker == nil {
		tracker = progress.NopTracker{}
	}
	if ex == nil {
		ex = &Executor{}
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := tracker.BeginSubtask(); err != nil {
		return nil, err
	}

	n := g.NodeCount()
	scores, err := paged.NewWithPageShift[float64](n, ex.pageShift())
	if err != nil {
		_ = tracker.EndSubtaskWithFailure()
		return nil, err
	}
	next, err := paged.NewAtomicDoubleArrayWithPageShift(n, ex.pageShift())
	if err != nil {
		_ = tracker.EndSubtaskWithFailure()
		return nil, err
	}

	result := &PageRankResult{Scores: scores}
	if n == 0 {
		result.Converged = true
		return result, tracker.EndSubtask()
	}
	scores.Fill(1 / float64(n))

	d := opts.DampingFactor
	parts := partition.RangePartitions(n, ex.concurrency())

	for result.Iterations < opts.MaxIterations {
		if err := tracker.BeginSubtaskWithVolume(n); err != nil {
			return result, err
		}
		result.Iterations++

		dangling, push := ReducePartitions(ex, parts, 0.0,
			func(node uint64) float64 {
				score, _ := scores.Get(node)
				deg := g.Degree(node)
				if deg == 0 {
					return score
				}
				share := d * score / float64(deg)
				g.ForEachNeighbor(node, func(target uint64, _ float64) bool {
					_, _ = next.GetAndAdd(target, share)
					return true
				})
				return 0
			},
			addFloat, nil)
		if push.Terminated {
			result.Terminated = true
			return result, tracker.Checkpoint()
		}

		teleport := (1-d)/float64(n) + d*dangling/float64(n)
		delta, apply := ReducePartitions(ex, parts, 0.0,
			func(node uint64) float64 {
				incoming, _ := next.Get(node)
				old, _ := scores.Get(node)
				updated := incoming + teleport
				_ = scores.Set(node, updated)
				_ = next.Set(node, 0)
				return math.Abs(updated - old)
			},
			math.Max, tracker.LogProgress)
		if apply.Terminated {
			result.Terminated = true
			return result, tracker.Checkpoint()
		}
		if err := tracker.EndSubtask(); err != nil {
			return result, err
		}

		if delta < opts.Tolerance {
			result.Converged = true
			break
		}
	}

	result.TopNodes = topNodes(scores, opts.TopN)
	return result, tracker.EndSubtask()
}

func addFloat(a, b float64) float64 {
	return a + b
}

// rankedNodeHeap is a min-heap by score, so the root is the weakest of the
// current top N.
type rankedNodeHeap []RankedNode

func (h rankedNodeHeap) Len() int           { return len(h) }
func (h rankedNodeHeap) Less(i, j int) bool { return h[i].Score < h[j].Score }
func (h rankedNodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *rankedNodeHeap) Push(x any) {
	*h = append(*h, x.(RankedNode))
}

func (h *rankedNodeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// topNodes returns the n highest scores, best first.
func topNodes(scores *paged.Array[float64], n int) []RankedNode {
	if n <= 0 {
		return nil
	}

	h := make(rankedNodeHeap, 0, n)
	for node, score := range scores.All() {
		if h.Len() < n {
			heap.Push(&h, RankedNode{NodeID: node, Score: score})
		} else if score > h[0].Score {
			h[0] = RankedNode{NodeID: node, Score: score}
			heap.Fix(&h, 0)
		}
	}

	out := make([]RankedNode, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(RankedNode)
	}
	return out
}
