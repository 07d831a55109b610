package parallel

import (
	"fmt"
	"sync"

	"github.com/dd0wney/cluso-gds/pkg/paged"
	"github.com/dd0wney/cluso-gds/pkg/partition"
	"github.com/dd0wney/cluso-gds/pkg/pools"
	"github.com/dd0wney/cluso-gds/pkg/progress"
)

// Unreached is the distance of nodes BFS did not reach.
const Unreached int64 = -1

// BFSResult holds hop distances from the start node.
type BFSResult struct {
	Distances  *paged.AtomicLongArray
	Reached    uint64
	Depth      int
	Terminated bool
}

// Distance returns the hop count to node, or Unreached.
func (r *BFSResult) Distance(node uint64) int64 {
	d, err := r.Distances.Get(node)
	if err != nil {
		return Unreached
	}
	return d
}

// BFSTask is the progress task BFS reports into.
func BFSTask(g Graph) *progress.Task {
	return progress.Leaf("BFS", g.NodeCount())
}

// frontier collects the next level from all workers.
type frontier struct {
	mu    sync.Mutex
	nodes []uint64
}

func (f *frontier) merge(local []uint64) {
	f.mu.Lock()
	f.nodes = append(f.nodes, local...)
	f.mu.Unlock()
}

// BFS computes hop distances from start with a level-synchronous parallel
// breadth-first search. Each level is split by the degrees of its nodes so
// workers receive a similar number of relationships.
func BFS(g Graph, start uint64, ex *Executor, tracker progress.Tracker) (*BFSResult, error) {
	if tracker == nil {
		tracker = progress.NopTracker{}
	}
	if ex == nil {
		ex = &Executor{}
	}
	n := g.NodeCount()
	if start >= n {
		return nil, fmt.Errorf("%w: %d (node count %d)", ErrNodeNotFound, start, n)
	}

	if err := tracker.BeginSubtaskWithVolume(n); err != nil {
		return nil, err
	}

	dist, err := paged.NewAtomicLongArrayWithPageShift(n, ex.pageShift())
	if err != nil {
		_ = tracker.EndSubtaskWithFailure()
		return nil, err
	}
	visited, err := paged.NewAtomicBitSetWithPageShift(n, ex.pageShift())
	if err != nil {
		_ = tracker.EndSubtaskWithFailure()
		return nil, err
	}
	dist.Fill(Unreached)
	_ = dist.Set(start, 0)
	_ = visited.Set(start)

	result := &BFSResult{Distances: dist}
	current := append(pools.GetIDs(1), start)

	for len(current) > 0 {
		level := current
		next := &frontier{nodes: pools.GetIDs(len(level))}
		depth := int64(result.Depth + 1)

		parts := partition.DegreePartitions(uint64(len(level)), ex.concurrency(),
			partition.DegreeFunc(func(i uint64) uint64 { return g.Degree(level[i]) }))

		out := ex.RunDegreePartitions(parts, func(p partition.Partition) uint64 {
			local := pools.GetIDs(pools.SmallBatch)
			var done uint64
			for i := range p.Nodes() {
				if !ex.Running(done) {
					break
				}
				g.ForEachNeighbor(level[i], func(target uint64, _ float64) bool {
					if seen, _ := visited.GetAndSet(target); !seen {
						_ = dist.Set(target, depth)
						local = append(local, target)
					}
					return true
				})
				done++
			}
			next.merge(local)
			pools.PutIDs(local)
			return done
		})

		tracker.LogProgress(out.Processed)
		pools.PutIDs(level)
		current = next.nodes
		if len(current) > 0 {
			result.Depth++
		}
		if out.Terminated {
			result.Terminated = true
			break
		}
	}
	pools.PutIDs(current)
	result.Reached = visited.Cardinality()

	if result.Terminated {
		return result, tracker.Checkpoint()
	}
	if err := tracker.EndSubtask(); err != nil {
		return result, err
	}
	return result, nil
}

// ShortestPath returns an unweighted shortest path from start to end with
// at most maxDepth hops. The search stops at the first level that reaches
// end.
func ShortestPath(g Graph, start, end uint64, maxDepth int, ex *Executor) ([]uint64, error) {
	if ex == nil {
		ex = &Executor{}
	}
	n := g.NodeCount()
	if start >= n || end >= n {
		return nil, fmt.Errorf("%w: path %d -> %d (node count %d)", ErrNodeNotFound, start, end, n)
	}
	if start == end {
		return []uint64{start}, nil
	}

	visited, err := paged.NewAtomicBitSetWithPageShift(n, ex.pageShift())
	if err != nil {
		return nil, err
	}
	// Paths touch few nodes; parents are kept sparse.
	parent, err := paged.NewSparseWithPageShift[uint64](n, start, ex.pageShift())
	if err != nil {
		return nil, err
	}
	_ = visited.Set(start)

	current := append(pools.GetIDs(1), start)
	defer func() { pools.PutIDs(current) }()

	for depth := 0; depth < maxDepth && len(current) > 0; depth++ {
		level := current
		next := &frontier{nodes: pools.GetIDs(len(level))}

		parts := partition.DegreePartitions(uint64(len(level)), ex.concurrency(),
			partition.DegreeFunc(func(i uint64) uint64 { return g.Degree(level[i]) }))

		out := ex.RunDegreePartitions(parts, func(p partition.Partition) uint64 {
			local := pools.GetIDs(pools.SmallBatch)
			var done uint64
			for i := range p.Nodes() {
				if !ex.Running(done) {
					break
				}
				source := level[i]
				g.ForEachNeighbor(source, func(target uint64, _ float64) bool {
					if seen, _ := visited.GetAndSet(target); !seen {
						_ = parent.Set(target, source)
						local = append(local, target)
					}
					return true
				})
				done++
			}
			next.merge(local)
			pools.PutIDs(local)
			return done
		})

		pools.PutIDs(level)
		current = next.nodes
		if out.Terminated {
			return nil, ex.Flag.AssertRunning()
		}
		if found, _ := visited.Get(end); found {
			return reconstructPath(parent, start, end)
		}
	}
	return nil, fmt.Errorf("%w: %d -> %d within %d hops", ErrNoPath, start, end, maxDepth)
}

func reconstructPath(parent *paged.SparseArray[uint64], start, end uint64) ([]uint64, error) {
	path := []uint64{end}
	for cur := end; cur != start; {
		p, err := parent.Get(cur)
		if err != nil {
			return nil, err
		}
		path = append(path, p)
		cur = p
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}
