package parallel

import (
	"cmp"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/dd0wney/cluso-gds/pkg/concurrency"
	"github.com/dd0wney/cluso-gds/pkg/paged"
	"github.com/dd0wney/cluso-gds/pkg/partition"
)

// Graph is the adjacency view traversed by the drivers. Implementations
// must be safe for concurrent reads.
type Graph interface {
	NodeCount() uint64
	Degree(node uint64) uint64
	// ForEachNeighbor calls fn for every outgoing relationship of node
	// until fn returns false.
	ForEachNeighbor(node uint64, fn func(target uint64, weight float64) bool)
}

// Degrees adapts g for degree partitioning.
func Degrees(g Graph) partition.DegreeFunc {
	return g.Degree
}

// Edge is a directed, weighted relationship.
type Edge struct {
	Source uint64
	Target uint64
	Weight float64
}

// Undirected returns edges plus their reversals.
func Undirected(edges []Edge) []Edge {
	out := make([]Edge, 0, 2*len(edges))
	for _, e := range edges {
		out = append(out, e, Edge{Source: e.Target, Target: e.Source, Weight: e.Weight})
	}
	return out
}

// CSR is an immutable graph in compressed sparse row form, stored on paged
// arrays so that node and relationship counts are not limited by the
// maximum slice size.
type CSR struct {
	nodeCount uint64
	offsets   *paged.Array[uint64]
	targets   *paged.Array[uint64]
	weights   *paged.Array[float64]
}

// CSROptions tunes graph construction. The zero value builds on one
// goroutine with the default page size.
type CSROptions struct {
	Concurrency concurrency.Concurrency
	PageShift   uint
}

// NewCSR builds a graph with nodeCount nodes. Relationships of a node keep
// the order in which they appear in edges.
func NewCSR(nodeCount uint64, edges []Edge) (*CSR, error) {
	return BuildCSR(nodeCount, edges, CSROptions{})
}

// BuildCSR is NewCSR with explicit options. Relationships are grouped by
// source and the offsets, targets and weights are then written to paged
// builders by range partitions in parallel.
func BuildCSR(nodeCount uint64, edges []Edge, opts CSROptions) (*CSR, error) {
	shift := opts.PageShift
	if shift == 0 {
		shift = paged.DefaultPageShift
	}
	c := opts.Concurrency
	if !c.IsValid() {
		c = concurrency.Single
	}

	offsets := make([]uint64, nodeCount+1)
	for i, e := range edges {
		if e.Source >= nodeCount || e.Target >= nodeCount {
			return nil, fmt.Errorf("%w: edge %d (%d -> %d) with %d nodes",
				ErrInvalidEdge, i, e.Source, e.Target, nodeCount)
		}
		offsets[e.Source+1]++
	}
	for node := uint64(1); node <= nodeCount; node++ {
		offsets[node] += offsets[node-1]
	}

	sorted := slices.Clone(edges)
	slices.SortStableFunc(sorted, func(a, b Edge) int {
		return cmp.Compare(a.Source, b.Source)
	})
	targets := make([]uint64, len(sorted))
	weights := make([]float64, len(sorted))
	for i, e := range sorted {
		targets[i], weights[i] = e.Target, e.Weight
	}

	g := &CSR{nodeCount: nodeCount}
	var err error
	if g.offsets, err = buildPaged(offsets, shift, c); err != nil {
		return nil, err
	}
	if g.targets, err = buildPaged(targets, shift, c); err != nil {
		return nil, err
	}
	if g.weights, err = buildPaged(weights, shift, c); err != nil {
		return nil, err
	}
	return g, nil
}

// buildPaged copies data into a paged array, one range partition per goroutine.
func buildPaged[T any](data []T, shift uint, c concurrency.Concurrency) (*paged.Array[T], error) {
	b, err := paged.NewBuilderWithPageShift[T](shift)
	if err != nil {
		return nil, err
	}
	var eg errgroup.Group
	eg.SetLimit(c.Value())
	for _, p := range partition.RangePartitions(uint64(len(data)), c) {
		eg.Go(func() error {
			return b.WriteRange(p.Start, data[p.Start:p.End()])
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return b.Build(uint64(len(data)))
}

// NodeCount returns the number of nodes.
func (g *CSR) NodeCount() uint64 {
	return g.nodeCount
}

// RelationshipCount returns the number of stored relationships.
func (g *CSR) RelationshipCount() uint64 {
	return g.targets.Length()
}

func (g *CSR) bounds(node uint64) (uint64, uint64) {
	if node >= g.nodeCount {
		return 0, 0
	}
	start, _ := g.offsets.Get(node)
	end, _ := g.offsets.Get(node + 1)
	return start, end
}

// Degree returns the out-degree of node, or zero for unknown nodes.
func (g *CSR) Degree(node uint64) uint64 {
	start, end := g.bounds(node)
	return end - start
}

// ForEachNeighbor implements Graph.
func (g *CSR) ForEachNeighbor(node uint64, fn func(target uint64, weight float64) bool) {
	start, end := g.bounds(node)
	for pos := start; pos < end; pos++ {
		t, _ := g.targets.Get(pos)
		w, _ := g.weights.Get(pos)
		if !fn(t, w) {
			return
		}
	}
}

var _ Graph = (*CSR)(nil)
