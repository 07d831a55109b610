package parallel

import (
	"testing"

	"github.com/dd0wney/cluso-gds/pkg/concurrency"
)

// newTestExecutor returns an executor on a private pool registry.
func newTestExecutor(t *testing.T, workers int) (*Executor, *concurrency.TerminationFlag) {
	t.Helper()
	reg := concurrency.NewPoolRegistry()
	t.Cleanup(reg.Close)

	flag := concurrency.NewTerminationFlag()
	ex := &Executor{
		Concurrency:  concurrency.MustOf(workers),
		Flag:         flag,
		Registry:     reg,
		PollInterval: DefaultPollInterval,
	}
	return ex, flag
}

// pathGraph builds 0 - 1 - ... - (n-1) as an undirected graph.
func pathGraph(t *testing.T, n uint64) *CSR {
	t.Helper()
	var edges []Edge
	for i := uint64(1); i < n; i++ {
		edges = append(edges, Edge{Source: i - 1, Target: i, Weight: 1})
	}
	g, err := NewCSR(n, Undirected(edges))
	if err != nil {
		t.Fatalf("Failed to build path graph: %v", err)
	}
	return g
}

// gridGraph builds a rows x cols undirected lattice.
func gridGraph(t *testing.T, rows, cols uint64) *CSR {
	t.Helper()
	var edges []Edge
	id := func(r, c uint64) uint64 { return r*cols + c }
	for r := uint64(0); r < rows; r++ {
		for c := uint64(0); c < cols; c++ {
			if c+1 < cols {
				edges = append(edges, Edge{Source: id(r, c), Target: id(r, c+1), Weight: 1})
			}
			if r+1 < rows {
				edges = append(edges, Edge{Source: id(r, c), Target: id(r+1, c), Weight: 1})
			}
		}
	}
	g, err := NewCSR(rows*cols, Undirected(edges))
	if err != nil {
		t.Fatalf("Failed to build grid graph: %v", err)
	}
	return g
}
