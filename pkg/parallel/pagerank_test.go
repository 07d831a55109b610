package parallel

import (
	"errors"
	"math"
	"testing"

	"github.com/dd0wney/cluso-gds/pkg/paged"
	"github.com/dd0wney/cluso-gds/pkg/progress"
)

// cycleGraph builds 0 - 1 - ... - (n-1) - 0.
func cycleGraph(t *testing.T, n uint64) *CSR {
	t.Helper()
	var edges []Edge
	for i := uint64(0); i < n; i++ {
		edges = append(edges, Edge{Source: i, Target: (i + 1) % n, Weight: 1})
	}
	g, err := NewCSR(n, Undirected(edges))
	if err != nil {
		t.Fatalf("Failed to build cycle graph: %v", err)
	}
	return g
}

func scoreSum(t *testing.T, scores *paged.Array[float64]) float64 {
	t.Helper()
	return paged.Sum(scores)
}

func TestPageRank_EmptyGraph(t *testing.T) {
	ex, _ := newTestExecutor(t, 2)
	g, err := NewCSR(0, nil)
	if err != nil {
		t.Fatalf("NewCSR failed: %v", err)
	}

	result, err := PageRank(g, DefaultPageRankOptions(), ex, nil)
	if err != nil {
		t.Fatalf("PageRank failed: %v", err)
	}
	if !result.Converged || result.Iterations != 0 {
		t.Errorf("Expected immediate convergence, got %+v", result)
	}
}

func TestPageRank_SingleNode(t *testing.T) {
	ex, _ := newTestExecutor(t, 2)
	g := pathGraph(t, 1)

	result, err := PageRank(g, DefaultPageRankOptions(), ex, nil)
	if err != nil {
		t.Fatalf("PageRank failed: %v", err)
	}
	if score, _ := result.Scores.Get(0); math.Abs(score-1) > 1e-12 {
		t.Errorf("Expected the only node to hold all mass, got %v", score)
	}
	if !result.Converged || result.Iterations != 1 {
		t.Errorf("Expected convergence after one iteration, got %d", result.Iterations)
	}
}

// TestPageRank_Cycle: every node is symmetric, so the uniform start is
// already the fixed point.
func TestPageRank_Cycle(t *testing.T) {
	ex, _ := newTestExecutor(t, 4)
	g := cycleGraph(t, 100)

	result, err := PageRank(g, DefaultPageRankOptions(), ex, nil)
	if err != nil {
		t.Fatalf("PageRank failed: %v", err)
	}
	if !result.Converged || result.Iterations != 1 {
		t.Errorf("Expected convergence after one iteration, got %d (converged=%v)",
			result.Iterations, result.Converged)
	}
	for node, score := range result.Scores.All() {
		if math.Abs(score-0.01) > 1e-9 {
			t.Fatalf("Node %d: expected 0.01, got %v", node, score)
		}
	}
}

func TestPageRank_StarCenterWins(t *testing.T) {
	ex, _ := newTestExecutor(t, 4)
	g, err := Generate(KindStar, 50, 0, 0)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	opts := DefaultPageRankOptions()
	opts.MaxIterations = 200
	opts.TopN = 3
	result, err := PageRank(g, opts, ex, nil)
	if err != nil {
		t.Fatalf("PageRank failed: %v", err)
	}
	if !result.Converged {
		t.Errorf("Expected convergence within 200 iterations")
	}
	if sum := scoreSum(t, result.Scores); math.Abs(sum-1) > 1e-9 {
		t.Errorf("Expected scores to sum to 1, got %v", sum)
	}
	if len(result.TopNodes) != 3 {
		t.Fatalf("Expected 3 top nodes, got %d", len(result.TopNodes))
	}
	if result.TopNodes[0].NodeID != 0 {
		t.Errorf("Expected the center first, got %d", result.TopNodes[0].NodeID)
	}
	for i := 1; i < len(result.TopNodes); i++ {
		if result.TopNodes[i].Score > result.TopNodes[i-1].Score {
			t.Errorf("Top nodes not sorted: %+v", result.TopNodes)
		}
	}
}

func TestPageRank_InvalidOptions(t *testing.T) {
	g := pathGraph(t, 3)
	tests := []PageRankOptions{
		{DampingFactor: 1, MaxIterations: 10},
		{DampingFactor: -0.1, MaxIterations: 10},
		{DampingFactor: 0.85, MaxIterations: 0},
	}
	for _, opts := range tests {
		if _, err := PageRank(g, opts, nil, nil); !errors.Is(err, ErrInvalidOptions) {
			t.Errorf("%+v: expected ErrInvalidOptions, got %v", opts, err)
		}
	}
}

// TestPageRank_IterationTasks checks the iterative task: one finished leaf
// per iteration run, the rest canceled on convergence.
func TestPageRank_IterationTasks(t *testing.T) {
	ex, _ := newTestExecutor(t, 2)
	g := cycleGraph(t, 10)
	opts := DefaultPageRankOptions()

	task := PageRankTask(g, opts)
	tracker := progress.NewTaskTracker(task, progress.WithTaskStore(progress.EmptyTaskStore{}))
	defer tracker.Release()

	// The tracker's base is the PageRank task itself.
	result, err := PageRank(g, opts, ex, tracker)
	if err != nil {
		t.Fatalf("PageRank failed: %v", err)
	}

	if task.Status() != progress.Finished {
		t.Errorf("Expected PageRank FINISHED, got %s", task.Status())
	}
	if got := task.CurrentIteration(); got != result.Iterations {
		t.Errorf("Expected %d finished iterations, got %d", result.Iterations, got)
	}
	children := task.Children()
	if len(children) != opts.MaxIterations {
		t.Fatalf("Expected %d iteration tasks, got %d", opts.MaxIterations, len(children))
	}
	if children[0].Status() != progress.Finished {
		t.Errorf("First iteration should be FINISHED, got %s", children[0].Status())
	}
	if last := children[len(children)-1]; last.Status() != progress.Canceled {
		t.Errorf("Unused iterations should be CANCELED, got %s", last.Status())
	}
}

func TestPageRank_Stopped(t *testing.T) {
	ex, flag := newTestExecutor(t, 2)
	g := cycleGraph(t, 10)
	flag.Stop()

	result, err := PageRank(g, DefaultPageRankOptions(), ex, nil)
	if err != nil {
		t.Fatalf("Expected no error without a tracker, got %v", err)
	}
	if !result.Terminated || result.Converged {
		t.Errorf("Expected a terminated, unconverged result, got %+v", result)
	}
}
