package parallel

import (
	"errors"
	"testing"

	"github.com/dd0wney/cluso-gds/pkg/concurrency"
	"github.com/dd0wney/cluso-gds/pkg/progress"
)

func TestRunPipeline(t *testing.T) {
	ex, _ := newTestExecutor(t, 4)
	g := gridGraph(t, 20, 20)

	root := PipelineTask("pipeline", g)
	tracker := progress.NewTaskTracker(root, progress.WithTaskStore(progress.EmptyTaskStore{}))
	defer tracker.Release()

	report, err := RunPipeline(g, 0, ex, tracker)
	if err != nil {
		t.Fatalf("RunPipeline failed: %v", err)
	}
	if report.Degrees == nil || report.Weighted == nil || report.BFS == nil || report.PageRank == nil {
		t.Fatalf("Expected every phase in the report, got %+v", report)
	}
	// 2 * (20*19 + 19*20) directed relationships
	if report.Degrees.Total != 1520 {
		t.Errorf("Expected degree total 1520, got %d", report.Degrees.Total)
	}
	if report.BFS.Reached != 400 || report.BFS.Depth != 38 {
		t.Errorf("Expected BFS to reach 400 nodes at depth 38, got %d at %d",
			report.BFS.Reached, report.BFS.Depth)
	}
	if len(report.PageRank.TopNodes) != DefaultPageRankOptions().TopN {
		t.Errorf("Expected %d top nodes, got %d", DefaultPageRankOptions().TopN, len(report.PageRank.TopNodes))
	}
	if root.Status() != progress.Finished {
		t.Errorf("Expected root FINISHED, got %s", root.Status())
	}
}

func TestRunPipelineStopped(t *testing.T) {
	ex, flag := newTestExecutor(t, 2)
	g := gridGraph(t, 10, 10)
	flag.StopWithReason("shutdown")

	report, err := RunPipeline(g, 0, ex, nil)
	if !errors.Is(err, concurrency.ErrTerminated) {
		t.Fatalf("Expected ErrTerminated, got %v", err)
	}
	if report == nil || report.Weighted != nil || report.BFS != nil || report.PageRank != nil {
		t.Errorf("Expected only the first phase in the report, got %+v", report)
	}
}

func TestRunPipelineInvalidStart(t *testing.T) {
	ex, _ := newTestExecutor(t, 2)
	g := pathGraph(t, 5)

	root := PipelineTask("pipeline", g)
	tracker := progress.NewTaskTracker(root, progress.WithTaskStore(progress.EmptyTaskStore{}))
	defer tracker.Release()

	if _, err := RunPipeline(g, 5, ex, tracker); !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("Expected ErrNodeNotFound, got %v", err)
	}
	if root.Status() != progress.NotStarted {
		t.Errorf("Expected root to stay PENDING, got %s", root.Status())
	}
}
