package parallel

import (
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-gds/pkg/concurrency"
	"github.com/dd0wney/cluso-gds/pkg/progress"
)

// Report collects the results of RunPipeline. Phases that did not run
// before termination are left nil.
type Report struct {
	Degrees  *DegreeStats
	Weighted *WeightedDegrees
	BFS      *BFSResult
	PageRank *PageRankResult
}

// PipelineTask is the task tree RunPipeline reports into: one child per
// phase, in execution order.
func PipelineTask(name string, g Graph) *progress.Task {
	return progress.Composite(name,
		DegreeSumTask(g),
		WeightedDegreeTask(g),
		BFSTask(g),
		PageRankTask(g, DefaultPageRankOptions()))
}

// RunPipeline runs the degree sum, weighted degree, BFS and PageRank drivers
// in sequence. tracker must be built on a PipelineTask tree. Termination
// returns the partial report with an error wrapping ErrTerminated.
func RunPipeline(g Graph, start uint64, ex *Executor, tracker progress.Tracker) (*Report, error) {
	if tracker == nil {
		tracker = progress.NopTracker{}
	}
	if ex == nil {
		ex = &Executor{}
	}
	if n := g.NodeCount(); start >= n {
		return nil, fmt.Errorf("%w: %d (node count %d)", ErrNodeNotFound, start, n)
	}
	if err := tracker.BeginSubtask(); err != nil {
		return nil, err
	}

	report := &Report{}
	fail := func(err error) (*Report, error) {
		if !errors.Is(err, concurrency.ErrTerminated) {
			_ = tracker.EndSubtaskWithFailure()
		}
		return report, err
	}

	stats, out, err := DegreeSum(g, ex, tracker)
	if err != nil {
		return fail(err)
	}
	report.Degrees = &stats
	if out.Terminated {
		return report, ex.Flag.AssertRunning()
	}

	weighted, out, err := WeightedDegree(g, ex, tracker)
	if err != nil {
		return fail(err)
	}
	report.Weighted = weighted
	if out.Terminated {
		return report, ex.Flag.AssertRunning()
	}

	bfs, err := BFS(g, start, ex, tracker)
	if err != nil {
		return fail(err)
	}
	report.BFS = bfs
	if bfs.Terminated {
		return report, ex.Flag.AssertRunning()
	}

	rank, err := PageRank(g, DefaultPageRankOptions(), ex, tracker)
	if err != nil {
		return fail(err)
	}
	report.PageRank = rank
	if rank.Terminated {
		return report, ex.Flag.AssertRunning()
	}

	return report, tracker.EndSubtask()
}
