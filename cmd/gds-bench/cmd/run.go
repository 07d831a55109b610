package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-gds/pkg/concurrency"
	"github.com/dd0wney/cluso-gds/pkg/health"
	"github.com/dd0wney/cluso-gds/pkg/logging"
	"github.com/dd0wney/cluso-gds/pkg/parallel"
	"github.com/dd0wney/cluso-gds/pkg/progress"
)

var (
	graphKind string
	nodeCount uint64
	avgDegree uint64
	seed      uint64
	startNode uint64
	timeout   time.Duration
	hold      time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run degree statistics, BFS and PageRank on a generated graph",
	Long: `Generate a graph and run the degree sum, weighted degree, BFS and PageRank
drivers under a single task tree. Ctrl-C or --timeout stops the run cooperatively;
finished phases keep their results and the rest of the tree is canceled.`,
	RunE: runBench,
}

func init() {
	addGraphFlags(runCmd)
	runCmd.Flags().Uint64Var(&startNode, "start", 0, "BFS start node")
	runCmd.Flags().DurationVar(&timeout, "timeout", 0, "Stop the run after this long (0 = no limit)")
	runCmd.Flags().DurationVar(&hold, "hold", 0, "Keep serving metrics this long after the run")

	rootCmd.AddCommand(runCmd)
}

func addGraphFlags(c *cobra.Command) {
	c.Flags().StringVarP(&graphKind, "graph", "g", parallel.KindGrid, "Graph kind: path, grid, star, random")
	c.Flags().Uint64VarP(&nodeCount, "nodes", "n", 100_000, "Node count")
	c.Flags().Uint64VarP(&avgDegree, "degree", "d", 8, "Average degree for random graphs")
	c.Flags().Uint64Var(&seed, "seed", 42, "Random seed")
}

func runBench(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	build := logging.StartTimer(logger, "generating graph",
		logging.String("kind", graphKind), logging.Uint64("nodes", nodeCount))
	opts, err := cfg.CSROptions()
	if err != nil {
		return err
	}
	g, err := parallel.GenerateWithOptions(graphKind, nodeCount, avgDegree, seed, opts)
	if err != nil {
		return err
	}
	build.End(logging.Uint64("relationships", g.RelationshipCount()))

	pools := concurrency.NewPoolRegistry(
		concurrency.WithLogger(logger),
		concurrency.WithMetrics(registry))
	defer pools.Close()
	checker.Register("pools", health.PoolCheck(pools))

	base, err := cfg.Executor(nil)
	if err != nil {
		return err
	}
	base.Registry = pools
	base.Logger = logger.With(logging.Component("executor"))
	ex, release := base.WithContext(ctx)
	defer release()
	checker.RegisterReadiness("termination", health.TerminationCheck(ex.Flag))

	root := parallel.PipelineTask("gds-bench", g)
	trackerOpts := append(cfg.TrackerOptions(logger),
		progress.WithTerminationFlag(ex.Flag),
		progress.WithMetrics(registry))
	tracker := progress.NewTaskTracker(root, trackerOpts...)
	defer tracker.Release()

	fmt.Printf("Graph:        %s, %d nodes, %d relationships\n", graphKind, g.NodeCount(), g.RelationshipCount())
	fmt.Printf("Concurrency:  %d workers\n", ex.Concurrency.Value())
	fmt.Printf("Job:          %s\n\n", tracker.JobID())

	start := time.Now()
	report, err := parallel.RunPipeline(g, startNode, ex, tracker)
	elapsed := time.Since(start)
	printReport(report)

	fmt.Printf("\n%s", progress.Render(root))
	fmt.Printf("Elapsed:      %v\n", elapsed.Round(time.Millisecond))

	if errors.Is(err, concurrency.ErrTerminated) {
		fmt.Printf("Stopped:      %s\n", ex.Flag.Reason())
		return nil
	}
	if err != nil {
		return err
	}

	if hold > 0 && server != nil {
		logger.Info("holding for metrics scrape", logging.Duration("hold", hold))
		select {
		case <-time.After(hold):
		case <-ctx.Done():
		}
	}
	return nil
}

func printReport(r *parallel.Report) {
	if r == nil {
		return
	}
	if d := r.Degrees; d != nil {
		fmt.Printf("Degree sum:   total=%d max=%d min=%d\n", d.Total, d.Max, d.Min)
	}
	if w := r.Weighted; w != nil {
		fmt.Printf("Weighted:     total=%.2f max=%.2f\n", w.Total, w.Max)
	}
	if b := r.BFS; b != nil {
		fmt.Printf("BFS:          reached=%d depth=%d\n", b.Reached, b.Depth)
	}
	if pr := r.PageRank; pr != nil {
		fmt.Printf("PageRank:     %d iterations, converged=%v\n", pr.Iterations, pr.Converged)
		for i, rn := range pr.TopNodes {
			fmt.Printf("  #%-2d node %-10d %.6f\n", i+1, rn.NodeID, rn.Score)
		}
	}
}
