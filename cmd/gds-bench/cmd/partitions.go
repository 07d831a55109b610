package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-gds/pkg/parallel"
	"github.com/dd0wney/cluso-gds/pkg/partition"
)

var (
	partitionKind string
	alignTo       uint64
	minBatch      uint64
	tolerance     float64
)

var partitionsCmd = &cobra.Command{
	Use:   "partitions",
	Short: "Show how a generated graph is split into partitions",
	Long: `Split a generated graph the way the drivers would and print every
partition with its node count, summed degree and the overall balance.`,
	RunE: showPartitions,
}

func init() {
	addGraphFlags(partitionsCmd)
	partitionsCmd.Flags().StringVarP(&partitionKind, "kind", "k", "range", "Partitioning: range, degree, aligned, batched")
	partitionsCmd.Flags().Uint64Var(&alignTo, "align", 64, "Alignment for aligned partitions")
	partitionsCmd.Flags().Uint64Var(&minBatch, "min-batch", 10_000, "Minimum batch size for batched partitions")
	partitionsCmd.Flags().Float64Var(&tolerance, "tolerance", 0.1, "Report partitions this far above the mean size")

	rootCmd.AddCommand(partitionsCmd)
}

func showPartitions(cmd *cobra.Command, args []string) error {
	opts, err := cfg.CSROptions()
	if err != nil {
		return err
	}
	g, err := parallel.GenerateWithOptions(graphKind, nodeCount, avgDegree, seed, opts)
	if err != nil {
		return err
	}
	workers, err := cfg.WorkerCount()
	if err != nil {
		return err
	}
	degrees := parallel.Degrees(g)
	n := g.NodeCount()

	var parts []partition.Partition
	switch partitionKind {
	case "range":
		parts = partition.RangePartitions(n, workers)
	case "degree":
		for _, p := range partition.DegreePartitions(n, workers, degrees) {
			parts = append(parts, p.Partition)
		}
	case "aligned":
		parts = partition.NumberAlignedPartitions(n, workers, alignTo)
	case "batched":
		parts = partition.RangePartitionsWithBatchSize(n, workers, minBatch)
	default:
		return fmt.Errorf("unknown partition kind %q", partitionKind)
	}

	m := partition.ComputeMetrics(parts, degrees)

	fmt.Printf("%s partitions of %d nodes for %d workers\n", partitionKind, n, workers.Value())
	fmt.Println(strings.Repeat("=", 56))
	fmt.Printf("%4s  %12s  %12s  %12s\n", "#", "start", "nodes", "degree")
	for i, p := range parts {
		fmt.Printf("%4d  %12d  %12d  %12d\n", i, p.Start, p.Length, m.Weights[i])
	}
	fmt.Println(strings.Repeat("-", 56))
	fmt.Printf("Node balance:    %.3f\n", m.LoadBalance)
	fmt.Printf("Degree balance:  %.3f\n", m.WeightBalance)
	if over := m.Overloaded(tolerance); len(over) > 0 {
		fmt.Printf("Overloaded:      %v\n", over)
	}
	return nil
}
