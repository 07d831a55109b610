package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-gds/pkg/paged"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate memory for a graph and the run's working arrays",
	Long: `Estimate the paged memory a graph of --nodes nodes and --degree average
degree needs, plus the per-node arrays the drivers allocate, using the
configured page size. Nothing is allocated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		shift := cfg.PageShift
		rels := nodeCount * avgDegree

		rows := []struct {
			name  string
			bytes uint64
		}{
			{"offsets", paged.SizeOfWithPageShift(nodeCount+1, 8, shift)},
			{"targets", paged.SizeOfWithPageShift(rels, 8, shift)},
			{"weights", paged.SizeOfWithPageShift(rels, 8, shift)},
			{"bfs distances", paged.SizeOfWithPageShift(nodeCount, 8, shift)},
			{"bfs visited", paged.SizeOfWithPageShift((nodeCount+63)/64, 8, shift)},
			{"weighted degrees", paged.SizeOfWithPageShift(nodeCount, 8, shift)},
		}

		var total uint64
		fmt.Printf("%d nodes, %d relationships, pages of %d elements\n\n", nodeCount, rels, uint64(1)<<shift)
		for _, r := range rows {
			fmt.Printf("  %-18s %s\n", r.name, humanBytes(r.bytes))
			total += r.bytes
		}
		fmt.Printf("  %-18s %s\n", "total", humanBytes(total))
		return nil
	},
}

func init() {
	estimateCmd.Flags().Uint64VarP(&nodeCount, "nodes", "n", 100_000, "Node count")
	estimateCmd.Flags().Uint64VarP(&avgDegree, "degree", "d", 8, "Average relationships per node")

	rootCmd.AddCommand(estimateCmd)
}

func humanBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
