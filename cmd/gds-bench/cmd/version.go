package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-gds/pkg/paged"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=..."
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and runtime information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s\n", BinName(), Version)
		fmt.Printf("  go:          %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		fmt.Printf("  cpus:        %d\n", runtime.NumCPU())
		fmt.Printf("  page shift:  %d (%d elements per page, default %d)\n",
			cfg.PageShift, uint64(1)<<cfg.PageShift, paged.DefaultPageShift)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
