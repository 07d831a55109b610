package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-gds/pkg/config"
	"github.com/dd0wney/cluso-gds/pkg/health"
	"github.com/dd0wney/cluso-gds/pkg/logging"
	"github.com/dd0wney/cluso-gds/pkg/metrics"
	"github.com/dd0wney/cluso-gds/pkg/partition"
	"github.com/dd0wney/cluso-gds/pkg/progress"
)

var (
	// Global flags
	configFile  string
	workers     int
	logLevel    string
	metricsAddr string

	cfg      *config.Config
	logger   logging.Logger
	registry *metrics.Registry
	checker  *health.Checker
	server   *http.Server
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "gds-bench",
	Short: "Run graph algorithms on generated graphs",
	Long: `gds-bench drives the parallel substrate end to end: it generates a graph,
partitions it, runs the reference algorithms on the shared worker pools and
reports progress, termination and metrics along the way.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("concurrency") {
			loaded.Concurrency = workers
		}
		if cmd.Flags().Changed("log-level") {
			loaded.Log.Level = strings.ToUpper(logLevel)
		}
		if cmd.Flags().Changed("metrics-addr") {
			loaded.Metrics.Enabled = metricsAddr != ""
			loaded.Metrics.Addr = metricsAddr
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded

		logger = cfg.NewLogger().With(logging.Component("gds-bench"))
		logging.SetDefaultLogger(logger)

		registry = metrics.DefaultRegistry()
		partition.SetMetricsRegistry(registry)
		checker = health.NewChecker()
		checker.Register("tasks", health.TaskCheck(progress.DefaultTaskStore()))
		checker.RegisterLiveness("memory", health.MemoryCheck(0))
		if cfg.Metrics.Enabled {
			startMetricsServer(cfg.Metrics.Addr)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if server == nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	},
}

func startMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry.GetPrometheusRegistry(), promhttp.HandlerOpts{}))
	checker.Mount(mux, "/health")
	server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", logging.Error(err))
		}
	}()
	logger.Info("serving metrics and health", logging.String("addr", addr))
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().IntVarP(&workers, "concurrency", "w", 0, "Worker count (default: CPU count)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	binName := BinName()
	rootCmd.Example = `  # Run every algorithm on a 1M node grid with 8 workers
  ` + binName + ` run --graph grid --nodes 1000000 -w 8

  # Show how a skewed graph is split
  ` + binName + ` partitions --graph star --nodes 100000 --kind degree

  # Expose metrics while running
  ` + binName + ` run --metrics-addr :9090 --hold 30s`
}

// BinName returns the base name of the current executable
func BinName() string {
	return filepath.Base(os.Args[0])
}
