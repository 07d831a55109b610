// Package config loads the runtime settings shared by the tools: worker
// count, page size, logging, progress and termination polling, and the
// metrics endpoint. Settings come from defaults, an optional YAML file and
// GDS_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-gds/pkg/concurrency"
	"github.com/dd0wney/cluso-gds/pkg/logging"
	"github.com/dd0wney/cluso-gds/pkg/paged"
	"github.com/dd0wney/cluso-gds/pkg/parallel"
	"github.com/dd0wney/cluso-gds/pkg/progress"
)

// Environment variables read by Load and ApplyEnv.
const (
	EnvConcurrency = "GDS_CONCURRENCY"
	EnvLogLevel    = logging.EnvLogLevel
	EnvPageShift   = "GDS_PAGE_SHIFT"
	EnvMetricsAddr = "GDS_METRICS_ADDR"
)

// ErrInvalidConfig wraps every load and validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the runtime settings.
type Config struct {
	Concurrency int               `yaml:"concurrency" validate:"min=1,max=1073741823"`
	PageShift   uint              `yaml:"page_shift" validate:"min=6,max=30"`
	Log         LogConfig         `yaml:"log"`
	Progress    ProgressConfig    `yaml:"progress"`
	Termination TerminationConfig `yaml:"termination"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=DEBUG INFO WARN ERROR"`
}

// ProgressConfig configures progress logging.
type ProgressConfig struct {
	Enabled        bool   `yaml:"enabled"`
	MaxLogInterval uint64 `yaml:"max_log_interval" validate:"pow2,max=8192"`
}

// TerminationConfig configures how often workers poll the termination flag.
type TerminationConfig struct {
	PollInterval uint64 `yaml:"poll_interval" validate:"min=1"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr" validate:"omitempty,hostname_port"`
}

// Default returns settings for this machine: one worker per CPU.
func Default() *Config {
	return &Config{
		Concurrency: concurrency.Available().Value(),
		PageShift:   paged.DefaultPageShift,
		Log:         LogConfig{Level: logging.InfoLevel.String()},
		Progress: ProgressConfig{
			Enabled:        true,
			MaxLogInterval: progress.MaxLogInterval,
		},
		Termination: TerminationConfig{PollInterval: parallel.DefaultPollInterval},
		Metrics:     MetricsConfig{Addr: ":9090"},
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		if err := Parse(data, cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg. Keys absent from data keep their values.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cfg.normalize()
	return nil
}

// ApplyEnv overrides settings from the environment through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvConcurrency); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %w", ErrInvalidConfig, EnvConcurrency, v, err)
		}
		c.Concurrency = n
	}
	if v, ok := lookup(EnvPageShift); ok {
		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %w", ErrInvalidConfig, EnvPageShift, v, err)
		}
		c.PageShift = uint(n)
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvMetricsAddr); ok && v != "" {
		c.Metrics.Enabled = true
		c.Metrics.Addr = v
	}
	c.normalize()
	return nil
}

func (c *Config) normalize() {
	c.Log.Level = strings.ToUpper(strings.TrimSpace(c.Log.Level))
}

// WorkerCount returns the validated concurrency.
func (c *Config) WorkerCount() (concurrency.Concurrency, error) {
	return concurrency.Of(c.Concurrency)
}

// LogLevel returns the configured level.
func (c *Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Log.Level)
}

// NewLogger creates a JSON logger at the configured level.
func (c *Config) NewLogger() logging.Logger {
	return logging.NewJSONLogger(os.Stderr, c.LogLevel())
}

// Executor returns an executor using the configured worker count and poll
// interval.
func (c *Config) Executor(flag *concurrency.TerminationFlag) (*parallel.Executor, error) {
	workers, err := c.WorkerCount()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	ex := parallel.NewExecutor(workers, flag)
	ex.PollInterval = c.Termination.PollInterval
	ex.PageShift = c.PageShift
	return ex, nil
}

// CSROptions returns the graph construction options implied by the settings.
func (c *Config) CSROptions() (parallel.CSROptions, error) {
	workers, err := c.WorkerCount()
	if err != nil {
		return parallel.CSROptions{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return parallel.CSROptions{Concurrency: workers, PageShift: c.PageShift}, nil
}

// TrackerOptions returns the tracker options implied by the settings.
func (c *Config) TrackerOptions(logger logging.Logger) []progress.TrackerOption {
	opts := []progress.TrackerOption{progress.WithMaxLogInterval(c.Progress.MaxLogInterval)}
	if workers, err := c.WorkerCount(); err == nil {
		opts = append(opts, progress.WithConcurrency(workers))
	}
	if c.Progress.Enabled {
		opts = append(opts, progress.WithLogger(logger))
	}
	return opts
}

// Marshal renders the settings as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
