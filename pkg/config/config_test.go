package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-gds/pkg/concurrency"
	"github.com/dd0wney/cluso-gds/pkg/logging"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, concurrency.Available().Value(), cfg.Concurrency)
	assert.Equal(t, uint(14), cfg.PageShift)
	assert.Equal(t, uint64(8192), cfg.Progress.MaxLogInterval)
	assert.Equal(t, uint64(256), cfg.Termination.PollInterval)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg := Default()
	err := Parse([]byte(`
concurrency: 8
page_shift: 10
log:
  level: debug
progress:
  max_log_interval: 1024
metrics:
  enabled: true
  addr: "localhost:9100"
`), cfg)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, uint(10), cfg.PageShift)
	assert.Equal(t, "DEBUG", cfg.Log.Level)
	assert.Equal(t, logging.DebugLevel, cfg.LogLevel())
	assert.Equal(t, uint64(1024), cfg.Progress.MaxLogInterval)
	assert.True(t, cfg.Progress.Enabled, "absent keys keep defaults")
	assert.Equal(t, "localhost:9100", cfg.Metrics.Addr)
}

func TestParseRejectsBadYAML(t *testing.T) {
	err := Parse([]byte("concurrency: [1, 2"), Default())
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Concurrency = 0
	cfg.PageShift = 40
	cfg.Progress.MaxLogInterval = 1000
	cfg.Log.Level = "LOUD"
	cfg.Termination.PollInterval = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Problems, 5)
	assert.Contains(t, err.Error(), "Concurrency: must be at least 1")
	assert.Contains(t, err.Error(), "PageShift: must not exceed 30")
	assert.Contains(t, err.Error(), "Progress.MaxLogInterval: 1000 is not a power of two")
	assert.Contains(t, err.Error(), "Log.Level")
}

func TestValidateMetricsAddr(t *testing.T) {
	cfg := Default()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Addr = ""
	assert.ErrorContains(t, cfg.Validate(), "Metrics.Addr: field is required")

	cfg.Metrics.Addr = "not an address"
	assert.ErrorContains(t, cfg.Validate(), "not a host:port address")

	cfg.Metrics.Addr = ":9090"
	assert.NoError(t, cfg.Validate())
}

func TestValidateNil(t *testing.T) {
	var cfg *Config
	assert.True(t, errors.Is(cfg.Validate(), ErrInvalidConfig))
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{
		EnvConcurrency: " 3 ",
		EnvPageShift:   "8",
		EnvLogLevel:    "warn",
		EnvMetricsAddr: ":9200",
	}))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, uint(8), cfg.PageShift)
	assert.Equal(t, "WARN", cfg.Log.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9200", cfg.Metrics.Addr)
}

func TestApplyEnvRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"concurrency", EnvConcurrency, "many"},
		{"page shift", EnvPageShift, "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Default().ApplyEnv(env(map[string]string{tt.key: tt.val}))
			assert.True(t, errors.Is(err, ErrInvalidConfig))
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("concurrency: 2\n"), 0o600))
	t.Setenv(EnvPageShift, "12")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Concurrency)
	assert.Equal(t, uint(12), cfg.PageShift)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	t.Setenv(EnvConcurrency, "0")
	_, err = Load("")
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestDerivedComponents(t *testing.T) {
	cfg := Default()
	cfg.Concurrency = 3
	cfg.Termination.PollInterval = 64
	cfg.PageShift = 10

	workers, err := cfg.WorkerCount()
	require.NoError(t, err)
	assert.Equal(t, 3, workers.Value())

	ex, err := cfg.Executor(nil)
	require.NoError(t, err)
	assert.Equal(t, 3, ex.Concurrency.Value())
	assert.Equal(t, uint64(64), ex.PollInterval)
	assert.Equal(t, uint(10), ex.PageShift)

	opts, err := cfg.CSROptions()
	require.NoError(t, err)
	assert.Equal(t, 3, opts.Concurrency.Value())
	assert.Equal(t, uint(10), opts.PageShift)

	assert.Len(t, cfg.TrackerOptions(logging.NewNopLogger()), 3)
	cfg.Progress.Enabled = false
	assert.Len(t, cfg.TrackerOptions(logging.NewNopLogger()), 2)

	cfg.Concurrency = 0
	_, err = cfg.Executor(nil)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	_, err = cfg.CSROptions()
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Concurrency = 5
	data, err := cfg.Marshal()
	require.NoError(t, err)

	back := &Config{}
	require.NoError(t, Parse(data, back))
	assert.Equal(t, cfg, back)
}
