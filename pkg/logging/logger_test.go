package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decode parses every JSON line written to buf.
func decode(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()
	var entries []LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e LogEntry
		require.NoError(t, json.Unmarshal([]byte(line), &e), "line %q", line)
		entries = append(entries, e)
	}
	return entries
}

func TestLevels(t *testing.T) {
	tests := []struct {
		in    string
		level Level
		name  string
	}{
		{"debug", DebugLevel, "DEBUG"},
		{" INFO ", InfoLevel, "INFO"},
		{"warning", WarnLevel, "WARN"},
		{"Error", ErrorLevel, "ERROR"},
		{"verbose", InfoLevel, "INFO"},
	}
	for _, tt := range tests {
		got := ParseLevel(tt.in)
		assert.Equal(t, tt.level, got, "ParseLevel(%q)", tt.in)
		assert.Equal(t, tt.name, got.String())
	}
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

func TestJSONLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("batch done")
	logger.Info("task started")
	logger.Warn("tracker released twice")
	logger.Error("invalid transition")

	entries := decode(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "WARN", entries[0].Level)
	assert.Equal(t, "invalid transition", entries[1].Message)
	assert.False(t, logger.Enabled(InfoLevel))
	assert.True(t, logger.Enabled(ErrorLevel))
}

func TestJSONLoggerEntryShape(t *testing.T) {
	var buf bytes.Buffer
	NewJSONLogger(&buf, DebugLevel).Info("progress",
		Task("BFS"), Percent(40), Volume(1000), Concurrency(4))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	assert.Equal(t, "INFO", raw["level"])
	assert.Equal(t, "progress", raw["msg"])
	_, err := time.Parse(time.RFC3339Nano, raw["time"].(string))
	assert.NoError(t, err)

	fields := raw["fields"].(map[string]any)
	assert.Equal(t, "BFS", fields["task"])
	assert.EqualValues(t, 40, fields["percent"])
	assert.EqualValues(t, 1000, fields["volume"])
	assert.EqualValues(t, 4, fields["concurrency"])
}

func TestJSONLoggerOmitsEmptyFields(t *testing.T) {
	var buf bytes.Buffer
	NewJSONLogger(&buf, InfoLevel).Info("pool created")
	assert.NotContains(t, buf.String(), `"fields"`)
}

func TestWithPresetsFieldsAndSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	parent := NewJSONLogger(&buf, InfoLevel)
	child := parent.With(JobID("job-1"), Component("tracker"))

	child.Info("task started", Task("Root"))
	parent.SetLevel(ErrorLevel)
	child.Info("suppressed by the parent's level")

	entries := decode(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "job-1", entries[0].Fields["job_id"])
	assert.Equal(t, "tracker", entries[0].Fields["component"])
	assert.Equal(t, "Root", entries[0].Fields["task"])
	assert.Equal(t, ErrorLevel, child.GetLevel())
}

func TestCallFieldsOverridePresets(t *testing.T) {
	var buf bytes.Buffer
	NewJSONLogger(&buf, InfoLevel).With(Task("outer")).Info("msg", Task("outer :: inner"))

	entries := decode(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "outer :: inner", entries[0].Fields["task"])
}

func TestFieldValues(t *testing.T) {
	tests := []struct {
		field Field
		key   string
		value any
	}{
		{Error(errors.New("boom")), "error", "boom"},
		{Error(nil), "error", nil},
		{Duration("wait", 1500*time.Millisecond), "wait", "1.5s"},
		{Elapsed(time.Second), "elapsed", "1s"},
		{Status("FINISHED"), "status", "FINISHED"},
		{Progress(7), "progress", uint64(7)},
		{Count(3), "count", 3},
		{Partition(10, 5), "partition", map[string]uint64{"start": 10, "length": 5}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.key, tt.field.Key)
		assert.Equal(t, tt.value, tt.field.Value, "field %s", tt.key)
	}
}

func TestConcurrentWritesStayLineAtomic(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			child := logger.With(Int("worker", w))
			for i := 0; i < 50; i++ {
				child.Info("batch", Int("i", i))
			}
		}(w)
	}
	wg.Wait()

	assert.Len(t, decode(t, &buf), 400)
}

func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	op := StartTimer(logger, "generating graph", String("kind", "grid"))
	op.End(Uint64("relationships", 80))
	StartTimer(logger, "loading").EndError(errors.New("no such file"))

	entries := decode(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "grid", entries[0].Fields["kind"])
	assert.EqualValues(t, 80, entries[0].Fields["relationships"])
	assert.Contains(t, entries[0].Fields, "elapsed")
	assert.Equal(t, "ERROR", entries[1].Level)
	assert.Equal(t, "no such file", entries[1].Fields["error"])
}

func TestDefaultLoggerCanBeReplaced(t *testing.T) {
	prev := DefaultLogger()
	t.Cleanup(func() { SetDefaultLogger(prev) })

	var buf bytes.Buffer
	SetDefaultLogger(NewJSONLogger(&buf, DebugLevel))

	Debug("d")
	Info("i")
	Warn("w")
	ErrorLog("e")
	With(Component("pool")).Info("scoped")

	entries := decode(t, &buf)
	require.Len(t, entries, 5)
	assert.Equal(t, "pool", entries[4].Fields["component"])
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	logger.Info("ignored", Task("x"))
	assert.False(t, logger.Enabled(ErrorLevel))
	assert.Equal(t, logger, logger.With(Task("y")))
}

func BenchmarkJSONLoggerProgress(b *testing.B) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel).With(JobID("bench"))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("progress", Task("BFS"), Percent(int64(i%100)))
	}
}

func BenchmarkJSONLoggerFiltered(b *testing.B) {
	logger := NewJSONLogger(&bytes.Buffer{}, ErrorLevel)
	for i := 0; i < b.N; i++ {
		logger.Debug("batch", Progress(uint64(i)))
	}
}
