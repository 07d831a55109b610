package progress

import (
	"errors"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-gds/pkg/concurrency"
	"github.com/dd0wney/cluso-gds/pkg/logging"
	"github.com/dd0wney/cluso-gds/pkg/metrics"
)

func counter(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func gauge(t *testing.T, g interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func twoPhaseTree() (*Task, *Task, *Task) {
	load := Leaf("load", 100)
	compute := Leaf("compute", UnknownVolume)
	return Composite("algo", load, compute), load, compute
}

func TestTrackerWalksTree(t *testing.T) {
	root, load, compute := twoPhaseTree()
	store := NewMemoryTaskStore()
	reg := metrics.NewRegistry()
	tracker := NewTaskTracker(root,
		WithTaskStore(store),
		WithMetrics(reg),
		WithConcurrency(concurrency.MustOf(4)),
	)

	require.NoError(t, tracker.BeginSubtask())
	assert.Same(t, root, tracker.Current())
	got, ok := store.Query(tracker.JobID())
	require.True(t, ok)
	assert.Same(t, root, got)

	require.NoError(t, tracker.BeginSubtask())
	assert.Same(t, load, tracker.Current())
	assert.Equal(t, uint64(100), tracker.CurrentVolume())
	tracker.LogProgress(60)
	require.NoError(t, tracker.EndSubtask())
	assert.Same(t, root, tracker.Current())

	require.NoError(t, tracker.BeginSubtaskWithVolume(40))
	assert.Same(t, compute, tracker.Current())
	assert.Equal(t, uint64(40), tracker.CurrentVolume())
	tracker.LogProgress(40)
	require.NoError(t, tracker.EndSubtask())

	require.NoError(t, tracker.EndSubtask())
	assert.Nil(t, tracker.Current())
	assert.Equal(t, Finished, root.Status())
	assert.Equal(t, Progress{Progress: 140, Volume: 140}, root.Progress())
	assert.Equal(t, 4, load.MaxConcurrency())

	assert.Equal(t, float64(3), counter(t, reg.TaskTransitionsTotal.WithLabelValues("FINISHED")))
	assert.Equal(t, float64(0), gauge(t, reg.TasksRunning))
	assert.Equal(t, float64(100), counter(t, reg.ProgressUnitsTotal))

	tracker.Release()
	assert.Equal(t, 0, store.Count())
}

func TestTrackerEndWithoutBegin(t *testing.T) {
	out := &lockedBuffer{}
	root, _, _ := twoPhaseTree()
	tracker := NewTaskTracker(root,
		WithTaskStore(EmptyTaskStore{}),
		WithLogger(logging.NewJSONLogger(out, logging.InfoLevel)),
	)

	err := tracker.EndSubtask()
	require.Error(t, err)
	assert.True(t, IsInvalidTransition(err))

	entries := out.entries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, "ERROR", entries[0].Level)
	assert.Equal(t, tracker.JobID().String(), entries[0].Fields["job_id"])
}

func TestTrackerBeginPastEnd(t *testing.T) {
	root := Composite("algo", Leaf("only", 1))
	tracker := NewTaskTracker(root, WithTaskStore(EmptyTaskStore{}))

	require.NoError(t, tracker.BeginSubtask())
	require.NoError(t, tracker.BeginSubtask())
	require.NoError(t, tracker.EndSubtask())

	err := tracker.BeginSubtask()
	assert.True(t, IsInvalidTransition(err))
	assert.Same(t, root, tracker.Current(), "failed begin leaves the parent current")
}

func TestTrackerTerminatedBeforeStart(t *testing.T) {
	root, load, _ := twoPhaseTree()
	flag := concurrency.NewTerminationFlag()
	flag.Stop()
	reg := metrics.NewRegistry()
	tracker := NewTaskTracker(root,
		WithTaskStore(EmptyTaskStore{}),
		WithTerminationFlag(flag),
		WithMetrics(reg),
	)

	err := tracker.BeginSubtask()
	require.Error(t, err)
	assert.True(t, errors.Is(err, concurrency.ErrTerminated))
	assert.Equal(t, Canceled, root.Status())
	assert.Equal(t, NotStarted, load.Status())
	assert.Equal(t, float64(1), counter(t, reg.TerminationsTotal))
}

func TestTrackerTerminatedMidRun(t *testing.T) {
	root, load, compute := twoPhaseTree()
	flag := concurrency.NewTerminationFlag()
	reg := metrics.NewRegistry()
	tracker := NewTaskTracker(root,
		WithTaskStore(EmptyTaskStore{}),
		WithTerminationFlag(flag),
		WithMetrics(reg),
	)

	require.NoError(t, tracker.BeginSubtask())
	require.NoError(t, tracker.BeginSubtask())
	tracker.LogProgress(10)
	require.NoError(t, tracker.Checkpoint())

	flag.StopWithReason("user abort")
	err := tracker.Checkpoint()
	require.Error(t, err)
	assert.True(t, errors.Is(err, concurrency.ErrTerminated))
	assert.Contains(t, err.Error(), "user abort")

	assert.Equal(t, Canceled, load.Status())
	assert.Equal(t, Canceled, root.Status())
	assert.Equal(t, NotStarted, compute.Status())
	assert.Nil(t, tracker.Current())
	assert.Equal(t, float64(0), gauge(t, reg.TasksRunning))

	assert.True(t, errors.Is(tracker.EndSubtask(), concurrency.ErrTerminated))
	assert.Equal(t, float64(1), counter(t, reg.TerminationsTotal), "termination is counted once")
}

func TestTrackerFailure(t *testing.T) {
	root, load, compute := twoPhaseTree()
	tracker := NewTaskTracker(root, WithTaskStore(EmptyTaskStore{}))

	require.NoError(t, tracker.BeginSubtask())
	require.NoError(t, tracker.BeginSubtask())
	require.NoError(t, tracker.EndSubtaskWithFailure())

	assert.Equal(t, Failed, load.Status())
	assert.Equal(t, Failed, root.Status())
	assert.Equal(t, NotStarted, compute.Status())
	assert.Nil(t, tracker.Current())
	assert.True(t, IsInvalidTransition(tracker.EndSubtaskWithFailure()))
}

func TestTrackerIterative(t *testing.T) {
	root := Iterative("iterate", func() []*Task {
		return []*Task{Leaf("step", 5)}
	}, Dynamic, 4)
	tracker := NewTaskTracker(root, WithTaskStore(EmptyTaskStore{}))

	require.NoError(t, tracker.BeginSubtask())
	for i := 0; i < 2; i++ {
		require.NoError(t, tracker.BeginSubtask())
		tracker.LogProgress(5)
		require.NoError(t, tracker.EndSubtask())
	}
	assert.Equal(t, 2, root.CurrentIteration())
	require.NoError(t, tracker.EndSubtask())

	statuses := map[Status]int{}
	for _, c := range root.Children() {
		statuses[c.Status()]++
	}
	assert.Equal(t, map[Status]int{Finished: 2, Canceled: 2}, statuses)
}

func TestTrackerSetVolumeOnComposite(t *testing.T) {
	root, _, _ := twoPhaseTree()
	tracker := NewTaskTracker(root, WithTaskStore(EmptyTaskStore{}))

	assert.Equal(t, UnknownVolume, tracker.CurrentVolume())
	tracker.LogProgress(5)

	require.NoError(t, tracker.BeginSubtask())
	tracker.SetVolume(10)
	tracker.LogProgress(5)
	assert.Equal(t, UnknownVolume, tracker.CurrentVolume())
	assert.Equal(t, uint64(0), root.Progress().Progress)
}

func TestNopTracker(t *testing.T) {
	var tracker Tracker = NopTracker{}
	assert.NoError(t, tracker.BeginSubtask())
	assert.NoError(t, tracker.BeginSubtaskWithVolume(3))
	tracker.LogProgress(3)
	tracker.SetVolume(4)
	assert.Equal(t, UnknownVolume, tracker.CurrentVolume())
	assert.NoError(t, tracker.Checkpoint())
	assert.NoError(t, tracker.EndSubtask())
	assert.NoError(t, tracker.EndSubtaskWithFailure())
	tracker.Release()
}
