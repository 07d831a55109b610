package progress

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dd0wney/cluso-gds/pkg/concurrency"
	"github.com/dd0wney/cluso-gds/pkg/logging"
	"github.com/dd0wney/cluso-gds/pkg/metrics"
)

// Tracker is driven by a computation as it enters and leaves phases.
// Begin and end calls come from the driving goroutine; LogProgress may be
// called from any worker.
type Tracker interface {
	// BeginSubtask starts the next pending task of the tree.
	BeginSubtask() error
	// BeginSubtaskWithVolume starts the next task and sets its volume.
	BeginSubtaskWithVolume(volume uint64) error
	// EndSubtask finishes the running task.
	EndSubtask() error
	// EndSubtaskWithFailure fails the running task and its ancestors.
	EndSubtaskWithFailure() error
	// LogProgress adds units of work to the running task.
	LogProgress(n uint64)
	// SetVolume replaces the volume of the running task.
	SetVolume(volume uint64)
	// CurrentVolume returns the volume of the running task.
	CurrentVolume() uint64
	// Checkpoint returns ErrTerminated if the computation was stopped.
	Checkpoint() error
	// Release detaches the tree from the task store.
	Release()
}

// TrackerOption configures a TaskTracker.
type TrackerOption func(*TaskTracker)

// WithConcurrency sets the worker count used to size progress batches.
func WithConcurrency(c concurrency.Concurrency) TrackerOption {
	return func(t *TaskTracker) {
		t.concurrency = c.Value()
	}
}

// WithTerminationFlag makes the tracker honor flag at phase boundaries.
func WithTerminationFlag(flag *concurrency.TerminationFlag) TrackerOption {
	return func(t *TaskTracker) {
		t.flag = flag
	}
}

// WithTaskStore publishes the tree to store while it runs.
func WithTaskStore(store TaskStore) TrackerOption {
	return func(t *TaskTracker) {
		t.store = store
	}
}

// WithJobID sets the job the tree is registered under.
func WithJobID(id JobID) TrackerOption {
	return func(t *TaskTracker) {
		t.job = id
	}
}

// WithLogger sets the logger for lifecycle and progress lines.
func WithLogger(logger logging.Logger) TrackerOption {
	return func(t *TaskTracker) {
		t.logger = logger
	}
}

// WithMetrics records task transitions, progress and terminations.
func WithMetrics(registry *metrics.Registry) TrackerOption {
	return func(t *TaskTracker) {
		t.metrics = registry
	}
}

// WithMaxLogInterval caps the progress batch size.
func WithMaxLogInterval(n uint64) TrackerOption {
	return func(t *TaskTracker) {
		t.maxInterval = n
	}
}

// TaskTracker walks a task tree depth-first as phases begin and end.
type TaskTracker struct {
	mu      sync.Mutex
	base    *Task
	current atomic.Pointer[Task]
	nested  []*Task

	job         JobID
	store       TaskStore
	registry    *TaskRegistry
	flag        *concurrency.TerminationFlag
	logger      logging.Logger
	metrics     *metrics.Registry
	progress    *BatchingLogger
	concurrency int
	maxInterval uint64
}

// NewTaskTracker creates a tracker for the tree rooted at base.
func NewTaskTracker(base *Task, opts ...TrackerOption) *TaskTracker {
	t := &TaskTracker{
		base:        base,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = logging.NewNopLogger()
	}
	if t.store == nil {
		t.store = DefaultTaskStore()
	}
	if t.job.IsZero() {
		t.job = NewJobID()
	}
	t.registry = NewTaskRegistry(t.job, t.store)
	t.logger = t.logger.With(logging.JobID(t.job.String()))
	t.progress = NewBatchingLogger(t.logger, base.Name(), base.CurrentVolume(), t.concurrency, t.maxInterval)
	base.SetMaxConcurrency(t.concurrency)
	return t
}

// Base returns the root of the tracked tree.
func (t *TaskTracker) Base() *Task {
	return t.base
}

// Current returns the running task, or nil.
func (t *TaskTracker) Current() *Task {
	return t.current.Load()
}

// JobID returns the job the tree is registered under.
func (t *TaskTracker) JobID() JobID {
	return t.job
}

// BeginSubtask starts the base task on first use and the next pending
// subtask of the running task afterwards.
func (t *TaskTracker) BeginSubtask() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkRunningLocked(); err != nil {
		return err
	}

	next := t.base
	cur := t.current.Load()
	if cur != nil {
		n, err := cur.NextSubtask()
		if err != nil {
			t.logger.Error("cannot begin subtask", logging.Task(t.pathLocked()), logging.Error(err))
			return err
		}
		next = n
	}
	if err := next.Start(); err != nil {
		t.logger.Error("cannot begin subtask", logging.Task(next.Name()), logging.Error(err))
		return err
	}
	if cur != nil {
		t.nested = append(t.nested, cur)
	} else {
		t.registry.RegisterTask(t.base)
	}
	t.current.Store(next)
	t.metrics.RecordTaskTransition(Running.String(), 0)

	path := t.pathLocked()
	t.progress.SetTask(path)
	t.progress.Reset(next.CurrentVolume())
	t.logger.Info("task started", logging.Task(path))
	return nil
}

// BeginSubtaskWithVolume starts the next task and sets its volume.
func (t *TaskTracker) BeginSubtaskWithVolume(volume uint64) error {
	if err := t.BeginSubtask(); err != nil {
		return err
	}
	t.SetVolume(volume)
	return nil
}

// EndSubtask finishes the running task and resumes its parent.
func (t *TaskTracker) EndSubtask() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkRunningLocked(); err != nil {
		return err
	}

	cur := t.current.Load()
	if cur == nil {
		err := &TransitionError{Task: t.base.Name(), Action: "finish", From: t.base.Status(),
			Detail: "no running subtask"}
		t.logger.Error("end without a running subtask", logging.Error(err))
		return err
	}
	path := t.pathLocked()
	if err := cur.Finish(); err != nil {
		t.logger.Error("cannot end subtask", logging.Task(path), logging.Error(err))
		return err
	}
	elapsed := cur.Elapsed()
	t.metrics.RecordTaskTransition(Finished.String(), elapsed)
	t.progress.LogFinishPercentage()
	t.logger.Info("task finished", logging.Task(path), logging.Elapsed(elapsed))

	t.popLocked()
	return nil
}

// EndSubtaskWithFailure fails the running task and every ancestor.
func (t *TaskTracker) EndSubtaskWithFailure() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur := t.current.Load()
	if cur == nil {
		err := &TransitionError{Task: t.base.Name(), Action: "fail", From: t.base.Status(),
			Detail: "no running subtask"}
		t.logger.Error("end without a running subtask", logging.Error(err))
		return err
	}
	path := t.pathLocked()
	for _, task := range t.chainLocked() {
		if err := task.Fail(); err == nil {
			t.metrics.RecordTaskTransition(Failed.String(), task.Elapsed())
		}
	}
	t.logger.Error("task failed", logging.Task(path))
	t.resetLocked()
	return nil
}

// LogProgress adds n units to the running task.
func (t *TaskTracker) LogProgress(n uint64) {
	cur := t.current.Load()
	if cur == nil || n == 0 {
		return
	}
	if !cur.LogProgress(n) {
		return
	}
	t.progress.LogProgress(n)
	t.metrics.RecordProgress(n)
}

// SetVolume replaces the volume of the running leaf and restarts the
// progress batches.
func (t *TaskTracker) SetVolume(volume uint64) {
	cur := t.current.Load()
	if cur == nil {
		return
	}
	if cur.SetVolume(volume) {
		t.progress.Reset(volume)
	}
}

// CurrentVolume returns the running task's volume, or UnknownVolume.
func (t *TaskTracker) CurrentVolume() uint64 {
	cur := t.current.Load()
	if cur == nil {
		return UnknownVolume
	}
	return cur.CurrentVolume()
}

// Checkpoint cancels the running chain and returns ErrTerminated once the
// termination flag is stopped.
func (t *TaskTracker) Checkpoint() error {
	if t.flag.Running() {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.checkRunningLocked()
}

// Release removes the tree from the task store.
func (t *TaskTracker) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.registry.UnregisterTask()
}

func (t *TaskTracker) checkRunningLocked() error {
	err := t.flag.AssertRunning()
	if err == nil {
		return nil
	}
	chain := t.chainLocked()
	if len(chain) == 0 && t.base.Status() == NotStarted {
		chain = append(chain, t.base)
	}
	for _, task := range chain {
		if cerr := task.Cancel(); cerr == nil {
			t.metrics.RecordTaskTransition(Canceled.String(), task.Elapsed())
		}
	}
	if len(chain) > 0 {
		t.metrics.RecordTermination()
		t.logger.Warn("computation terminated", logging.Task(t.base.Name()), logging.Error(err))
	}
	t.resetLocked()
	return err
}

// chainLocked returns the running task followed by its ancestors.
func (t *TaskTracker) chainLocked() []*Task {
	cur := t.current.Load()
	if cur == nil {
		return nil
	}
	chain := make([]*Task, 0, len(t.nested)+1)
	chain = append(chain, cur)
	for i := len(t.nested) - 1; i >= 0; i-- {
		chain = append(chain, t.nested[i])
	}
	return chain
}

func (t *TaskTracker) popLocked() {
	if len(t.nested) == 0 {
		t.current.Store(nil)
		return
	}
	parent := t.nested[len(t.nested)-1]
	t.nested = t.nested[:len(t.nested)-1]
	t.current.Store(parent)
	t.progress.SetTask(t.pathLocked())
}

func (t *TaskTracker) resetLocked() {
	t.current.Store(nil)
	t.nested = t.nested[:0]
}

// pathLocked joins the names from the base to the running task.
func (t *TaskTracker) pathLocked() string {
	cur := t.current.Load()
	if cur == nil {
		return t.base.Name()
	}
	names := make([]string, 0, len(t.nested)+1)
	for _, n := range t.nested {
		names = append(names, n.Name())
	}
	names = append(names, cur.Name())
	return strings.Join(names, " :: ")
}

// NopTracker ignores every call.
type NopTracker struct{}

// BeginSubtask implements Tracker.
func (NopTracker) BeginSubtask() error { return nil }

// BeginSubtaskWithVolume implements Tracker.
func (NopTracker) BeginSubtaskWithVolume(uint64) error { return nil }

// EndSubtask implements Tracker.
func (NopTracker) EndSubtask() error { return nil }

// EndSubtaskWithFailure implements Tracker.
func (NopTracker) EndSubtaskWithFailure() error { return nil }

// LogProgress implements Tracker.
func (NopTracker) LogProgress(uint64) {}

// SetVolume implements Tracker.
func (NopTracker) SetVolume(uint64) {}

// CurrentVolume implements Tracker.
func (NopTracker) CurrentVolume() uint64 { return UnknownVolume }

// Checkpoint implements Tracker.
func (NopTracker) Checkpoint() error { return nil }

// Release implements Tracker.
func (NopTracker) Release() {}

var (
	_ Tracker = (*TaskTracker)(nil)
	_ Tracker = NopTracker{}
)
