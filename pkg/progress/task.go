package progress

import (
	"sync"
	"sync/atomic"
	"time"
)

// Kind tags the variant of a task.
type Kind int

const (
	// KindLeaf tasks carry a volume and receive progress directly.
	KindLeaf Kind = iota
	// KindComposite tasks aggregate a fixed list of children.
	KindComposite
	// KindIterative tasks replay a template of children per iteration.
	KindIterative
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindComposite:
		return "composite"
	case KindIterative:
		return "iterative"
	default:
		return "unknown"
	}
}

// IterativeMode controls how many iterations an iterative task may run.
type IterativeMode int

const (
	// Fixed tasks run exactly maxIterations iterations.
	Fixed IterativeMode = iota
	// Dynamic tasks run up to maxIterations and may converge earlier.
	Dynamic
	// Open tasks run an unbounded number of iterations.
	Open
)

func (m IterativeMode) String() string {
	switch m {
	case Fixed:
		return "FIXED"
	case Dynamic:
		return "DYNAMIC"
	case Open:
		return "OPEN"
	default:
		return "UNKNOWN"
	}
}

// Task is a node of a progress tree. Status changes are serialized per
// task; progress counters are atomic so workers may log concurrently.
type Task struct {
	name string
	kind Kind

	mu       sync.Mutex
	status   Status
	started  time.Time
	finished time.Time
	children []*Task

	// Leaf state
	volume   atomic.Uint64
	progress atomic.Uint64

	// Iterative state
	template      func() []*Task
	mode          IterativeMode
	maxIterations int
	perIteration  int

	maxConcurrency atomic.Int64
}

// Leaf creates a task that receives progress directly. Pass UnknownVolume
// when the amount of work is discovered later.
func Leaf(name string, volume uint64) *Task {
	t := &Task{name: name, kind: KindLeaf}
	t.volume.Store(volume)
	return t
}

// Composite creates a task made of children run in order.
func Composite(name string, children ...*Task) *Task {
	return &Task{name: name, kind: KindComposite, children: children}
}

// Iterative creates a task that runs template's subtasks once per iteration.
// Fixed and Dynamic tasks unroll maxIterations copies up front; Open tasks
// add a fresh copy each time the previous iteration is used up.
func Iterative(name string, template func() []*Task, mode IterativeMode, maxIterations int) *Task {
	t := &Task{
		name:         name,
		kind:         KindIterative,
		template:     template,
		mode:         mode,
		perIteration: len(template()),
	}
	if mode != Open {
		t.maxIterations = max(maxIterations, 0)
		for i := 0; i < t.maxIterations; i++ {
			t.children = append(t.children, template()...)
		}
	}
	return t
}

// Name returns the task name.
func (t *Task) Name() string {
	return t.name
}

// Kind returns the task variant.
func (t *Task) Kind() Kind {
	return t.kind
}

// Status returns the current status.
func (t *Task) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Children returns a snapshot of the subtasks.
func (t *Task) Children() []*Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Task, len(t.children))
	copy(out, t.children)
	return out
}

// StartTime returns when the task started, or the zero time.
func (t *Task) StartTime() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.started
}

// FinishTime returns when the task reached a terminal status, or the zero time.
func (t *Task) FinishTime() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.finished
}

// Elapsed returns the running time so far, or the total once terminal.
func (t *Task) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case t.started.IsZero():
		return 0
	case t.finished.IsZero():
		return time.Since(t.started)
	default:
		return t.finished.Sub(t.started)
	}
}

// Start moves a NotStarted task to Running.
func (t *Task) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != NotStarted {
		return &TransitionError{Task: t.name, Action: "start", From: t.status}
	}
	t.status = Running
	t.started = time.Now()
	return nil
}

// Finish moves a Running task to Finished. A leaf completes its volume; an
// unknown volume becomes the logged progress. An iterative task cancels the
// iterations it did not reach.
func (t *Task) Finish() error {
	t.mu.Lock()
	if t.status != Running {
		defer t.mu.Unlock()
		return &TransitionError{Task: t.name, Action: "finish", From: t.status}
	}
	if t.kind == KindLeaf {
		done := t.progress.Load()
		if t.volume.Load() == UnknownVolume {
			t.volume.Store(done)
		}
		t.progress.Store(max(done, t.volume.Load()))
	}
	t.status = Finished
	t.finished = time.Now()
	pending := t.children
	t.mu.Unlock()

	if t.kind == KindIterative {
		for _, c := range pending {
			if c.Status() == NotStarted {
				_ = c.Cancel()
			}
		}
	}
	return nil
}

// Cancel moves a NotStarted or Running task to Canceled.
func (t *Task) Cancel() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.Terminal() {
		return &TransitionError{Task: t.name, Action: "cancel", From: t.status}
	}
	t.status = Canceled
	if !t.started.IsZero() {
		t.finished = time.Now()
	}
	return nil
}

// Fail moves a NotStarted or Running task to Failed.
func (t *Task) Fail() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.Terminal() {
		return &TransitionError{Task: t.name, Action: "fail", From: t.status}
	}
	t.status = Failed
	t.finished = time.Now()
	return nil
}

// NextSubtask returns the first child that has not started. The task must
// be running and none of its children may be running. Open iterative tasks
// grow a new iteration when the current one is used up.
func (t *Task) NextSubtask() (*Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != Running {
		return nil, &TransitionError{Task: t.name, Action: "advance", From: t.status}
	}
	for _, c := range t.children {
		if c.Status() == Running {
			return nil, &TransitionError{Task: t.name, Action: "advance", From: t.status,
				Detail: "subtask " + c.name + " is still running"}
		}
	}
	for _, c := range t.children {
		if c.Status() == NotStarted {
			return c, nil
		}
	}
	if t.kind == KindIterative && t.mode == Open && t.perIteration > 0 {
		next := t.template()
		t.children = append(t.children, next...)
		return next[0], nil
	}
	return nil, &TransitionError{Task: t.name, Action: "advance", From: t.status,
		Detail: "no pending subtasks"}
}

// SetVolume replaces the volume of a leaf. It reports false for other kinds.
func (t *Task) SetVolume(volume uint64) bool {
	if t.kind != KindLeaf {
		return false
	}
	t.volume.Store(volume)
	return true
}

// LogProgress adds n units to a leaf. It reports false for other kinds.
func (t *Task) LogProgress(n uint64) bool {
	if t.kind != KindLeaf {
		return false
	}
	t.progress.Add(n)
	return true
}

// CurrentVolume returns the declared volume of a leaf, or UnknownVolume.
func (t *Task) CurrentVolume() uint64 {
	if t.kind != KindLeaf {
		return UnknownVolume
	}
	return t.volume.Load()
}

// Progress aggregates progress over the subtree. Any child of unknown
// volume makes the aggregate volume unknown. Open iterative tasks report an
// unknown volume until they finish.
func (t *Task) Progress() Progress {
	if t.kind == KindLeaf {
		return Progress{Progress: t.progress.Load(), Volume: t.volume.Load()}
	}

	children := t.Children()
	var agg Progress
	unknown := false
	for _, c := range children {
		p := c.Progress()
		agg.Progress += p.Progress
		if !p.Known() {
			unknown = true
		} else {
			agg.Volume += p.Volume
		}
	}
	if unknown || (t.kind == KindIterative && t.mode == Open && t.Status() != Finished) {
		agg.Volume = UnknownVolume
	}
	return agg
}

// Mode returns the iteration mode of an iterative task.
func (t *Task) Mode() IterativeMode {
	return t.mode
}

// MaxIterations returns the iteration bound; zero for Open tasks.
func (t *Task) MaxIterations() int {
	return t.maxIterations
}

// CurrentIteration returns how many full iterations have finished.
func (t *Task) CurrentIteration() int {
	if t.kind != KindIterative || t.perIteration == 0 {
		return 0
	}
	done := 0
	for _, c := range t.Children() {
		if c.Status() == Finished {
			done++
		}
	}
	return done / t.perIteration
}

// SetMaxConcurrency records the concurrency the task runs with and hands it
// down to subtasks that have none.
func (t *Task) SetMaxConcurrency(n int) {
	t.maxConcurrency.Store(int64(n))
	for _, c := range t.Children() {
		if c.MaxConcurrency() == 0 {
			c.SetMaxConcurrency(n)
		}
	}
}

// MaxConcurrency returns the recorded concurrency, or zero if unknown.
func (t *Task) MaxConcurrency() int {
	return int(t.maxConcurrency.Load())
}
