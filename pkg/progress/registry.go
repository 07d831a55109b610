package progress

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobID identifies one run of a computation.
type JobID uuid.UUID

// NewJobID returns a random job id.
func NewJobID() JobID {
	return JobID(uuid.New())
}

// ParseJobID parses the textual form produced by String.
func ParseJobID(s string) (JobID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return JobID{}, err
	}
	return JobID(id), nil
}

func (id JobID) String() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether the id is unset.
func (id JobID) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}

// UserTask is a task registered under a job.
type UserTask struct {
	JobID      JobID
	Task       *Task
	Registered time.Time

	seq uint64
}

// TaskStore collects the task trees of running jobs so they can be
// inspected while the computation runs.
type TaskStore interface {
	Store(job JobID, task *Task)
	Remove(job JobID)
	Query(job JobID) (*Task, bool)
	All() []UserTask
	Count() int
}

// MemoryTaskStore keeps registered tasks in a map.
type MemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[JobID]UserTask
	seq   uint64
}

// NewMemoryTaskStore creates an empty store.
func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{tasks: make(map[JobID]UserTask)}
}

// Store registers task under job, replacing any earlier task.
func (s *MemoryTaskStore) Store(job JobID, task *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.tasks[job] = UserTask{JobID: job, Task: task, Registered: time.Now(), seq: s.seq}
}

// Remove drops the task registered under job.
func (s *MemoryTaskStore) Remove(job JobID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, job)
}

// Query returns the task registered under job.
func (s *MemoryTaskStore) Query(job JobID) (*Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ut, ok := s.tasks[job]
	return ut.Task, ok
}

// All returns the registered tasks, oldest first.
func (s *MemoryTaskStore) All() []UserTask {
	s.mu.RLock()
	out := make([]UserTask, 0, len(s.tasks))
	for _, ut := range s.tasks {
		out = append(out, ut)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].seq < out[j].seq
	})
	return out
}

// Count returns the number of registered tasks.
func (s *MemoryTaskStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// EmptyTaskStore discards everything.
type EmptyTaskStore struct{}

// Store implements TaskStore.
func (EmptyTaskStore) Store(JobID, *Task) {}

// Remove implements TaskStore.
func (EmptyTaskStore) Remove(JobID) {}

// Query implements TaskStore.
func (EmptyTaskStore) Query(JobID) (*Task, bool) { return nil, false }

// All implements TaskStore.
func (EmptyTaskStore) All() []UserTask { return nil }

// Count implements TaskStore.
func (EmptyTaskStore) Count() int { return 0 }

var (
	defaultStore   TaskStore = NewMemoryTaskStore()
	defaultStoreMu sync.Mutex
)

// DefaultTaskStore returns the process-wide store.
func DefaultTaskStore() TaskStore {
	defaultStoreMu.Lock()
	defer defaultStoreMu.Unlock()
	return defaultStore
}

// SetDefaultTaskStore replaces the process-wide store.
func SetDefaultTaskStore(store TaskStore) {
	if store == nil {
		store = EmptyTaskStore{}
	}
	defaultStoreMu.Lock()
	defer defaultStoreMu.Unlock()
	defaultStore = store
}

// TaskRegistry binds one job to a store.
type TaskRegistry struct {
	job   JobID
	store TaskStore
}

// NewTaskRegistry creates a registry for job writing to store.
func NewTaskRegistry(job JobID, store TaskStore) *TaskRegistry {
	if store == nil {
		store = EmptyTaskStore{}
	}
	return &TaskRegistry{job: job, store: store}
}

// JobID returns the job the registry writes for.
func (r *TaskRegistry) JobID() JobID {
	return r.job
}

// RegisterTask publishes task as the job's tree.
func (r *TaskRegistry) RegisterTask(task *Task) {
	r.store.Store(r.job, task)
}

// UnregisterTask removes the job's tree.
func (r *TaskRegistry) UnregisterTask() {
	r.store.Remove(r.job)
}

// ContainsTask reports whether task is the job's registered tree.
func (r *TaskRegistry) ContainsTask(task *Task) bool {
	t, ok := r.store.Query(r.job)
	return ok && t == task
}
