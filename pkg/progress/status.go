// Package progress tracks the progress of long-running computations as a
// tree of tasks. A Tracker walks the tree as the computation enters and
// leaves phases, reports volume-based progress through a logger and honors
// cooperative termination at phase boundaries.
package progress

import (
	"errors"
	"fmt"
	"math"
)

// Status is the lifecycle state of a task.
type Status int

const (
	// NotStarted is the initial state of every task.
	NotStarted Status = iota
	// Running tasks have been started and not yet reached a terminal state.
	Running
	// Finished tasks completed normally.
	Finished
	// Canceled tasks were stopped before or while running.
	Canceled
	// Failed tasks ended with an error.
	Failed
)

func (s Status) String() string {
	switch s {
	case NotStarted:
		return "PENDING"
	case Running:
		return "RUNNING"
	case Finished:
		return "FINISHED"
	case Canceled:
		return "CANCELED"
	case Failed:
		return "FAILED"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == Finished || s == Canceled || s == Failed
}

// UnknownVolume marks a task whose amount of work is not known up front.
const UnknownVolume uint64 = math.MaxUint64

// Progress is a snapshot of work done against a volume.
type Progress struct {
	Progress uint64
	Volume   uint64
}

// Known reports whether the volume is known.
func (p Progress) Known() bool {
	return p.Volume != UnknownVolume
}

// Percent returns progress as a percentage in [0, 100], or -1 when the
// volume is unknown. An empty volume counts as complete.
func (p Progress) Percent() float64 {
	if !p.Known() {
		return -1
	}
	if p.Volume == 0 {
		return 100
	}
	return min(100, float64(p.Progress)*100/float64(p.Volume))
}

// ErrInvalidTransition is returned when a task is moved to a status its
// current status does not allow. It always indicates a driver bug.
var ErrInvalidTransition = errors.New("invalid task transition")

// TransitionError describes a rejected status change.
type TransitionError struct {
	Task   string // Name of the task
	Action string // Attempted action (e.g., "start", "finish")
	From   Status // Status at the time of the attempt
	Detail string // Additional context
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("cannot %s task %q in status %s (%s): %v", e.Action, e.Task, e.From, e.Detail, ErrInvalidTransition)
	}
	return fmt.Sprintf("cannot %s task %q in status %s: %v", e.Action, e.Task, e.From, ErrInvalidTransition)
}

// Unwrap returns ErrInvalidTransition for error chain support.
func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// IsInvalidTransition returns true if the error reports a rejected transition.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}
