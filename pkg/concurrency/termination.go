package concurrency

import (
	"context"
	"fmt"
	"sync/atomic"
)

// TerminationFlag is a cooperative stop signal shared between a driver and
// its workers. Once stopped it stays stopped.
type TerminationFlag struct {
	stopped atomic.Bool
	reason  atomic.Pointer[string]
}

// NewTerminationFlag creates a running flag.
func NewTerminationFlag() *TerminationFlag {
	return &TerminationFlag{}
}

// Running reports whether work should continue. It is a single atomic load
// and safe to call in per-node loops. A nil flag is always running.
func (f *TerminationFlag) Running() bool {
	return f == nil || !f.stopped.Load()
}

// Stopped is the negation of Running.
func (f *TerminationFlag) Stopped() bool {
	return !f.Running()
}

// Stop signals termination. Repeated calls are no-ops, and so is stopping
// a nil flag, which never stops.
func (f *TerminationFlag) Stop() {
	if f == nil {
		return
	}
	f.stopped.Store(true)
}

// StopWithReason is Stop recording why; only the first reason is kept.
func (f *TerminationFlag) StopWithReason(reason string) {
	if f == nil {
		return
	}
	f.reason.CompareAndSwap(nil, &reason)
	f.stopped.Store(true)
}

// Reason returns the reason given to StopWithReason, if any.
func (f *TerminationFlag) Reason() string {
	if f == nil {
		return ""
	}
	if r := f.reason.Load(); r != nil {
		return *r
	}
	return ""
}

// AssertRunning returns ErrTerminated once the flag is stopped.
func (f *TerminationFlag) AssertRunning() error {
	if f.Running() {
		return nil
	}
	if reason := f.Reason(); reason != "" {
		return fmt.Errorf("%w: %s", ErrTerminated, reason)
	}
	return ErrTerminated
}

// TerminationFlagFromContext returns a flag that stops when ctx is done.
// The returned release func detaches the flag from ctx early.
func TerminationFlagFromContext(ctx context.Context) (*TerminationFlag, func() bool) {
	f := NewTerminationFlag()
	if ctx.Err() != nil {
		f.StopWithReason(context.Cause(ctx).Error())
	}
	release := context.AfterFunc(ctx, func() {
		f.StopWithReason(context.Cause(ctx).Error())
	})
	return f, release
}
