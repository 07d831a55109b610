package concurrency

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrTerminated     = errors.New("computation terminated")
	ErrPoolClosed     = errors.New("worker pool is closed")
	ErrTooManyWorkers = errors.New("worker count exceeds maximum")
)

// WorkerPanic carries a panic raised inside a spawned closure back to the
// goroutine that called Install. It is re-raised there with panic.
type WorkerPanic struct {
	Value any    // Value passed to panic
	Stack []byte // Stack of the panicking worker
}

// Error implements the error interface.
func (p *WorkerPanic) Error() string {
	return fmt.Sprintf("worker panic: %v", p.Value)
}

// Unwrap exposes the panic value when it was itself an error.
func (p *WorkerPanic) Unwrap() error {
	if err, ok := p.Value.(error); ok {
		return err
	}
	return nil
}

// IsTerminated returns true if the error reports a stopped termination flag.
func IsTerminated(err error) bool {
	return errors.Is(err, ErrTerminated)
}
