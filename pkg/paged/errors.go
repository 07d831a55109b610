package paged

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrCapacity         = errors.New("length exceeds addressable capacity")
	ErrIndexOutOfBounds = errors.New("index out of bounds")
	ErrInvalidPageShift = errors.New("invalid page shift")
	ErrEmptyStack       = errors.New("stack is empty")
)

// Error provides structured information about a failed paged-collection operation.
type Error struct {
	Op     string // Operation that failed (e.g., "Get", "New")
	Index  uint64 // Offending index, if the operation was element access
	Length uint64 // Logical length of the collection (or requested length on construction)
	Cause  error  // Underlying sentinel
}

// Error implements the error interface.
func (e *Error) Error() string {
	if errors.Is(e.Cause, ErrIndexOutOfBounds) {
		return fmt.Sprintf("%s index %d (length %d): %v", e.Op, e.Index, e.Length, e.Cause)
	}
	if e.Length != 0 {
		return fmt.Sprintf("%s length %d: %v", e.Op, e.Length, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error's cause.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

func outOfBounds(op string, index, length uint64) error {
	return &Error{Op: op, Index: index, Length: length, Cause: ErrIndexOutOfBounds}
}

func capacityError(op string, length uint64) error {
	return &Error{Op: op, Length: length, Cause: ErrCapacity}
}

// IsOutOfBounds returns true if the error is an index bounds violation.
func IsOutOfBounds(err error) bool {
	return errors.Is(err, ErrIndexOutOfBounds)
}

// IsCapacity returns true if the error reports an unrepresentable length.
func IsCapacity(err error) bool {
	return errors.Is(err, ErrCapacity)
}
