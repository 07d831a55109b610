// Package concurrency provides the parallelism primitives shared by every
// algorithm driver: a validated worker count, cached worker pools keyed by
// that count, lock-free atomic aggregators and a cooperative termination flag.
package concurrency

import (
	"errors"
	"fmt"
	"runtime"
	"strconv"
)

// ErrInvalidConcurrency is returned for a worker count below one.
var ErrInvalidConcurrency = errors.New("invalid concurrency")

// Concurrency is a validated, immutable worker count of at least one.
// The zero value is not valid; build one with Of.
type Concurrency struct {
	value int
}

// Single is a concurrency of one worker.
var Single = Concurrency{value: 1}

// Of validates n. Zero and negative counts are rejected, never coerced.
func Of(n int) (Concurrency, error) {
	if n <= 0 {
		return Concurrency{}, fmt.Errorf("%w: %d (must be >= 1)", ErrInvalidConcurrency, n)
	}
	return Concurrency{value: n}, nil
}

// MustOf is Of for constants known to be valid. It panics otherwise.
func MustOf(n int) Concurrency {
	c, err := Of(n)
	if err != nil {
		panic(err)
	}
	return c
}

// Available returns one worker per logical CPU usable by this process.
func Available() Concurrency {
	return Concurrency{value: max(1, runtime.GOMAXPROCS(0))}
}

// Value returns the worker count.
func (c Concurrency) Value() int {
	return c.value
}

// IsValid reports whether c was built through Of.
func (c Concurrency) IsValid() bool {
	return c.value >= 1
}

// SquaredValue returns value*value, saturating at the int range. Drivers use it
// as a default partition count for oversubscription.
func (c Concurrency) SquaredValue() int {
	if c.value > 0 && c.value > maxInt/c.value {
		return maxInt
	}
	return c.value * c.value
}

func (c Concurrency) String() string {
	return strconv.Itoa(c.value)
}

const maxInt = int(^uint(0) >> 1)
