package concurrency

import (
	"math"
	"sync/atomic"
)

// Every aggregator below updates with an explicit retry loop: load the
// current value, compute the candidate, attempt a compare-and-swap, and
// retry on failure. Retries are unbounded but short under contention, and
// each aggregator is linearizable on its own.

// AtomicMax keeps the largest int64 offered to Update.
type AtomicMax struct {
	v atomic.Int64
}

// NewAtomicMax creates an aggregator starting at initial. Use
// math.MinInt64 when no lower bound is known.
func NewAtomicMax(initial int64) *AtomicMax {
	m := &AtomicMax{}
	m.v.Store(initial)
	return m
}

// Update keeps candidate if it is larger than the current value and
// returns the value after the update.
func (m *AtomicMax) Update(candidate int64) int64 {
	for {
		cur := m.v.Load()
		if candidate <= cur {
			return cur
		}
		if m.v.CompareAndSwap(cur, candidate) {
			return candidate
		}
	}
}

// Get returns the current maximum.
func (m *AtomicMax) Get() int64 {
	return m.v.Load()
}

// AtomicMin keeps the smallest int64 offered to Update.
type AtomicMin struct {
	v atomic.Int64
}

// NewAtomicMin creates an aggregator starting at initial. Use
// math.MaxInt64 when no upper bound is known.
func NewAtomicMin(initial int64) *AtomicMin {
	m := &AtomicMin{}
	m.v.Store(initial)
	return m
}

// Update keeps candidate if it is smaller than the current value and
// returns the value after the update.
func (m *AtomicMin) Update(candidate int64) int64 {
	for {
		cur := m.v.Load()
		if candidate >= cur {
			return cur
		}
		if m.v.CompareAndSwap(cur, candidate) {
			return candidate
		}
	}
}

// Get returns the current minimum.
func (m *AtomicMin) Get() int64 {
	return m.v.Load()
}

// AtomicDouble is a float64 stored as its IEEE-754 bit pattern. The zero
// value holds 0.0.
type AtomicDouble struct {
	bits atomic.Uint64
}

// NewAtomicDouble creates an AtomicDouble holding v.
func NewAtomicDouble(v float64) *AtomicDouble {
	d := &AtomicDouble{}
	d.Set(v)
	return d
}

// Get returns the current value.
func (d *AtomicDouble) Get() float64 {
	return math.Float64frombits(d.bits.Load())
}

// Set stores v.
func (d *AtomicDouble) Set(v float64) {
	d.bits.Store(math.Float64bits(v))
}

// CompareAndSwap stores update if the stored bits equal the bits of expected.
func (d *AtomicDouble) CompareAndSwap(expected, update float64) bool {
	return d.bits.CompareAndSwap(math.Float64bits(expected), math.Float64bits(update))
}

// Update replaces the value with combine(current) and returns the new value.
// combine may run more than once and must be free of side effects.
func (d *AtomicDouble) Update(combine func(cur float64) float64) float64 {
	for {
		cur := d.bits.Load()
		next := math.Float64bits(combine(math.Float64frombits(cur)))
		if d.bits.CompareAndSwap(cur, next) {
			return math.Float64frombits(next)
		}
	}
}

// Add adds delta and returns the new value.
func (d *AtomicDouble) Add(delta float64) float64 {
	return d.Update(func(cur float64) float64 { return cur + delta })
}

// AtomicMaxDouble keeps the largest float64 offered to Update. NaN
// candidates are ignored.
type AtomicMaxDouble struct {
	d AtomicDouble
}

// NewAtomicMaxDouble creates an aggregator starting at initial.
func NewAtomicMaxDouble(initial float64) *AtomicMaxDouble {
	m := &AtomicMaxDouble{}
	m.d.Set(initial)
	return m
}

// Update keeps candidate if it is larger and returns the value after the update.
func (m *AtomicMaxDouble) Update(candidate float64) float64 {
	for {
		cur := m.d.bits.Load()
		curF := math.Float64frombits(cur)
		if !(candidate > curF) {
			return curF
		}
		if m.d.bits.CompareAndSwap(cur, math.Float64bits(candidate)) {
			return candidate
		}
	}
}

// Get returns the current maximum.
func (m *AtomicMaxDouble) Get() float64 {
	return m.d.Get()
}

// AtomicMinDouble keeps the smallest float64 offered to Update. NaN
// candidates are ignored.
type AtomicMinDouble struct {
	d AtomicDouble
}

// NewAtomicMinDouble creates an aggregator starting at initial.
func NewAtomicMinDouble(initial float64) *AtomicMinDouble {
	m := &AtomicMinDouble{}
	m.d.Set(initial)
	return m
}

// Update keeps candidate if it is smaller and returns the value after the update.
func (m *AtomicMinDouble) Update(candidate float64) float64 {
	for {
		cur := m.d.bits.Load()
		curF := math.Float64frombits(cur)
		if !(candidate < curF) {
			return curF
		}
		if m.d.bits.CompareAndSwap(cur, math.Float64bits(candidate)) {
			return candidate
		}
	}
}

// Get returns the current minimum.
func (m *AtomicMinDouble) Get() float64 {
	return m.d.Get()
}
