package paged

import (
	"math"
	"sync/atomic"
)

// AtomicDoubleArray is a paged float64 array with atomic slots. Values are
// stored as IEEE-754 bit patterns, so compare-and-swap compares bits: -0 and
// +0 differ, and a NaN matches only an identical NaN payload.
type AtomicDoubleArray struct {
	layout
	pages [][]atomic.Uint64
}

// NewAtomicDoubleArray allocates an atomic array of length slots holding 0.0.
func NewAtomicDoubleArray(length uint64) (*AtomicDoubleArray, error) {
	return NewAtomicDoubleArrayWithPageShift(length, DefaultPageShift)
}

// NewAtomicDoubleArrayWithPageShift allocates with pages of 2^shift slots.
func NewAtomicDoubleArrayWithPageShift(length uint64, shift uint) (*AtomicDoubleArray, error) {
	l, err := newLayout("NewAtomicDoubleArray", length, shift)
	if err != nil {
		return nil, err
	}
	return &AtomicDoubleArray{layout: l, pages: allocatePages[atomic.Uint64](l)}, nil
}

// Length returns the logical number of slots.
func (a *AtomicDoubleArray) Length() uint64 {
	return a.length
}

func (a *AtomicDoubleArray) slot(op string, i uint64) (*atomic.Uint64, error) {
	if err := a.check(op, i); err != nil {
		return nil, err
	}
	p, o := a.locate(i)
	return &a.pages[p][o], nil
}

// Get atomically loads the value at i.
func (a *AtomicDoubleArray) Get(i uint64) (float64, error) {
	s, err := a.slot("Get", i)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(s.Load()), nil
}

// Set atomically stores v at i.
func (a *AtomicDoubleArray) Set(i uint64, v float64) error {
	s, err := a.slot("Set", i)
	if err != nil {
		return err
	}
	s.Store(math.Float64bits(v))
	return nil
}

// CompareAndSwap stores update at i if the stored bits equal expected's bits.
func (a *AtomicDoubleArray) CompareAndSwap(i uint64, expected, update float64) (bool, error) {
	s, err := a.slot("CompareAndSwap", i)
	if err != nil {
		return false, err
	}
	return s.CompareAndSwap(math.Float64bits(expected), math.Float64bits(update)), nil
}

// CompareAndExchange returns expected when the swap happened, otherwise the
// value that prevented it.
func (a *AtomicDoubleArray) CompareAndExchange(i uint64, expected, update float64) (float64, error) {
	s, err := a.slot("CompareAndExchange", i)
	if err != nil {
		return 0, err
	}
	want, next := math.Float64bits(expected), math.Float64bits(update)
	for {
		cur := s.Load()
		if cur != want {
			return math.Float64frombits(cur), nil
		}
		if s.CompareAndSwap(want, next) {
			return expected, nil
		}
	}
}

// GetAndAdd adds delta to the value at i and returns the previous value.
func (a *AtomicDoubleArray) GetAndAdd(i uint64, delta float64) (float64, error) {
	return a.fetch("GetAndAdd", i, func(cur float64) float64 { return cur + delta })
}

// FetchMax raises the value at i to v if v is larger and returns the previous value.
func (a *AtomicDoubleArray) FetchMax(i uint64, v float64) (float64, error) {
	return a.fetch("FetchMax", i, func(cur float64) float64 {
		if v > cur {
			return v
		}
		return cur
	})
}

// FetchMin lowers the value at i to v if v is smaller and returns the previous value.
func (a *AtomicDoubleArray) FetchMin(i uint64, v float64) (float64, error) {
	return a.fetch("FetchMin", i, func(cur float64) float64 {
		if v < cur {
			return v
		}
		return cur
	})
}

// Update replaces the value at i with fn(current) and returns the new value.
func (a *AtomicDoubleArray) Update(i uint64, fn func(cur float64) float64) (float64, error) {
	s, err := a.slot("Update", i)
	if err != nil {
		return 0, err
	}
	for {
		cur := s.Load()
		next := math.Float64bits(fn(math.Float64frombits(cur)))
		if s.CompareAndSwap(cur, next) {
			return math.Float64frombits(next), nil
		}
	}
}

func (a *AtomicDoubleArray) fetch(op string, i uint64, fn func(cur float64) float64) (float64, error) {
	s, err := a.slot(op, i)
	if err != nil {
		return 0, err
	}
	for {
		cur := s.Load()
		next := math.Float64bits(fn(math.Float64frombits(cur)))
		if next == cur || s.CompareAndSwap(cur, next) {
			return math.Float64frombits(cur), nil
		}
	}
}

// Fill stores v in every slot. No other access may be in flight.
func (a *AtomicDoubleArray) Fill(v float64) {
	b := math.Float64bits(v)
	for _, page := range a.pages {
		for o := range page {
			page[o].Store(b)
		}
	}
}

// ToArray copies the current slot values into a plain Array.
func (a *AtomicDoubleArray) ToArray() (*Array[float64], error) {
	out, err := NewWithPageShift[float64](a.length, a.shift)
	if err != nil {
		return nil, err
	}
	for p, page := range a.pages {
		dst := out.pages[p]
		for o := range page {
			dst[o] = math.Float64frombits(page[o].Load())
		}
	}
	return out, nil
}
