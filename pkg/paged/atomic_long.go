package paged

import "sync/atomic"

// AtomicLongArray is a paged int64 array whose slots support atomic access.
// Concurrent operations on the same index are serialized by compare-and-swap.
type AtomicLongArray struct {
	layout
	pages [][]atomic.Int64
}

// NewAtomicLongArray allocates an atomic array of length zeroed slots.
func NewAtomicLongArray(length uint64) (*AtomicLongArray, error) {
	return NewAtomicLongArrayWithPageShift(length, DefaultPageShift)
}

// NewAtomicLongArrayWithPageShift allocates with pages of 2^shift slots.
func NewAtomicLongArrayWithPageShift(length uint64, shift uint) (*AtomicLongArray, error) {
	l, err := newLayout("NewAtomicLongArray", length, shift)
	if err != nil {
		return nil, err
	}
	return &AtomicLongArray{layout: l, pages: allocatePages[atomic.Int64](l)}, nil
}

// Length returns the logical number of slots.
func (a *AtomicLongArray) Length() uint64 {
	return a.length
}

func (a *AtomicLongArray) slot(op string, i uint64) (*atomic.Int64, error) {
	if err := a.check(op, i); err != nil {
		return nil, err
	}
	p, o := a.locate(i)
	return &a.pages[p][o], nil
}

// Get atomically loads the value at i.
func (a *AtomicLongArray) Get(i uint64) (int64, error) {
	s, err := a.slot("Get", i)
	if err != nil {
		return 0, err
	}
	return s.Load(), nil
}

// Set atomically stores v at i.
func (a *AtomicLongArray) Set(i uint64, v int64) error {
	s, err := a.slot("Set", i)
	if err != nil {
		return err
	}
	s.Store(v)
	return nil
}

// CompareAndSwap stores update at i if the current value equals expected.
func (a *AtomicLongArray) CompareAndSwap(i uint64, expected, update int64) (bool, error) {
	s, err := a.slot("CompareAndSwap", i)
	if err != nil {
		return false, err
	}
	return s.CompareAndSwap(expected, update), nil
}

// CompareAndExchange is CompareAndSwap returning the witness value: expected
// when the swap happened, otherwise the value that prevented it.
func (a *AtomicLongArray) CompareAndExchange(i uint64, expected, update int64) (int64, error) {
	s, err := a.slot("CompareAndExchange", i)
	if err != nil {
		return 0, err
	}
	for {
		cur := s.Load()
		if cur != expected {
			return cur, nil
		}
		if s.CompareAndSwap(expected, update) {
			return expected, nil
		}
	}
}

// GetAndAdd adds delta to the value at i and returns the previous value.
func (a *AtomicLongArray) GetAndAdd(i uint64, delta int64) (int64, error) {
	s, err := a.slot("GetAndAdd", i)
	if err != nil {
		return 0, err
	}
	return s.Add(delta) - delta, nil
}

// FetchMax raises the value at i to v if v is larger and returns the previous value.
func (a *AtomicLongArray) FetchMax(i uint64, v int64) (int64, error) {
	return a.fetch("FetchMax", i, func(cur int64) int64 { return max(cur, v) })
}

// FetchMin lowers the value at i to v if v is smaller and returns the previous value.
func (a *AtomicLongArray) FetchMin(i uint64, v int64) (int64, error) {
	return a.fetch("FetchMin", i, func(cur int64) int64 { return min(cur, v) })
}

// Update replaces the value at i with fn(current) and returns the new value.
// fn may run several times under contention and must be free of side effects.
func (a *AtomicLongArray) Update(i uint64, fn func(cur int64) int64) (int64, error) {
	s, err := a.slot("Update", i)
	if err != nil {
		return 0, err
	}
	for {
		cur := s.Load()
		next := fn(cur)
		if s.CompareAndSwap(cur, next) {
			return next, nil
		}
	}
}

func (a *AtomicLongArray) fetch(op string, i uint64, fn func(cur int64) int64) (int64, error) {
	s, err := a.slot(op, i)
	if err != nil {
		return 0, err
	}
	for {
		cur := s.Load()
		next := fn(cur)
		if next == cur || s.CompareAndSwap(cur, next) {
			return cur, nil
		}
	}
}

// Fill stores v in every slot. No other access may be in flight.
func (a *AtomicLongArray) Fill(v int64) {
	for _, page := range a.pages {
		for o := range page {
			page[o].Store(v)
		}
	}
}

// ToArray copies the current slot values into a plain Array.
func (a *AtomicLongArray) ToArray() (*Array[int64], error) {
	out, err := NewWithPageShift[int64](a.length, a.shift)
	if err != nil {
		return nil, err
	}
	for p, page := range a.pages {
		dst := out.pages[p]
		for o := range page {
			dst[o] = page[o].Load()
		}
	}
	return out, nil
}
