package paged

import (
	"iter"
	"math/bits"
	"sync"
	"sync/atomic"
)

type sparsePage[T any] struct {
	values  []T
	present []atomic.Uint64
}

// SparseArray maps indices in [0, capacity) to values, allocating a page only
// when an index in it is first written. Unwritten indices read as the default.
//
// Set on distinct indices is safe from concurrent goroutines. Concurrent
// access to the same index needs external ordering.
type SparseArray[T any] struct {
	layout
	def   T
	pages []atomic.Pointer[sparsePage[T]]

	// mu protects the allocation of new pages
	mu sync.Mutex
}

// NewSparse creates a sparse array of the given capacity; no pages are allocated.
func NewSparse[T any](capacity uint64, defaultValue T) (*SparseArray[T], error) {
	return NewSparseWithPageShift(capacity, defaultValue, DefaultPageShift)
}

// NewSparseWithPageShift is NewSparse with pages of 2^shift elements.
func NewSparseWithPageShift[T any](capacity uint64, defaultValue T, shift uint) (*SparseArray[T], error) {
	l, err := newLayout("NewSparse", capacity, shift)
	if err != nil {
		return nil, err
	}
	return &SparseArray[T]{
		layout: l,
		def:    defaultValue,
		pages:  make([]atomic.Pointer[sparsePage[T]], l.pageCount),
	}, nil
}

// Capacity returns the number of addressable indices.
func (s *SparseArray[T]) Capacity() uint64 {
	return s.length
}

// Default returns the value reported for unwritten indices.
func (s *SparseArray[T]) Default() T {
	return s.def
}

// Get returns the value at i, or the default when i was never written.
// It never allocates.
func (s *SparseArray[T]) Get(i uint64) (T, error) {
	if err := s.check("Get", i); err != nil {
		var zero T
		return zero, err
	}
	p, o := s.locate(i)
	pg := s.pages[p].Load()
	if pg == nil || pg.present[o>>6].Load()&(1<<(o&63)) == 0 {
		return s.def, nil
	}
	return pg.values[o], nil
}

// Contains reports whether i was written, even if it was written with the default.
func (s *SparseArray[T]) Contains(i uint64) (bool, error) {
	if err := s.check("Contains", i); err != nil {
		return false, err
	}
	p, o := s.locate(i)
	pg := s.pages[p].Load()
	return pg != nil && pg.present[o>>6].Load()&(1<<(o&63)) != 0, nil
}

// Set stores v at i, allocating its page on first use.
func (s *SparseArray[T]) Set(i uint64, v T) error {
	if err := s.check("Set", i); err != nil {
		return err
	}
	p, o := s.locate(i)
	pg := s.ensurePage(p)
	pg.values[o] = v
	pg.present[o>>6].Or(1 << (o & 63))
	return nil
}

func (s *SparseArray[T]) ensurePage(p int) *sparsePage[T] {
	// first do a quick check without locking
	if pg := s.pages[p].Load(); pg != nil {
		return pg
	}

	// double-checked locking
	s.mu.Lock()
	defer s.mu.Unlock()
	if pg := s.pages[p].Load(); pg != nil {
		return pg
	}
	n := s.pageLen(p)
	pg := &sparsePage[T]{
		values:  make([]T, n),
		present: make([]atomic.Uint64, (n+63)/64),
	}
	s.pages[p].Store(pg)
	return pg
}

// AllocatedPages returns how many pages have been materialized by writes.
func (s *SparseArray[T]) AllocatedPages() int {
	n := 0
	for p := range s.pages {
		if s.pages[p].Load() != nil {
			n++
		}
	}
	return n
}

// All yields written (index, value) pairs in ascending order.
func (s *SparseArray[T]) All() iter.Seq2[uint64, T] {
	return func(yield func(uint64, T) bool) {
		for p := range s.pages {
			pg := s.pages[p].Load()
			if pg == nil {
				continue
			}
			base := uint64(p) << s.shift
			for w := range pg.present {
				word := pg.present[w].Load()
				for word != 0 {
					bit := bits.TrailingZeros64(word)
					word &= word - 1
					o := w<<6 + bit
					if !yield(base+uint64(o), pg.values[o]) {
						return
					}
				}
			}
		}
	}
}

// ForEach calls fn for every written index in ascending order until fn returns false.
func (s *SparseArray[T]) ForEach(fn func(i uint64, v T) bool) {
	for i, v := range s.All() {
		if !fn(i, v) {
			return
		}
	}
}
