package paged

import "iter"

// Array is a fixed-length array stored as independently allocated pages of
// 2^shift elements. It is not safe for concurrent writes to the same index;
// writes to disjoint indices from different goroutines are fine.
type Array[T any] struct {
	layout
	pages [][]T
}

// New allocates an array of length elements with the default page size.
func New[T any](length uint64) (*Array[T], error) {
	return NewWithPageShift[T](length, DefaultPageShift)
}

// NewWithPageShift allocates an array whose pages hold 2^shift elements.
func NewWithPageShift[T any](length uint64, shift uint) (*Array[T], error) {
	l, err := newLayout("New", length, shift)
	if err != nil {
		return nil, err
	}
	return &Array[T]{layout: l, pages: allocatePages[T](l)}, nil
}

// Length returns the logical number of elements.
func (a *Array[T]) Length() uint64 {
	return a.length
}

// PageCount returns the number of allocated pages.
func (a *Array[T]) PageCount() int {
	return a.pageCount
}

// PageShift returns log2 of the page size.
func (a *Array[T]) PageShift() uint {
	return a.shift
}

// Get returns the element at index i.
func (a *Array[T]) Get(i uint64) (T, error) {
	if err := a.check("Get", i); err != nil {
		var zero T
		return zero, err
	}
	p, o := a.locate(i)
	return a.pages[p][o], nil
}

// Set stores v at index i.
func (a *Array[T]) Set(i uint64, v T) error {
	if err := a.check("Set", i); err != nil {
		return err
	}
	p, o := a.locate(i)
	a.pages[p][o] = v
	return nil
}

// ForEachPage calls fn for every page in ascending order. offset is the
// logical index of the page's first element. The last page slice never
// extends past Length. Iteration stops at the first error.
func (a *Array[T]) ForEachPage(fn func(pageIndex int, offset uint64, page []T) error) error {
	for p, page := range a.pages {
		if err := fn(p, uint64(p)<<a.shift, page); err != nil {
			return err
		}
	}
	return nil
}

// Fill sets every element to v.
func (a *Array[T]) Fill(v T) {
	for _, page := range a.pages {
		for o := range page {
			page[o] = v
		}
	}
}

// SetAll sets every element to fn(index).
func (a *Array[T]) SetAll(fn func(i uint64) T) {
	for p, page := range a.pages {
		base := uint64(p) << a.shift
		for o := range page {
			page[o] = fn(base + uint64(o))
		}
	}
}

// CopyOf returns a new array of newLength elements holding a page-by-page
// copy of the first min(Length, newLength) elements of a.
func (a *Array[T]) CopyOf(newLength uint64) (*Array[T], error) {
	dst, err := NewWithPageShift[T](newLength, a.shift)
	if err != nil {
		return nil, err
	}
	for p := 0; p < a.pageCount && p < dst.pageCount; p++ {
		copy(dst.pages[p], a.pages[p])
	}
	return dst, nil
}

// CopyTo copies the first n elements of a into dst.
func (a *Array[T]) CopyTo(dst *Array[T], n uint64) error {
	if n > a.length {
		return outOfBounds("CopyTo", n, a.length)
	}
	if n > dst.length {
		return outOfBounds("CopyTo", n, dst.length)
	}
	if a.shift == dst.shift {
		full, rem := a.locate(n)
		for p := 0; p < full; p++ {
			copy(dst.pages[p], a.pages[p])
		}
		if rem > 0 {
			copy(dst.pages[full][:rem], a.pages[full][:rem])
		}
		return nil
	}
	for i := uint64(0); i < n; i++ {
		sp, so := a.locate(i)
		dp, do := dst.locate(i)
		dst.pages[dp][do] = a.pages[sp][so]
	}
	return nil
}

// All yields (index, value) pairs in ascending index order.
func (a *Array[T]) All() iter.Seq2[uint64, T] {
	return func(yield func(uint64, T) bool) {
		for p, page := range a.pages {
			base := uint64(p) << a.shift
			for o, v := range page {
				if !yield(base+uint64(o), v) {
					return
				}
			}
		}
	}
}

// SizeInBytes estimates the memory held by a, given elemBytes per element.
func (a *Array[T]) SizeInBytes(elemBytes uint64) uint64 {
	return SizeOfWithPageShift(a.length, elemBytes, a.shift)
}
