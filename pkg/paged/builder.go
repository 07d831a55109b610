package paged

import "sync"

// Builder fills a paged array whose final length is not known up front.
// Pages are allocated as WriteRange reaches them and Build fixes the length.
// Goroutines may call WriteRange concurrently as long as their ranges do not
// overlap.
type Builder[T any] struct {
	shift uint

	// mu guards growth of the page table; page contents are written under
	// the read lock.
	mu    sync.RWMutex
	pages [][]T
}

// NewBuilder creates an empty builder with the default page size.
func NewBuilder[T any]() *Builder[T] {
	return &Builder[T]{shift: DefaultPageShift}
}

// NewBuilderWithPageShift creates a builder whose pages hold 2^shift elements.
func NewBuilderWithPageShift[T any](shift uint) (*Builder[T], error) {
	if shift < MinPageShift || shift > MaxPageShift {
		return nil, &Error{Op: "NewBuilder", Cause: ErrInvalidPageShift}
	}
	return &Builder[T]{shift: shift}, nil
}

// PageShift returns log2 of the page size.
func (b *Builder[T]) PageShift() uint {
	return b.shift
}

// PageCount returns the number of pages allocated so far.
func (b *Builder[T]) PageCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.pages)
}

// WriteRange copies data to [start, start+len(data)), allocating any
// missing pages. Slots between earlier writes stay zero.
func (b *Builder[T]) WriteRange(start uint64, data []T) error {
	if len(data) == 0 {
		return nil
	}
	end := start + uint64(len(data))
	if end < start {
		return capacityError("WriteRange", start)
	}
	l, err := newLayout("WriteRange", end, b.shift)
	if err != nil {
		return err
	}
	b.grow(l.pageCount)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for pos := start; len(data) > 0; {
		p, o := l.locate(pos)
		n := copy(b.pages[p][o:], data)
		data = data[n:]
		pos += uint64(n)
	}
	return nil
}

func (b *Builder[T]) grow(pageCount int) {
	b.mu.RLock()
	have := len(b.pages)
	b.mu.RUnlock()
	if have >= pageCount {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.pages) < pageCount {
		b.pages = append(b.pages, make([]T, 1<<b.shift))
	}
}

// Build returns an array of length elements. Slots never written are zero
// and anything written at or past length is dropped. The pages move to the
// array, leaving the builder empty.
func (b *Builder[T]) Build(length uint64) (*Array[T], error) {
	l, err := newLayout("Build", length, b.shift)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	written := b.pages
	b.pages = nil
	b.mu.Unlock()

	pages := make([][]T, l.pageCount)
	for p := range pages {
		if p < len(written) {
			pages[p] = written[p][:l.pageLen(p)]
		} else {
			pages[p] = make([]T, l.pageLen(p))
		}
	}
	return &Array[T]{layout: l, pages: pages}, nil
}
