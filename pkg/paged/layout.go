package paged

import (
	"math"
	"math/bits"
)

const (
	// DefaultPageShift gives pages of 2^14 elements.
	DefaultPageShift = 14
	// MinPageShift and MaxPageShift bound the page sizes accepted by the constructors.
	MinPageShift = 6
	MaxPageShift = 30

	pageHeaderBytes = 24 // slice header per page

	// maxAllocBytes is the largest single allocation the Go runtime accepts on 64-bit platforms.
	maxAllocBytes = uint64(1) << 48
)

// maxPages bounds the page table so that allocating it cannot exceed the runtime limit.
var maxPages = min(maxAllocBytes, uint64(math.MaxInt)) / pageHeaderBytes

// layout resolves a logical index into (page, offset) with a shift and a mask.
type layout struct {
	length    uint64
	shift     uint
	mask      uint64
	pageCount int
}

func newLayout(op string, length uint64, shift uint) (layout, error) {
	if shift < MinPageShift || shift > MaxPageShift {
		return layout{}, &Error{Op: op, Length: length, Cause: ErrInvalidPageShift}
	}
	pages := length >> shift
	if length&(uint64(1)<<shift-1) != 0 {
		pages++
	}
	// pageCount << shift must stay representable, and the page table must be allocatable.
	if pages > math.MaxUint64>>shift || pages > maxPages {
		return layout{}, capacityError(op, length)
	}
	return layout{
		length:    length,
		shift:     shift,
		mask:      uint64(1)<<shift - 1,
		pageCount: int(pages),
	}, nil
}

func (l layout) pageSize() int {
	return 1 << l.shift
}

// pageLen returns the allocated size of page p; only the last page may be partial.
func (l layout) pageLen(p int) int {
	if p == l.pageCount-1 {
		if rem := l.length & l.mask; rem != 0 {
			return int(rem)
		}
	}
	return l.pageSize()
}

func (l layout) locate(i uint64) (int, int) {
	return int(i >> l.shift), int(i & l.mask)
}

func (l layout) check(op string, i uint64) error {
	if i >= l.length {
		return outOfBounds(op, i, l.length)
	}
	return nil
}

func allocatePages[T any](l layout) [][]T {
	pages := make([][]T, l.pageCount)
	for p := range pages {
		pages[p] = make([]T, l.pageLen(p))
	}
	return pages
}

// SizeOf estimates the memory footprint in bytes of a dense paged collection
// of length elements of elemBytes each, using the default page shift.
func SizeOf(length, elemBytes uint64) uint64 {
	return SizeOfWithPageShift(length, elemBytes, DefaultPageShift)
}

// SizeOfWithPageShift is SizeOf for a custom page shift.
func SizeOfWithPageShift(length, elemBytes uint64, shift uint) uint64 {
	pages := length >> shift
	if length&(uint64(1)<<shift-1) != 0 {
		pages++
	}
	hi, data := bits.Mul64(length, elemBytes)
	if hi != 0 {
		return math.MaxUint64
	}
	return data + pages*pageHeaderBytes
}

// nextPow2 rounds v up to the next power of two.
func nextPow2(v uint64) uint64 {
	if v <= 1 {
		return 1
	}
	if v&(v-1) == 0 {
		return v
	}
	l := bits.Len64(v - 1)
	// avoid 1<<64 overflow
	if l >= 63 {
		return 1 << 63
	}
	return 1 << l
}

// NextPowerOfTwo rounds v up to the next power of two, saturating at 2^63.
func NextPowerOfTwo(v uint64) uint64 {
	return nextPow2(v)
}
