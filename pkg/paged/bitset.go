package paged

import (
	"math/bits"
	"sync/atomic"
)

// AtomicBitSet is a fixed-size bit set over paged 64-bit words. Bit updates
// are word-level compare-and-swap, so concurrent Set calls on any bits are safe.
type AtomicBitSet struct {
	size  uint64
	words *AtomicLongArray
}

// NewAtomicBitSet allocates a cleared bit set of size bits.
func NewAtomicBitSet(size uint64) (*AtomicBitSet, error) {
	return NewAtomicBitSetWithPageShift(size, DefaultPageShift)
}

// NewAtomicBitSetWithPageShift stores the words in pages of 2^shift words.
func NewAtomicBitSetWithPageShift(size uint64, shift uint) (*AtomicBitSet, error) {
	words, err := NewAtomicLongArrayWithPageShift(size>>6+boolToUint(size&63 != 0), shift)
	if err != nil {
		return nil, err
	}
	return &AtomicBitSet{size: size, words: words}, nil
}

func boolToUint(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// Size returns the number of addressable bits.
func (b *AtomicBitSet) Size() uint64 {
	return b.size
}

func (b *AtomicBitSet) word(op string, i uint64) (*atomic.Int64, uint64, error) {
	if i >= b.size {
		return nil, 0, outOfBounds(op, i, b.size)
	}
	p, o := b.words.locate(i >> 6)
	return &b.words.pages[p][o], uint64(1) << (i & 63), nil
}

// Get reports whether bit i is set.
func (b *AtomicBitSet) Get(i uint64) (bool, error) {
	w, mask, err := b.word("Get", i)
	if err != nil {
		return false, err
	}
	return uint64(w.Load())&mask != 0, nil
}

// Set sets bit i.
func (b *AtomicBitSet) Set(i uint64) error {
	_, err := b.GetAndSet(i)
	return err
}

// GetAndSet sets bit i and reports whether it was already set. Exactly one
// of several concurrent callers for the same bit observes false.
func (b *AtomicBitSet) GetAndSet(i uint64) (bool, error) {
	w, mask, err := b.word("GetAndSet", i)
	if err != nil {
		return false, err
	}
	for {
		cur := w.Load()
		if uint64(cur)&mask != 0 {
			return true, nil
		}
		if w.CompareAndSwap(cur, int64(uint64(cur)|mask)) {
			return false, nil
		}
	}
}

// Clear unsets bit i.
func (b *AtomicBitSet) Clear(i uint64) error {
	w, mask, err := b.word("Clear", i)
	if err != nil {
		return err
	}
	for {
		cur := w.Load()
		if uint64(cur)&mask == 0 {
			return nil
		}
		if w.CompareAndSwap(cur, int64(uint64(cur)&^mask)) {
			return nil
		}
	}
}

// SetRange sets every bit in [start, end).
func (b *AtomicBitSet) SetRange(start, end uint64) error {
	if end > b.size {
		return outOfBounds("SetRange", end, b.size)
	}
	for i := start; i < end; {
		w, _, _ := b.word("SetRange", i)
		lo := i & 63
		hi := min(uint64(64), lo+(end-i))
		var mask uint64
		if hi-lo == 64 {
			mask = ^uint64(0)
		} else {
			mask = (uint64(1)<<(hi-lo) - 1) << lo
		}
		for {
			cur := w.Load()
			if w.CompareAndSwap(cur, int64(uint64(cur)|mask)) {
				break
			}
		}
		i += hi - lo
	}
	return nil
}

// Cardinality counts set bits. Concurrent writers may or may not be observed.
func (b *AtomicBitSet) Cardinality() uint64 {
	var n uint64
	for _, page := range b.words.pages {
		for o := range page {
			n += uint64(bits.OnesCount64(uint64(page[o].Load())))
		}
	}
	return n
}

// ClearAll unsets every bit. No other access may be in flight.
func (b *AtomicBitSet) ClearAll() {
	b.words.Fill(0)
}
