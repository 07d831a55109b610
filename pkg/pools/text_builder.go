package pools

import (
	"strconv"
)

// TextBuilder builds text on a pooled buffer.
type TextBuilder struct {
	buf  []byte
	pool *BytePool
}

// NewTextBuilder creates a builder with at least initialCap bytes of capacity.
func NewTextBuilder(initialCap int) *TextBuilder {
	return &TextBuilder{
		buf:  defaultBytePool.Get(initialCap),
		pool: defaultBytePool,
	}
}

// Write appends bytes to the buffer.
func (b *TextBuilder) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// WriteByte appends a single byte.
func (b *TextBuilder) WriteByte(c byte) error {
	b.buf = append(b.buf, c)
	return nil
}

// WriteString appends a string.
func (b *TextBuilder) WriteString(s string) {
	b.buf = append(b.buf, s...)
}

// WriteRepeat appends s n times.
func (b *TextBuilder) WriteRepeat(s string, n int) {
	for i := 0; i < n; i++ {
		b.buf = append(b.buf, s...)
	}
}

// WriteUint appends the decimal form of v.
func (b *TextBuilder) WriteUint(v uint64) {
	b.buf = strconv.AppendUint(b.buf, v, 10)
}

// String returns a copy of the built text; the builder stays usable.
func (b *TextBuilder) String() string {
	return string(b.buf)
}

// Len returns the current length of the buffer.
func (b *TextBuilder) Len() int {
	return len(b.buf)
}

// Reset resets the buffer for reuse.
func (b *TextBuilder) Reset() {
	b.buf = b.buf[:0]
}

// Release returns the buffer to the pool. After Release, the builder should not be used.
func (b *TextBuilder) Release() {
	if b.pool != nil && b.buf != nil {
		b.pool.Put(b.buf)
	}
	b.buf = nil
}
