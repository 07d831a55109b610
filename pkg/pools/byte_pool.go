package pools

import (
	"sync"
)

// Text buffer size classes
const (
	LineSize  = 256   // A single log line or tree row
	BlockSize = 4096  // A rendered task tree
	MaxPool   = 65536 // Don't pool buffers larger than this
)

// BytePool provides size-class based pooling for byte slices.
type BytePool struct {
	line  sync.Pool // <= 256 bytes
	block sync.Pool // <= 4096 bytes
	max   sync.Pool // <= 65536 bytes
}

func byteClass(n int) func() any {
	return func() any {
		b := make([]byte, 0, n)
		return &b
	}
}

// NewBytePool creates a new byte pool.
func NewBytePool() *BytePool {
	return &BytePool{
		line:  sync.Pool{New: byteClass(LineSize)},
		block: sync.Pool{New: byteClass(BlockSize)},
		max:   sync.Pool{New: byteClass(MaxPool)},
	}
}

// Get returns a zero-length slice with at least the requested capacity.
func (p *BytePool) Get(size int) []byte {
	var pool *sync.Pool
	switch {
	case size <= LineSize:
		pool = &p.line
	case size <= BlockSize:
		pool = &p.block
	case size <= MaxPool:
		pool = &p.max
	default:
		// Too large to pool, allocate directly
		return make([]byte, 0, size)
	}

	bp, ok := pool.Get().(*[]byte)
	if !ok || cap(*bp) < size {
		return make([]byte, 0, size)
	}
	return (*bp)[:0]
}

// Put returns a byte slice to the pool for reuse.
func (p *BytePool) Put(b []byte) {
	c := cap(b)
	if c > MaxPool {
		return // Don't pool oversized buffers
	}

	var pool *sync.Pool
	switch {
	case c >= MaxPool:
		pool = &p.max
	case c >= BlockSize:
		pool = &p.block
	case c >= LineSize:
		pool = &p.line
	default:
		return
	}

	b = b[:0]
	pool.Put(&b)
}

// Default global byte pool
var defaultBytePool = NewBytePool()

// GetBytes returns a byte slice from the default pool.
func GetBytes(size int) []byte {
	return defaultBytePool.Get(size)
}

// PutBytes returns a byte slice to the default pool.
func PutBytes(b []byte) {
	defaultBytePool.Put(b)
}
