package pools

import (
	"sync"
)

// Batch size classes for node-id slices. LargeBatch matches the largest
// progress batch, so a partition batch always fits a pooled slice.
const (
	SmallBatch  = 64
	MediumBatch = 1024
	LargeBatch  = 8192
	MaxIDPool   = 1 << 16 // Don't pool slices larger than this
)

// IDPool pools uint64 slices holding node ids.
type IDPool struct {
	small  sync.Pool // <= 64 ids
	medium sync.Pool // <= 1024 ids
	large  sync.Pool // <= 8192 ids
}

func idClass(n int) func() any {
	return func() any {
		s := make([]uint64, 0, n)
		return &s
	}
}

// NewIDPool creates a new id slice pool.
func NewIDPool() *IDPool {
	return &IDPool{
		small:  sync.Pool{New: idClass(SmallBatch)},
		medium: sync.Pool{New: idClass(MediumBatch)},
		large:  sync.Pool{New: idClass(LargeBatch)},
	}
}

func (p *IDPool) class(c int) *sync.Pool {
	switch {
	case c <= SmallBatch:
		return &p.small
	case c <= MediumBatch:
		return &p.medium
	case c <= LargeBatch:
		return &p.large
	default:
		return nil
	}
}

// Get returns an empty slice with capacity for at least size ids.
func (p *IDPool) Get(size int) []uint64 {
	pool := p.class(size)
	if pool == nil {
		return make([]uint64, 0, size)
	}

	sp, ok := pool.Get().(*[]uint64)
	if !ok || cap(*sp) < size {
		return make([]uint64, 0, size)
	}
	return (*sp)[:0]
}

// Put returns a slice to the pool. The caller must not use it afterwards.
func (p *IDPool) Put(s []uint64) {
	c := cap(s)
	if c == 0 || c > MaxIDPool {
		return
	}

	// A slice is filed under the largest class it can fully serve.
	var pool *sync.Pool
	switch {
	case c >= LargeBatch:
		pool = &p.large
	case c >= MediumBatch:
		pool = &p.medium
	case c >= SmallBatch:
		pool = &p.small
	default:
		return
	}

	s = s[:0]
	pool.Put(&s)
}

// Default global id pool
var defaultIDPool = NewIDPool()

// GetIDs returns an id slice from the default pool.
func GetIDs(size int) []uint64 {
	return defaultIDPool.Get(size)
}

// PutIDs returns an id slice to the default pool.
func PutIDs(s []uint64) {
	defaultIDPool.Put(s)
}
