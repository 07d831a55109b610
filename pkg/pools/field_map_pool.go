package pools

import (
	"sync"
)

// FieldMapPool pools the maps that carry structured log fields.
type FieldMapPool struct {
	pool sync.Pool
}

// NewFieldMapPool creates a new field map pool.
func NewFieldMapPool() *FieldMapPool {
	return &FieldMapPool{
		pool: sync.Pool{
			New: func() any {
				return make(map[string]any, 8)
			},
		},
	}
}

// Get returns an empty map from the pool.
func (p *FieldMapPool) Get() map[string]any {
	m, ok := p.pool.Get().(map[string]any)
	if !ok {
		return make(map[string]any, 8)
	}
	clear(m)
	return m
}

// Put returns a map to the pool.
func (p *FieldMapPool) Put(m map[string]any) {
	if m == nil || len(m) > 64 {
		return // Don't pool nil or unusually wide maps
	}
	p.pool.Put(m)
}

// Default global field map pool
var defaultFieldMapPool = NewFieldMapPool()

// GetFieldMap returns a field map from the default pool.
func GetFieldMap() map[string]any {
	return defaultFieldMapPool.Get()
}

// PutFieldMap returns a field map to the default pool.
func PutFieldMap(m map[string]any) {
	defaultFieldMapPool.Put(m)
}
