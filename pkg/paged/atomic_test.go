package paged

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicLongArray_Basic(t *testing.T) {
	a, err := NewAtomicLongArrayWithPageShift(100, 6)
	require.NoError(t, err)

	require.NoError(t, a.Set(70, 5))
	v, err := a.Get(70)
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)

	swapped, err := a.CompareAndSwap(70, 5, 9)
	require.NoError(t, err)
	assert.True(t, swapped)
	swapped, err = a.CompareAndSwap(70, 5, 11)
	require.NoError(t, err)
	assert.False(t, swapped)

	witness, err := a.CompareAndExchange(70, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(9), witness)
	witness, err = a.CompareAndExchange(70, 9, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(9), witness)

	prev, err := a.GetAndAdd(70, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), prev)

	prev, err = a.FetchMax(70, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(12), prev)
	prev, err = a.FetchMin(70, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(12), prev)
	v, _ = a.Get(70)
	assert.Equal(t, int64(3), v)

	next, err := a.Update(70, func(cur int64) int64 { return cur * 7 })
	require.NoError(t, err)
	assert.Equal(t, int64(21), next)

	_, err = a.Get(100)
	assert.ErrorIs(t, err, ErrIndexOutOfBounds)
	_, err = a.CompareAndSwap(100, 0, 1)
	assert.ErrorIs(t, err, ErrIndexOutOfBounds)
}

func TestAtomicLongArray_ConcurrentAdd(t *testing.T) {
	a, err := NewAtomicLongArrayWithPageShift(256, 6)
	require.NoError(t, err)

	const workers = 8
	const rounds = 500
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				for i := uint64(0); i < a.Length(); i += 17 {
					_, _ = a.GetAndAdd(i, 1)
				}
			}
		}()
	}
	wg.Wait()

	snapshot, err := a.ToArray()
	require.NoError(t, err)
	for i, v := range snapshot.All() {
		if i%17 == 0 {
			assert.Equal(t, int64(workers*rounds), v, "index %d", i)
		} else {
			assert.Zero(t, v, "index %d", i)
		}
	}
}

func TestAtomicLongArray_ConcurrentFetchMax(t *testing.T) {
	a, err := NewAtomicLongArray(1)
	require.NoError(t, err)
	a.Fill(math.MinInt64)

	var wg sync.WaitGroup
	for w := 0; w < 6; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := int64(0); i < 1000; i++ {
				_, _ = a.FetchMax(0, i*6+int64(w))
			}
		}(w)
	}
	wg.Wait()

	v, _ := a.Get(0)
	assert.Equal(t, int64(999*6+5), v)
}

func TestAtomicDoubleArray_Basic(t *testing.T) {
	a, err := NewAtomicDoubleArray(10)
	require.NoError(t, err)

	require.NoError(t, a.Set(3, 1.5))
	prev, err := a.GetAndAdd(3, 2.0)
	require.NoError(t, err)
	assert.Equal(t, 1.5, prev)

	v, _ := a.Get(3)
	assert.Equal(t, 3.5, v)

	swapped, err := a.CompareAndSwap(3, 3.5, -1)
	require.NoError(t, err)
	assert.True(t, swapped)

	// Bit-pattern comparison: +0 does not match -0
	require.NoError(t, a.Set(4, math.Copysign(0, -1)))
	swapped, err = a.CompareAndSwap(4, 0, 1)
	require.NoError(t, err)
	assert.False(t, swapped)

	witness, err := a.CompareAndExchange(3, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, -1.0, witness)

	_, _ = a.FetchMax(5, 4.25)
	_, _ = a.FetchMin(5, -4.25)
	v, _ = a.Get(5)
	assert.Equal(t, -4.25, v)

	next, err := a.Update(6, func(cur float64) float64 { return cur + 0.5 })
	require.NoError(t, err)
	assert.Equal(t, 0.5, next)

	_, err = a.Get(10)
	assert.ErrorIs(t, err, ErrIndexOutOfBounds)
}

func TestAtomicDoubleArray_ConcurrentUpdate(t *testing.T) {
	a, err := NewAtomicDoubleArray(4)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				_, _ = a.Update(2, func(cur float64) float64 { return cur + 1.0 })
			}
		}()
	}
	wg.Wait()

	out, err := a.ToArray()
	require.NoError(t, err)
	assert.Equal(t, 8000.0, Sum(out))
}

func TestAtomicBitSet(t *testing.T) {
	b, err := NewAtomicBitSet(130)
	require.NoError(t, err)
	assert.Equal(t, uint64(130), b.Size())

	was, err := b.GetAndSet(64)
	require.NoError(t, err)
	assert.False(t, was)
	was, err = b.GetAndSet(64)
	require.NoError(t, err)
	assert.True(t, was)

	require.NoError(t, b.Set(129))
	set, _ := b.Get(129)
	assert.True(t, set)
	assert.Equal(t, uint64(2), b.Cardinality())

	require.NoError(t, b.Clear(64))
	set, _ = b.Get(64)
	assert.False(t, set)

	require.NoError(t, b.SetRange(10, 128))
	assert.Equal(t, uint64(118+1), b.Cardinality())
	set, _ = b.Get(9)
	assert.False(t, set)
	set, _ = b.Get(127)
	assert.True(t, set)

	b.ClearAll()
	assert.Zero(t, b.Cardinality())

	_, err = b.Get(130)
	assert.ErrorIs(t, err, ErrIndexOutOfBounds)
	assert.ErrorIs(t, b.SetRange(0, 131), ErrIndexOutOfBounds)
}

func TestAtomicBitSet_ConcurrentGetAndSetHasSingleWinner(t *testing.T) {
	b, err := NewAtomicBitSet(1000)
	require.NoError(t, err)

	var winners sync.Map
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := uint64(0); i < 1000; i++ {
				if was, _ := b.GetAndSet(i); !was {
					if _, loaded := winners.LoadOrStore(i, w); loaded {
						t.Errorf("bit %d claimed twice", i)
					}
				}
			}
		}(w)
	}
	wg.Wait()
	assert.Equal(t, uint64(1000), b.Cardinality())
}
