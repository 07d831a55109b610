package paged

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_PageLayout(t *testing.T) {
	tests := []struct {
		name      string
		length    uint64
		shift     uint
		wantPages int
		lastPage  int
	}{
		{"empty", 0, 6, 0, 0},
		{"single partial page", 10, 6, 1, 10},
		{"exact pages", 128, 6, 2, 64},
		{"partial last page", 130, 6, 3, 2},
		{"default shift", 1 << 14, DefaultPageShift, 1, 1 << 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewWithPageShift[int32](tt.length, tt.shift)
			require.NoError(t, err)
			assert.Equal(t, tt.length, a.Length())
			assert.Equal(t, tt.wantPages, a.PageCount())
			if tt.wantPages > 0 {
				assert.Len(t, a.pages[tt.wantPages-1], tt.lastPage)
			}
		})
	}
}

func TestNew_CapacityError(t *testing.T) {
	_, err := New[int64](math.MaxUint64)
	require.Error(t, err)
	assert.True(t, IsCapacity(err))

	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "New", perr.Op)
	assert.Equal(t, uint64(math.MaxUint64), perr.Length)
}

func TestNew_PageTableTooLarge(t *testing.T) {
	const length = uint64(1) << 60

	_, err := New[int64](length)
	assert.True(t, IsCapacity(err))

	_, err = NewAtomicLongArray(length)
	assert.True(t, IsCapacity(err))

	_, err = NewAtomicDoubleArray(length)
	assert.True(t, IsCapacity(err))

	_, err = NewSparse[int64](length, 0)
	assert.True(t, IsCapacity(err))

	assert.True(t, maxPages*pageHeaderBytes <= maxAllocBytes)
}

func TestNew_InvalidPageShift(t *testing.T) {
	_, err := NewWithPageShift[int](10, 2)
	assert.ErrorIs(t, err, ErrInvalidPageShift)

	_, err = NewWithPageShift[int](10, MaxPageShift+1)
	assert.ErrorIs(t, err, ErrInvalidPageShift)
}

func TestArray_GetSet(t *testing.T) {
	a, err := NewWithPageShift[int64](200, 6)
	require.NoError(t, err)

	for i := uint64(0); i < a.Length(); i++ {
		require.NoError(t, a.Set(i, int64(i*3)))
	}
	for i := uint64(0); i < a.Length(); i++ {
		v, err := a.Get(i)
		require.NoError(t, err)
		assert.Equal(t, int64(i*3), v)
	}
}

func TestArray_OutOfBounds(t *testing.T) {
	a, err := New[float64](5)
	require.NoError(t, err)

	_, err = a.Get(5)
	assert.True(t, IsOutOfBounds(err))
	assert.Contains(t, err.Error(), "Get index 5 (length 5)")

	err = a.Set(100, 1.0)
	assert.ErrorIs(t, err, ErrIndexOutOfBounds)
}

func TestArray_ForEachPageAscending(t *testing.T) {
	a, err := NewWithPageShift[uint64](150, 6)
	require.NoError(t, err)
	a.SetAll(func(i uint64) uint64 { return i })

	var visited []int
	var covered uint64
	err = a.ForEachPage(func(pageIndex int, offset uint64, page []uint64) error {
		visited = append(visited, pageIndex)
		assert.Equal(t, uint64(pageIndex)<<6, offset)
		for o, v := range page {
			assert.Equal(t, offset+uint64(o), v)
		}
		covered += uint64(len(page))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, visited)
	assert.Equal(t, a.Length(), covered)
}

func TestArray_ForEachPageStopsOnError(t *testing.T) {
	a, err := NewWithPageShift[byte](300, 6)
	require.NoError(t, err)

	stop := errors.New("stop")
	calls := 0
	err = a.ForEachPage(func(int, uint64, []byte) error {
		calls++
		if calls == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, calls)
}

func TestArray_FillAndAll(t *testing.T) {
	a, err := NewWithPageShift[string](70, 6)
	require.NoError(t, err)
	a.Fill("x")

	n := 0
	for i, v := range a.All() {
		assert.Equal(t, uint64(n), i)
		assert.Equal(t, "x", v)
		n++
	}
	assert.Equal(t, 70, n)
}

func TestArray_CopyOf(t *testing.T) {
	a, err := NewWithPageShift[int](100, 6)
	require.NoError(t, err)
	a.SetAll(func(i uint64) int { return int(i) + 1 })

	grown, err := a.CopyOf(300)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), grown.Length())
	for i := uint64(0); i < 300; i++ {
		v, err := grown.Get(i)
		require.NoError(t, err)
		if i < 100 {
			assert.Equal(t, int(i)+1, v)
		} else {
			assert.Zero(t, v)
		}
	}

	shrunk, err := a.CopyOf(10)
	require.NoError(t, err)
	assert.Equal(t, 55, Sum(shrunk))

	// The source is untouched
	require.NoError(t, grown.Set(0, -1))
	v, _ := a.Get(0)
	assert.Equal(t, 1, v)
}

func TestArray_CopyTo(t *testing.T) {
	src, err := NewWithPageShift[int](100, 6)
	require.NoError(t, err)
	src.SetAll(func(i uint64) int { return int(i) })

	sameShift, err := NewWithPageShift[int](120, 6)
	require.NoError(t, err)
	require.NoError(t, src.CopyTo(sameShift, 70))
	v, _ := sameShift.Get(69)
	assert.Equal(t, 69, v)
	v, _ = sameShift.Get(70)
	assert.Zero(t, v)

	otherShift, err := NewWithPageShift[int](100, 7)
	require.NoError(t, err)
	require.NoError(t, src.CopyTo(otherShift, 100))
	assert.Equal(t, Sum(src), Sum(otherShift))

	assert.ErrorIs(t, src.CopyTo(sameShift, 101), ErrIndexOutOfBounds)
}

func TestNumericHelpers(t *testing.T) {
	a, err := New[float64](4)
	require.NoError(t, err)
	for i, v := range []float64{2.5, -1, 7, 0} {
		require.NoError(t, a.Set(uint64(i), v))
	}

	assert.Equal(t, 8.5, Sum(a))
	hi, ok := Max(a)
	assert.True(t, ok)
	assert.Equal(t, 7.0, hi)
	lo, ok := Min(a)
	assert.True(t, ok)
	assert.Equal(t, -1.0, lo)

	empty, err := New[int](0)
	require.NoError(t, err)
	_, ok = Max(empty)
	assert.False(t, ok)
}

func TestSizeOf(t *testing.T) {
	assert.Equal(t, uint64(0), SizeOf(0, 8))
	assert.Equal(t, uint64(8*100+pageHeaderBytes), SizeOf(100, 8))
	assert.Equal(t, uint64(8*(1<<15)+2*pageHeaderBytes), SizeOf(1<<15, 8))
	assert.Equal(t, uint64(math.MaxUint64), SizeOf(math.MaxUint64, 8))

	a, err := New[int64](100)
	require.NoError(t, err)
	assert.Equal(t, SizeOf(100, 8), a.SizeInBytes(8))
}

func TestNextPowerOfTwo(t *testing.T) {
	assert.Equal(t, uint64(1), NextPowerOfTwo(0))
	assert.Equal(t, uint64(1), NextPowerOfTwo(1))
	assert.Equal(t, uint64(8), NextPowerOfTwo(5))
	assert.Equal(t, uint64(8192), NextPowerOfTwo(8192))
	assert.Equal(t, uint64(1)<<63, NextPowerOfTwo(math.MaxUint64))
}
