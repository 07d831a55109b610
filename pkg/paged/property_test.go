package paged

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestPagedInvariants uses property-based testing on the page arithmetic.
func TestPagedInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	// Property 1: every index written is read back unchanged
	properties.Property("set then get round-trips at every index", prop.ForAll(
		func(length uint64, shift uint) bool {
			a, err := NewWithPageShift[uint64](length, shift)
			if err != nil {
				return false
			}
			for i := uint64(0); i < length; i++ {
				if a.Set(i, i^0x5a5a) != nil {
					return false
				}
			}
			for i := uint64(0); i < length; i++ {
				v, err := a.Get(i)
				if err != nil || v != i^0x5a5a {
					return false
				}
			}
			_, err = a.Get(length)
			return IsOutOfBounds(err)
		},
		gen.UInt64Range(0, 5000),
		gen.UIntRange(MinPageShift, 10),
	))

	// Property 2: pages cover [0, length) exactly once, in order
	properties.Property("pages tile the index space", prop.ForAll(
		func(length uint64, shift uint) bool {
			a, err := NewWithPageShift[byte](length, shift)
			if err != nil {
				return false
			}
			var next uint64
			err = a.ForEachPage(func(_ int, offset uint64, page []byte) error {
				if offset != next {
					return ErrIndexOutOfBounds
				}
				next += uint64(len(page))
				return nil
			})
			return err == nil && next == length
		},
		gen.UInt64Range(0, 100_000),
		gen.UIntRange(MinPageShift, 14),
	))

	// Property 3: sparse reads of unwritten indices never allocate
	properties.Property("sparse get is allocation free", prop.ForAll(
		func(capacity uint64, probes []uint64) bool {
			s, err := NewSparseWithPageShift[int](capacity, 7, 6)
			if err != nil {
				return false
			}
			for _, p := range probes {
				v, err := s.Get(p % capacity)
				if err != nil || v != 7 {
					return false
				}
			}
			return s.AllocatedPages() == 0
		},
		gen.UInt64Range(1, 1_000_000),
		gen.SliceOf(gen.UInt64()),
	))

	properties.TestingRun(t)
}
