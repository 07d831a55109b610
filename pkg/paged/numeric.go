package paged

import "golang.org/x/exp/constraints"

// Number is any element type the numeric helpers can aggregate.
type Number interface {
	constraints.Integer | constraints.Float
}

// Sum adds every element of a. Integer overflow wraps.
func Sum[T Number](a *Array[T]) T {
	var total T
	for _, page := range a.pages {
		for _, v := range page {
			total += v
		}
	}
	return total
}

// Max returns the largest element, or false for an empty array.
func Max[T Number](a *Array[T]) (T, bool) {
	return reduce(a, func(best, v T) bool { return v > best })
}

// Min returns the smallest element, or false for an empty array.
func Min[T Number](a *Array[T]) (T, bool) {
	return reduce(a, func(best, v T) bool { return v < best })
}

func reduce[T Number](a *Array[T], better func(best, v T) bool) (T, bool) {
	var best T
	if a.length == 0 {
		return best, false
	}
	best = a.pages[0][0]
	for _, page := range a.pages {
		for _, v := range page {
			if better(best, v) {
				best = v
			}
		}
	}
	return best, true
}
