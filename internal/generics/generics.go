// Package generics holds small generic helpers over slices and maps.
package generics

import (
	"cmp"
	"iter"
	"maps"
	"slices"
)

// SliceMap returns a new slice with fn applied to each element of in, in order.
func SliceMap[In, Out any](in []In, fn func(e In) Out) []Out {
	out := make([]Out, len(in))
	for ii, e := range in {
		out[ii] = fn(e)
	}
	return out
}

// SortedKeys iterates over the keys of m in ascending order.
//
// The keys are collected and sorted upfront.
func SortedKeys[M ~map[K]V, K cmp.Ordered, V any](m M) iter.Seq[K] {
	keys := slices.Sorted(maps.Keys(m))
	return slices.Values(keys)
}
