// internal/utils/aggregate.go
package utils

import (
	"cmp"
	"slices"
)

// GroupFold partitions items into keyed buckets and folds each bucket into
// an accumulator. All three scheduled jobs share this shape: emit a key per
// record, combine records under the same key, reduce.
func GroupFold[T any, K comparable, A any](items []T, key func(T) K, fold func(A, T) A) map[K]A {
	out := make(map[K]A)
	for _, item := range items {
		k := key(item)
		out[k] = fold(out[k], item)
	}
	return out
}

// SortedKeys returns the keys of a map in ascending order, for deterministic
// iteration over aggregation results.
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
