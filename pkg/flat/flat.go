// Package flat provides ordered collections backed by flat slices.
// Lookups use binary search, so membership checks are O(log n) while
// iteration touches contiguous memory.
package flat

import (
	"cmp"
	"iter"
	"slices"
)

// Set is an ordered collection of unique elements stored in a sorted
// slice. Equivalence is defined by the compare function; inserting an
// element equivalent to an existing one replaces it.
//
// Elements must not be mutated in a way that changes their order. With
// a custom compare function, elements with different contents can share
// one identity; only the latest inserted survives.
type Set[T any] struct {
	items   []T
	compare func(a, b T) int
}

// NewSet creates an empty set using the natural order of T.
func NewSet[T cmp.Ordered]() *Set[T] {
	return &Set[T]{compare: cmp.Compare[T]}
}

// NewSetFunc creates an empty set ordered by compare.
func NewSetFunc[T any](compare func(a, b T) int) *Set[T] {
	return &Set[T]{compare: compare}
}

// Len returns the number of elements in the set.
func (s *Set[T]) Len() int {
	return len(s.items)
}

// Insert adds t to the set or replaces the existing equivalent element.
func (s *Set[T]) Insert(t T) {
	pos, found := slices.BinarySearchFunc(s.items, t, s.compare)
	if found {
		s.items[pos] = t
		return
	}
	s.items = slices.Insert(s.items, pos, t)
}

// Contains reports whether an equivalent element is in the set.
func (s *Set[T]) Contains(t T) bool {
	_, found := slices.BinarySearchFunc(s.items, t, s.compare)
	return found
}

// Get returns the stored element equivalent to t.
func (s *Set[T]) Get(t T) (T, bool) {
	pos, found := slices.BinarySearchFunc(s.items, t, s.compare)
	if !found {
		var zero T
		return zero, false
	}
	return s.items[pos], true
}

// Clear removes all elements.
func (s *Set[T]) Clear() {
	s.items = s.items[:0]
}

// All returns an iterator over the elements in ascending order.
func (s *Set[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, item := range s.items {
			if !yield(item) {
				return
			}
		}
	}
}

// Map is an ordered key-value collection with sorted keys and a
// parallel value slice.
type Map[K cmp.Ordered, V any] struct {
	keys   []K
	values []V
}

// NewMap creates an empty map.
func NewMap[K cmp.Ordered, V any]() *Map[K, V] {
	return &Map[K, V]{}
}

// Len returns the number of entries in the map.
func (m *Map[K, V]) Len() int {
	return len(m.keys)
}

// Set stores v under key, replacing any existing value.
func (m *Map[K, V]) Set(key K, v V) {
	pos, found := slices.BinarySearch(m.keys, key)
	if found {
		m.values[pos] = v
		return
	}
	m.keys = slices.Insert(m.keys, pos, key)
	m.values = slices.Insert(m.values, pos, v)
}

// Get returns the value stored under key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	pos, found := slices.BinarySearch(m.keys, key)
	if !found {
		var zero V
		return zero, false
	}
	return m.values[pos], true
}

// Contains reports whether an entry exists for key.
func (m *Map[K, V]) Contains(key K) bool {
	_, found := slices.BinarySearch(m.keys, key)
	return found
}

// Clear removes all entries.
func (m *Map[K, V]) Clear() {
	m.keys = m.keys[:0]
	m.values = m.values[:0]
}

// All returns an iterator over key-value pairs in ascending key order.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i, k := range m.keys {
			if !yield(k, m.values[i]) {
				return
			}
		}
	}
}
