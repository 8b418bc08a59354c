// Package narray provides a dense n-dimensional numeric array with a
// runtime shape, e.g. as storage for histogram filling.
package narray

import (
	"slices"

	"golang.org/x/exp/constraints"
)

// Number constrains the supported element types.
type Number interface {
	constraints.Integer | constraints.Float
}

// Array is a dense n-dimensional array. Elements are stored
// column-major: the first index varies fastest in memory.
type Array[T Number] struct {
	data []T
	size []int
}

// New creates a zero-initialized array with the given size along each
// dimension. It panics if no dimensions are given or a size is not
// positive.
func New[T Number](size ...int) *Array[T] {
	if len(size) == 0 {
		panic("narray: need at least one dimension")
	}
	n := 1
	for _, s := range size {
		if s <= 0 {
			panic("narray: dimension sizes must be positive")
		}
		n *= s
	}
	return &Array[T]{
		data: make([]T, n),
		size: slices.Clone(size),
	}
}

// Size returns the size along each dimension.
func (a *Array[T]) Size() []int {
	return slices.Clone(a.size)
}

// linear converts an n-dimensional index to the column-major offset.
// It panics on out-of-range indices.
func (a *Array[T]) linear(idx []int) int {
	if len(idx) != len(a.size) {
		panic("narray: index has wrong number of dimensions")
	}
	result := 0
	step := 1
	for i, x := range idx {
		if x < 0 || a.size[i] <= x {
			panic("narray: index out of range")
		}
		result += step * x
		step *= a.size[i]
	}
	return result
}

// At returns the element at the given index.
func (a *Array[T]) At(idx ...int) T {
	return a.data[a.linear(idx)]
}

// Set stores v at the given index.
func (a *Array[T]) Set(v T, idx ...int) {
	a.data[a.linear(idx)] = v
}

// Add adds delta to the element at the given index.
func (a *Array[T]) Add(delta T, idx ...int) {
	a.data[a.linear(idx)] += delta
}
