// Package poly evaluates polynomial functions.
package poly

import "golang.org/x/exp/constraints"

// Eval evaluates a polynomial at x using Horner's method.
//
// Coefficients are given in increasing order, so c0, c1, c2 define
//
//	f(x) = c0 + c1*x + c2*x^2
//
// An empty coefficient list evaluates to zero.
func Eval[T constraints.Float](x T, coeffs []T) T {
	var value T
	for i := len(coeffs) - 1; i >= 0; i-- {
		value = value*x + coeffs[i]
	}
	return value
}
