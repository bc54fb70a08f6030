// Package op defines the combine operators the engines run on.
//
// Every engine works on a Monoid: an associative combine function together
// with its identity. Operators without a statically-known identity are lifted
// into Partial values by Lift, whose identity means "no data yet".
package op

import "math"

// Monoid is an associative binary operator with an identity element.
// Combine must be associative; it is never assumed to be commutative.
type Monoid[T any] struct {
	Combine  func(a, b T) T
	Identity T
}

// Fold combines all values of xs left to right, starting with the identity.
func (m Monoid[T]) Fold(xs []T) T {
	acc := m.Identity
	for _, x := range xs {
		acc = m.Combine(acc, x)
	}
	return acc
}

// Partial is a value that may not exist yet.
type Partial[T any] struct {
	V  T
	OK bool
}

// Some wraps v as an existing Partial value.
func Some[T any](v T) Partial[T] {
	return Partial[T]{V: v, OK: true}
}

// Lift turns an associative function without identity into a Monoid over
// Partial values. The zero Partial acts as the identity.
func Lift[T any](combine func(a, b T) T) Monoid[Partial[T]] {
	return Monoid[Partial[T]]{
		Combine: func(a, b Partial[T]) Partial[T] {
			switch {
			case !a.OK:
				return b
			case !b.OK:
				return a
			default:
				return Partial[T]{V: combine(a.V, b.V), OK: true}
			}
		},
	}
}

// Max is the monoid over ints used for boundary bookkeeping. Its identity is
// -1 so that "no boundary seen" sorts below every lane and element index.
var Max = Monoid[int]{
	Combine: func(a, b int) int {
		if a > b {
			return a
		}
		return b
	},
	Identity: -1,
}

// Min is the monoid over ints used to locate the first segment end. Its
// identity is math.MaxInt, "no end seen".
var Min = Monoid[int]{
	Combine: func(a, b int) int {
		if a < b {
			return a
		}
		return b
	},
	Identity: math.MaxInt,
}

// Sum is the monoid over ints used for counting segment ends.
var Sum = Monoid[int]{
	Combine: func(a, b int) int { return a + b },
}

// Or is the monoid over bools.
var Or = Monoid[bool]{
	Combine: func(a, b bool) bool { return a || b },
}
