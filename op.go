// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package segscan

import "cmp"

// Op is an associative combine operator with an optional identity element.
//
// Operators with an identity run on the engine directly; operators without
// one are tracked as "no data yet" where a lane or group has not seen an
// element.
type Op[T any] struct {
	fn          func(a, b T) T
	identity    T
	hasIdentity bool
}

// NewOp returns an operator without a statically-known identity.
func NewOp[T any](fn func(a, b T) T) Op[T] {
	return Op[T]{fn: fn}
}

// NewMonoid returns an operator with the given identity element.
func NewMonoid[T any](fn func(a, b T) T, identity T) Op[T] {
	return Op[T]{fn: fn, identity: identity, hasIdentity: true}
}

// Combine applies the operator.
func (o Op[T]) Combine(a, b T) T { return o.fn(a, b) }

// Identity returns the identity element, if the operator has one.
func (o Op[T]) Identity() (T, bool) { return o.identity, o.hasIdentity }

// Number is the set of types with + and *.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Integer is the set of types with bitwise operators.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Plus is addition with identity 0.
func Plus[T Number]() Op[T] {
	return NewMonoid(func(a, b T) T { return a + b }, 0)
}

// Multiplies is multiplication with identity 1.
func Multiplies[T Number]() Op[T] {
	return NewMonoid(func(a, b T) T { return a * b }, 1)
}

// Maximum returns the larger operand. It has no identity.
func Maximum[T cmp.Ordered]() Op[T] {
	return NewOp(func(a, b T) T { return max(a, b) })
}

// Minimum returns the smaller operand. It has no identity.
func Minimum[T cmp.Ordered]() Op[T] {
	return NewOp(func(a, b T) T { return min(a, b) })
}

// BitAnd is bitwise and with identity ^0.
func BitAnd[T Integer]() Op[T] {
	return NewMonoid(func(a, b T) T { return a & b }, ^T(0))
}

// BitOr is bitwise or with identity 0.
func BitOr[T Integer]() Op[T] {
	return NewMonoid(func(a, b T) T { return a | b }, 0)
}

// BitXor is bitwise exclusive or with identity 0.
func BitXor[T Integer]() Op[T] {
	return NewMonoid(func(a, b T) T { return a ^ b }, 0)
}

// Equal returns the equality predicate of a comparable key type.
func Equal[K comparable]() func(a, b K) bool {
	return func(a, b K) bool { return a == b }
}
