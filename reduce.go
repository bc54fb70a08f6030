// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package segscan

import (
	"context"

	"github.com/born-ml/segscan/internal/op"
	"github.com/born-ml/segscan/internal/reduce"
)

// Reduce combines all values left to right.
//
// An empty input yields the operator's identity, or ErrEmptyInput when it
// has none.
func Reduce[T any](ctx context.Context, e *Engine, values []T, o Op[T], opts ...Option) (T, error) {
	mustOp("reduce", o)
	if len(values) == 0 {
		if id, ok := o.Identity(); ok {
			return id, nil
		}
		var zero T
		return zero, ErrEmptyInput
	}
	p, err := reduceWith(ctx, e, values, func(x T) T { return x }, o, op.Partial[T]{}, opts)
	return p.V, err
}

// ReduceInit returns init combined with all values, left to right.
func ReduceInit[T any](ctx context.Context, e *Engine, values []T, init T, o Op[T], opts ...Option) (T, error) {
	mustOp("reduce", o)
	if len(values) == 0 {
		return init, nil
	}
	p, err := reduceWith(ctx, e, values, func(x T) T { return x }, o, op.Some(init), opts)
	return p.V, err
}

// TransformReduce applies unary to every element and returns init combined
// with the results, left to right.
func TransformReduce[E, T any](ctx context.Context, e *Engine, values []E, unary func(E) T, o Op[T], init T, opts ...Option) (T, error) {
	mustOp("transform_reduce", o)
	if unary == nil {
		panic("segscan: transform_reduce: nil unary operator")
	}
	if len(values) == 0 {
		return init, nil
	}
	p, err := reduceWith(ctx, e, values, unary, o, op.Some(init), opts)
	return p.V, err
}

// reduceWith dispatches to the engine on o's identity, or on the lifted
// operator when o has none. values must not be empty.
func reduceWith[E, T any](ctx context.Context, e *Engine, values []E, load func(E) T, o Op[T], init op.Partial[T], opts []Option) (op.Partial[T], error) {
	oo := collect(opts)
	ro := reduce.Options{
		Commutative:  oo.commutative,
		ItersPerItem: oo.itersPerItem,
		VectorSize:   oo.vectorSize,
	}

	if id, ok := o.Identity(); ok {
		m := op.Monoid[T]{Combine: o.fn, Identity: id}
		seed := id
		if init.OK {
			seed = init.V
		}
		v, _, err := reduce.Reduce(ctx, e.dev, values, op.Transform(load), m, seed, ro)
		if err != nil {
			return op.Partial[T]{}, err
		}
		return op.Some(v), nil
	}

	lifted := op.Transform(func(x E) op.Partial[T] { return op.Some(load(x)) })
	p, _, err := reduce.Reduce(ctx, e.dev, values, lifted, op.Lift(o.fn), init, ro)
	return p, err
}

func mustOp[T any](name string, o Op[T]) {
	if o.fn == nil {
		panic("segscan: " + name + ": nil combine operator")
	}
}
