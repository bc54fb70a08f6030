// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package segscan

import (
	"context"
	"fmt"

	"github.com/born-ml/segscan/internal/op"
	"github.com/born-ml/segscan/internal/segment"
)

// ScanKind selects inclusive or exclusive segmented scans.
type ScanKind int

// Scan kinds.
const (
	Inclusive ScanKind = iota
	Exclusive
)

func (k ScanKind) String() string {
	if k == Exclusive {
		return "exclusive"
	}
	return "inclusive"
}

// ReduceBySegment reduces every maximal run of adjacent keys that compare
// equal. It returns the key at the last index of every segment, the
// combination of the segment's values, and the number of segments.
func ReduceBySegment[K, T any](ctx context.Context, e *Engine, keys []K, values []T, equal func(a, b K) bool, o Op[T], opts ...Option) ([]K, []T, int, error) {
	mustOp("reduce_by_segment", o)
	mustEqual("reduce_by_segment", equal)
	if len(keys) != len(values) {
		panic(fmt.Sprintf("segscan: reduce_by_segment: %d keys but %d values", len(keys), len(values)))
	}
	if len(keys) == 0 {
		return nil, nil, 0, nil
	}
	so := segment.Options{ItersPerItem: collect(opts).itersPerItem}

	if id, ok := o.Identity(); ok {
		m := op.Monoid[T]{Combine: o.fn, Identity: id}
		return segment.ReduceBySegment(ctx, e.dev, keys, values, equal, op.Identity[T](), m, so)
	}
	return segment.ReduceBySegment(ctx, e.dev, keys, values, equal, op.Lifted[T](), op.Lift(o.fn), so)
}

// ScanBySegment scans every maximal run of adjacent equal keys independently,
// restarting from init at each segment start. Exclusive scans write init at
// every segment start. out must have the length of values and may alias it.
func ScanBySegment[K, T any](ctx context.Context, e *Engine, keys []K, values, out []T, equal func(a, b K) bool, o Op[T], init T, kind ScanKind, opts ...Option) error {
	return scanBySegment(ctx, e, keys, values, out, equal, o, op.Some(init), kind, opts)
}

// InclusiveScanBySegment is ScanBySegment without an initial value.
func InclusiveScanBySegment[K, T any](ctx context.Context, e *Engine, keys []K, values, out []T, equal func(a, b K) bool, o Op[T], opts ...Option) error {
	return scanBySegment(ctx, e, keys, values, out, equal, o, op.Partial[T]{}, Inclusive, opts)
}

func scanBySegment[K, T any](ctx context.Context, e *Engine, keys []K, values, out []T, equal func(a, b K) bool, o Op[T], init op.Partial[T], kind ScanKind, opts []Option) error {
	name := kind.String() + "_scan_by_segment"
	mustOp(name, o)
	mustEqual(name, equal)
	if len(keys) != len(values) {
		panic(fmt.Sprintf("segscan: %s: %d keys but %d values", name, len(keys), len(values)))
	}
	mustSameLen(name, len(values), len(out))
	if len(keys) == 0 {
		return nil
	}
	so := segment.Options{ItersPerItem: collect(opts).itersPerItem}
	inclusive := kind == Inclusive

	if id, ok := o.Identity(); ok {
		m := op.Monoid[T]{Combine: o.fn, Identity: id}
		seed := id
		if init.OK {
			seed = init.V
		}
		return segment.ScanBySegment(ctx, e.dev, keys, values, out, equal, op.Identity[T](), m, seed, inclusive, so)
	}
	return segment.ScanBySegment(ctx, e.dev, keys, values, out, equal, op.Lifted[T](), op.Lift(o.fn), init, inclusive, so)
}

func mustEqual[K any](name string, equal func(a, b K) bool) {
	if equal == nil {
		panic("segscan: " + name + ": nil key predicate")
	}
}
