// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package segscan

import (
	"context"
	"fmt"

	"github.com/born-ml/segscan/internal/op"
	"github.com/born-ml/segscan/internal/scan"
)

// InclusiveScan writes out[i] = values[0] ⊕ … ⊕ values[i].
// out must have the length of values and may be values itself.
func InclusiveScan[T any](ctx context.Context, e *Engine, values, out []T, o Op[T], opts ...Option) error {
	mustOp("inclusive_scan", o)
	mustSameLen("inclusive_scan", len(values), len(out))
	return scanWith(ctx, e, values, out, o, op.Partial[T]{}, true, opts)
}

// InclusiveScanInit writes out[i] = init ⊕ values[0] ⊕ … ⊕ values[i].
func InclusiveScanInit[T any](ctx context.Context, e *Engine, values, out []T, init T, o Op[T], opts ...Option) error {
	mustOp("inclusive_scan", o)
	mustSameLen("inclusive_scan", len(values), len(out))
	return scanWith(ctx, e, values, out, o, op.Some(init), true, opts)
}

// ExclusiveScan writes out[0] = init and out[i] = init ⊕ values[0] ⊕ … ⊕
// values[i-1]. out may be values itself.
func ExclusiveScan[T any](ctx context.Context, e *Engine, values, out []T, init T, o Op[T], opts ...Option) error {
	mustOp("exclusive_scan", o)
	mustSameLen("exclusive_scan", len(values), len(out))
	return scanWith(ctx, e, values, out, o, op.Some(init), false, opts)
}

func scanWith[T any](ctx context.Context, e *Engine, values, out []T, o Op[T], init op.Partial[T], inclusive bool, opts []Option) error {
	if len(values) == 0 {
		return nil
	}
	oo := collect(opts)
	so := scan.Options{
		Inclusive:    inclusive,
		ItersPerItem: oo.itersPerItem,
		BlockGroups:  oo.blockGroups,
	}

	if id, ok := o.Identity(); ok {
		m := op.Monoid[T]{Combine: o.fn, Identity: id}
		seed := id
		if init.OK {
			seed = init.V
		}
		return scan.Scan(ctx, e.dev, values, out, op.Identity[T](), m, seed, so)
	}
	return scan.Scan(ctx, e.dev, values, out, op.Lifted[T](), op.Lift(o.fn), init, so)
}

func mustSameLen(name string, want, got int) {
	if want != got {
		panic(fmt.Sprintf("segscan: %s: output length %d does not match input length %d", name, got, want))
	}
}
