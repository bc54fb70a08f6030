// Package reduce implements the size-tiered whole-array reduction.
//
// A call is planned once by tiling.Select. Small inputs are reduced by one
// group; larger inputs first pass tiles of the input through a kernel that
// leaves one partial per group in scratch, repeating over the partials when
// they are still too many, and finish with one group.
package reduce

import (
	"context"
	"fmt"

	"github.com/npillmayer/schuko/tracing"

	"github.com/born-ml/segscan/internal/collective"
	"github.com/born-ml/segscan/internal/device"
	"github.com/born-ml/segscan/internal/op"
	"github.com/born-ml/segscan/internal/tiling"
)

// tracer writes to trace with key 'segscan'
func tracer() tracing.Trace {
	return tracing.Select("segscan")
}

const algorithm = "reduce"

// Options tune a reduction.
type Options struct {
	Commutative  bool // Lanes may load strided vectors instead of contiguous runs.
	ItersPerItem int  // Per-lane run of the tile passes; 0 picks the default.
	VectorSize   int  // Vector width of strided loads; 0 uses the device's.
}

// Reduce returns init combined with the left-to-right combination of every
// loaded element of src. src must not be empty.
func Reduce[E, T any](ctx context.Context, d *device.Device, src []E, c op.Codec[E, T], m op.Monoid[T], init T, opts Options) (T, tiling.Plan, error) {
	n := len(src)
	if n == 1 {
		return m.Combine(init, c.Load(src[0])), tiling.Plan{Tier: tiling.Small, FinalN: 1, FinalIters: 1}, nil
	}
	cfg := d.Config()
	if opts.VectorSize <= 0 {
		opts.VectorSize = cfg.VectorSize
	}
	plan := tiling.Select(n, cfg.GroupSize, opts.ItersPerItem)
	tracer().Debugf("reduce: n=%d tier=%s passes=%v final=%d×%d",
		n, plan.Tier, plan.Passes, plan.FinalN, plan.FinalIters)

	var zero T
	total, err := run(ctx, d, src, c.Load, m, plan, opts)
	if err != nil {
		return zero, plan, err
	}
	return m.Combine(init, total), plan, nil
}

// run executes the tile passes and the final single-group launch of plan.
func run[E, T any](ctx context.Context, d *device.Device, src []E, load func(E) T, m op.Monoid[T], plan tiling.Plan, opts Options) (T, error) {
	var zero T
	result, err := device.Alloc[T](d, 1)
	if err != nil {
		return zero, err
	}
	defer result.Release()

	if len(plan.Passes) == 0 {
		if err := finalPass(ctx, d, src, load, m, plan.FinalIters, result.Data(), opts); err != nil {
			return zero, err
		}
		return result.Data()[0], nil
	}

	// Partials ping-pong between two buffers; every pass is smaller than
	// the one before, so the first two passes size them.
	var bufs [2]*device.Buffer[T]
	for i := range min(len(plan.Passes), 2) {
		if bufs[i], err = device.Alloc[T](d, plan.Passes[i]); err != nil {
			return zero, err
		}
		defer bufs[i].Release()
	}

	out := bufs[0].Data()[:plan.Passes[0]]
	if err := tilePass(ctx, d, src, load, m, plan.Iters, out, opts); err != nil {
		return zero, err
	}
	identity := func(x T) T { return x }
	for k := 1; k < len(plan.Passes); k++ {
		in := out
		out = bufs[k%2].Data()[:plan.Passes[k]]
		if err := tilePass(ctx, d, in, identity, m, plan.Iters, out, opts); err != nil {
			return zero, err
		}
	}
	if err := finalPass(ctx, d, out, identity, m, plan.FinalIters, result.Data(), opts); err != nil {
		return zero, err
	}
	return result.Data()[0], nil
}

// tilePass reduces every tile of groupSize*iters elements of src to one
// partial in dst, indexed by group.
func tilePass[E, T any](ctx context.Context, d *device.Device, src []E, load func(E) T, m op.Monoid[T], iters int, dst []T, opts Options) error {
	return d.Launch(ctx, device.Kernel{
		Algorithm: algorithm,
		Name:      fmt.Sprintf("tile[%d]", len(src)),
		Groups:    len(dst),
		Body: func(g *device.Group) {
			dst[g.ID()] = groupReduce(g, src, load, m, iters, opts)
		},
	})
}

// finalPass reduces all of src with a single group into dst[0].
func finalPass[E, T any](ctx context.Context, d *device.Device, src []E, load func(E) T, m op.Monoid[T], iters int, dst []T, opts Options) error {
	return d.Launch(ctx, device.Kernel{
		Algorithm: algorithm,
		Name:      fmt.Sprintf("final[%d]", len(src)),
		Groups:    1,
		Body: func(g *device.Group) {
			dst[0] = groupReduce(g, src, load, m, iters, opts)
		},
	})
}

// groupReduce folds the tile of group g, iters elements per lane, and
// combines the lane results with a group reduce.
func groupReduce[E, T any](g *device.Group, src []E, load func(E) T, m op.Monoid[T], iters int, opts Options) T {
	lanes := device.Lanes[T](g)
	size := g.Size()
	base := g.ID() * size * iters
	n := len(src)
	if opts.Commutative {
		// Coalesced: in every step the group loads size consecutive vectors.
		v := tiling.VectorWidth(iters, opts.VectorSize)
		for lane := range size {
			acc := m.Identity
			for step := range iters / v {
				lo := base + (step*size+lane)*v
				for i := lo; i < min(lo+v, n); i++ {
					acc = m.Combine(acc, load(src[i]))
				}
			}
			lanes[lane] = acc
		}
	} else {
		for lane := range size {
			acc := m.Identity
			lo := base + lane*iters
			for i := lo; i < min(lo+iters, n); i++ {
				acc = m.Combine(acc, load(src[i]))
			}
			lanes[lane] = acc
		}
	}
	g.Barrier()
	return collective.Reduce(g, lanes, m)
}
