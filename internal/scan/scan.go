// Package scan implements whole-array inclusive and exclusive scans.
//
// Inputs that fit one group are scanned by a single launch. Larger inputs go
// through the block-pipelined reduce-then-scan engine: blocks are processed
// strictly in order, each with a reduce phase that leaves partials in scratch
// and a scan phase that turns them into carries and writes the output.
package scan

import (
	"context"

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

// Options tune a scan.
type Options struct {
	Inclusive    bool // Inclusive scan; exclusive otherwise.
	ItersPerItem int  // Per-lane run; 0 picks from the tile ladder.
	BlockGroups  int  // Groups per block of reduce-then-scan; 0 derives it from the worker count.
}

// Scan writes the scan of src into dst, seeded with init. dst must be as long
// as src and may be the same slice.
//
// Inclusive: dst[i] = init ⊕ x[0] ⊕ … ⊕ x[i].
// Exclusive: dst[i] = init ⊕ x[0] ⊕ … ⊕ x[i-1].
func Scan[E, T any](ctx context.Context, d *device.Device, src, dst []E, c op.Codec[E, T], m op.Monoid[T], init T, opts Options) error {
	n := len(src)
	if n == 0 {
		return nil
	}
	cfg := d.Config()
	if n <= tiling.SmallLimit(cfg.GroupSize) {
		tracer().Debugf("scan: n=%d single group", n)
		return singleGroup(ctx, d, src, dst, c, m, init, opts)
	}
	return reduceThenScan(ctx, d, src, dst, c, m, init, opts)
}

// singleGroup scans all of src with one group.
func singleGroup[E, T any](ctx context.Context, d *device.Device, src, dst []E, c op.Codec[E, T], m op.Monoid[T], init T, opts Options) error {
	n := len(src)
	iters := tiling.ItersFor(n, d.Config().GroupSize)
	return d.Launch(ctx, device.Kernel{
		Algorithm: "scan",
		Name:      "single",
		Groups:    1,
		Body: func(g *device.Group) {
			lanes := device.Lanes[T](g)
			for lane := range lanes {
				lanes[lane] = foldRun(src, c.Load, m, lane*iters, iters)
			}
			g.Barrier()
			prefix, _ := collective.ExclusiveScan(g, lanes, init, m)
			for lane := range lanes {
				writeRun(src, dst, c, m, prefix[lane], lane*iters, iters, opts.Inclusive, nil)
			}
		},
	})
}

// foldRun combines the loaded elements of src in [lo, lo+iters).
func foldRun[E, T any](src []E, load func(E) T, m op.Monoid[T], lo, iters int) T {
	acc := m.Identity
	for i := lo; i < min(lo+iters, len(src)); i++ {
		acc = m.Combine(acc, load(src[i]))
	}
	return acc
}

// writeRun scans src in [lo, lo+iters) starting from carry and writes dst.
// Every element is loaded before its slot is written, so dst may alias src.
// If stash is set, it is called with the last element of the run as loaded
// before the write.
func writeRun[E, T any](src, dst []E, c op.Codec[E, T], m op.Monoid[T], carry T, lo, iters int, inclusive bool, stash func(i int, x T)) {
	acc := carry
	for i := lo; i < min(lo+iters, len(src)); i++ {
		x := c.Load(src[i])
		if stash != nil {
			stash(i, x)
		}
		if inclusive {
			acc = m.Combine(acc, x)
			dst[i] = c.Store(acc)
		} else {
			dst[i] = c.Store(acc)
			acc = m.Combine(acc, x)
		}
	}
}
