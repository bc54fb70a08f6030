package segment

import (
	"context"

	"github.com/born-ml/segscan/internal/collective"
	"github.com/born-ml/segscan/internal/device"
	"github.com/born-ml/segscan/internal/op"
)

const sbsAlgorithm = "scan-by-segment"

// ScanBySegment scans every segment of values independently into out,
// restarting from init at each segment start. out must be as long as values
// and may be the same slice.
//
// Inclusive: out[i] = init ⊕ v[s] ⊕ … ⊕ v[i], s the start of i's segment.
// Exclusive: out[i] = init ⊕ v[s] ⊕ … ⊕ v[i-1].
func ScanBySegment[K, E, T any](ctx context.Context, d *device.Device, keys []K, values, out []E, equal func(a, b K) bool, c op.Codec[E, T], m op.Monoid[T], init T, inclusive bool, opts Options) error {
	n := len(keys)
	if n == 0 {
		return nil
	}
	l := newLayout(n, d.Config(), opts)
	tracer().Debugf("scan-by-segment: n=%d groups=%d tile=%d inclusive=%v", n, l.groups, l.tile, inclusive)

	recs, err := device.Alloc[record[T]](d, l.groups)
	if err != nil {
		return err
	}
	defer recs.Release()
	firstEnd, err := device.Alloc[int](d, l.groups)
	if err != nil {
		return err
	}
	defer firstEnd.Release()

	if err := scanLocal(ctx, d, l, keys, values, out, equal, c, m, init, inclusive, recs.Data(), firstEnd.Data()); err != nil {
		return err
	}
	if l.groups == 1 {
		return nil
	}
	return applyCarries(ctx, d, l, out, c, m, inclusive, recs.Data(), firstEnd.Data())
}

// scanLocal scans every group on its own. Lane 0 of group 0 starts from init;
// every other group starts from the identity and its first segment is fixed
// by applyCarries.
func scanLocal[K, E, T any](ctx context.Context, d *device.Device, l layout, keys []K, values, out []E, equal func(a, b K) bool, c op.Codec[E, T], m op.Monoid[T], init T, inclusive bool, recs []record[T], firstEnd []int) error {
	return d.Launch(ctx, device.Kernel{
		Algorithm: sbsAlgorithm,
		Name:      "scan",
		Groups:    l.groups,
		Body: func(g *device.Group) {
			seed := func(lane int) T {
				if g.ID() == 0 && lane == 0 {
					return init
				}
				return m.Identity
			}
			tails := device.Lanes[T](g)
			hasEnd := device.Lanes[bool](g)
			first := device.Lanes[int](g)
			for lane := range tails {
				lo, hi := l.run(g.ID(), lane)
				acc := seed(lane)
				first[lane] = op.Min.Identity
				for i := lo; i < hi; i++ {
					acc = m.Combine(acc, c.Load(values[i]))
					if endsAt(keys, equal, i) {
						if !hasEnd[lane] {
							first[lane] = i
						}
						hasEnd[lane] = true
						acc = init
					}
				}
				tails[lane] = acc
			}
			g.Barrier()

			deltas := collective.SegmentDeltas(g, hasEnd)
			carries, tail := collective.SegmentedExclusiveScan(g, tails, deltas, m)
			carries[0] = seed(0)

			for lane := range tails {
				lo, hi := l.run(g.ID(), lane)
				acc := carries[lane]
				for i := lo; i < hi; i++ {
					x := c.Load(values[i])
					if inclusive {
						acc = m.Combine(acc, x)
						out[i] = c.Store(acc)
					} else {
						out[i] = c.Store(acc)
						acc = m.Combine(acc, x)
					}
					if endsAt(keys, equal, i) {
						acc = init
					}
				}
			}
			recs[g.ID()] = record[T]{Carry: tail, HasEnd: collective.AnyOf(g, hasEnd)}
			firstEnd[g.ID()] = collective.Reduce(g, first, op.Min)
		},
	})
}

// applyCarries combines the carry of earlier groups into every element of a
// group up to and including its first segment end, or into the whole group
// when it has none.
func applyCarries[E, T any](ctx context.Context, d *device.Device, l layout, out []E, c op.Codec[E, T], m op.Monoid[T], inclusive bool, recs []record[T], firstEnd []int) error {
	return d.Launch(ctx, device.Kernel{
		Algorithm: sbsAlgorithm,
		Name:      "aggregate",
		Groups:    l.groups,
		Body: func(g *device.Group) {
			if g.ID() == 0 {
				return
			}
			agg := backwardAggregate(g, recs, m)
			start, _ := l.span(g.ID())
			limit := firstEnd[g.ID()]
			for lane := range g.Size() {
				lo, hi := l.run(g.ID(), lane)
				if limit < hi {
					hi = limit + 1
				}
				for i := lo; i < hi; i++ {
					if !inclusive && i == start {
						out[i] = c.Store(agg)
						continue
					}
					out[i] = c.Store(m.Combine(agg, c.Load(out[i])))
				}
			}
		},
	})
}
