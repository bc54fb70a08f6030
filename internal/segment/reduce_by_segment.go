package segment

import (
	"context"

	"github.com/born-ml/segscan/internal/collective"
	"github.com/born-ml/segscan/internal/device"
	"github.com/born-ml/segscan/internal/op"
	"github.com/born-ml/segscan/internal/tiling"
)

const rbsAlgorithm = "reduce-by-segment"

// ReduceBySegment reduces every segment of values to one value.
//
// It returns, per segment in input order, the key at the segment's last
// index and the combination of the segment's values, plus the number of
// segments. keys and values must have the same non-zero length.
//
// The call runs four phases: count segment ends per group, offset the
// counts, reduce locally while writing every segment closed inside a group,
// and finish segments that started in an earlier group.
func ReduceBySegment[K, E, T any](ctx context.Context, d *device.Device, keys []K, values []E, equal func(a, b K) bool, c op.Codec[E, T], m op.Monoid[T], opts Options) ([]K, []E, int, error) {
	n := len(keys)
	l := newLayout(n, d.Config(), opts)
	tracer().Debugf("reduce-by-segment: n=%d groups=%d tile=%d", n, l.groups, l.tile)

	counts, err := device.Alloc[int](d, l.groups)
	if err != nil {
		return nil, nil, 0, err
	}
	defer counts.Release()
	offsets, err := device.Alloc[int](d, l.groups+1)
	if err != nil {
		return nil, nil, 0, err
	}
	defer offsets.Release()
	recs, err := device.Alloc[record[T]](d, l.groups)
	if err != nil {
		return nil, nil, 0, err
	}
	defer recs.Release()

	if err := countEnds(ctx, d, l, keys, equal, counts.Data()); err != nil {
		return nil, nil, 0, err
	}
	if err := offsetCounts(ctx, d, counts.Data(), offsets.Data()); err != nil {
		return nil, nil, 0, err
	}
	total := offsets.Data()[l.groups]

	outKeys := make([]K, total)
	outValues := make([]E, total)
	if err := reduceLocal(ctx, d, l, keys, values, equal, c, m, offsets.Data(), outKeys, outValues, recs.Data()); err != nil {
		return nil, nil, 0, err
	}
	if l.groups > 1 {
		if err := finishHeads(ctx, d, l, keys, equal, c, m, offsets.Data(), outValues, recs.Data()); err != nil {
			return nil, nil, 0, err
		}
	}
	return outKeys, outValues, total, nil
}

// countEnds writes the number of segment ends of every group to counts.
func countEnds[K any](ctx context.Context, d *device.Device, l layout, keys []K, equal func(a, b K) bool, counts []int) error {
	return d.Launch(ctx, device.Kernel{
		Algorithm: rbsAlgorithm,
		Name:      "count",
		Groups:    l.groups,
		Body: func(g *device.Group) {
			lanes := device.Lanes[int](g)
			for lane := range lanes {
				lo, hi := l.run(g.ID(), lane)
				for i := lo; i < hi; i++ {
					if endsAt(keys, equal, i) {
						lanes[lane]++
					}
				}
			}
			g.Barrier()
			counts[g.ID()] = collective.Reduce(g, lanes, op.Sum)
		},
	})
}

// offsetCounts writes the exclusive prefix sum of counts to offsets with a
// single group, and the total to offsets[len(counts)].
func offsetCounts(ctx context.Context, d *device.Device, counts, offsets []int) error {
	return d.Launch(ctx, device.Kernel{
		Algorithm: rbsAlgorithm,
		Name:      "offset",
		Groups:    1,
		Body: func(g *device.Group) {
			chunk := tiling.CeilDiv(len(counts), g.Size())
			lanes := device.Lanes[int](g)
			for lane := range lanes {
				for j := lane * chunk; j < min((lane+1)*chunk, len(counts)); j++ {
					lanes[lane] += counts[j]
				}
			}
			g.Barrier()
			prefix, total := collective.ExclusiveScan(g, lanes, 0, op.Sum)
			for lane := range lanes {
				acc := prefix[lane]
				for j := lane * chunk; j < min((lane+1)*chunk, len(counts)); j++ {
					offsets[j] = acc
					acc += counts[j]
				}
			}
			offsets[len(counts)] = total
		},
	})
}

// reduceLocal folds every group, writes the segments that end inside it and
// records its carry. A segment that started in an earlier group is written
// with its in-group part only; finishHeads completes it.
func reduceLocal[K, E, T any](ctx context.Context, d *device.Device, l layout, keys []K, values []E, equal func(a, b K) bool, c op.Codec[E, T], m op.Monoid[T], offsets []int, outKeys []K, outValues []E, recs []record[T]) error {
	return d.Launch(ctx, device.Kernel{
		Algorithm: rbsAlgorithm,
		Name:      "reduce",
		Groups:    l.groups,
		Body: func(g *device.Group) {
			tails := device.Lanes[T](g)
			hasEnd := device.Lanes[bool](g)
			ends := device.Lanes[int](g)
			for lane := range tails {
				lo, hi := l.run(g.ID(), lane)
				acc := m.Identity
				for i := lo; i < hi; i++ {
					acc = m.Combine(acc, c.Load(values[i]))
					if endsAt(keys, equal, i) {
						hasEnd[lane] = true
						ends[lane]++
						acc = m.Identity
					}
				}
				tails[lane] = acc
			}
			g.Barrier()

			deltas := collective.SegmentDeltas(g, hasEnd)
			carries, tail := collective.SegmentedExclusiveScan(g, tails, deltas, m)
			ranks, _ := collective.ExclusiveScan(g, ends, offsets[g.ID()], op.Sum)

			for lane := range tails {
				lo, hi := l.run(g.ID(), lane)
				acc := carries[lane]
				r := ranks[lane]
				for i := lo; i < hi; i++ {
					acc = m.Combine(acc, c.Load(values[i]))
					if endsAt(keys, equal, i) {
						outKeys[r] = keys[i]
						outValues[r] = c.Store(acc)
						r++
						acc = m.Identity
					}
				}
			}
			recs[g.ID()] = record[T]{Carry: tail, HasEnd: collective.AnyOf(g, hasEnd)}
		},
	})
}

// finishHeads combines the carry of earlier groups into the first segment
// written by every group that begins inside a segment.
func finishHeads[K, E, T any](ctx context.Context, d *device.Device, l layout, keys []K, equal func(a, b K) bool, c op.Codec[E, T], m op.Monoid[T], offsets []int, outValues []E, recs []record[T]) error {
	return d.Launch(ctx, device.Kernel{
		Algorithm: rbsAlgorithm,
		Name:      "aggregate",
		Groups:    l.groups,
		Body: func(g *device.Group) {
			start, _ := l.span(g.ID())
			if g.ID() == 0 || !recs[g.ID()].HasEnd || endsAt(keys, equal, start-1) {
				return
			}
			agg := backwardAggregate(g, recs, m)
			head := offsets[g.ID()]
			outValues[head] = c.Store(m.Combine(agg, c.Load(outValues[head])))
		},
	})
}
