package segment

import (
	"github.com/born-ml/segscan/internal/collective"
	"github.com/born-ml/segscan/internal/device"
	"github.com/born-ml/segscan/internal/op"
)

// backwardAggregate combines the carries of the groups before g, from the
// nearest earlier group that contains a segment end (its carry included)
// up to g-1. Without such a group it combines everything back to group 0.
//
// Every round each lane walks a disjoint chunk of the window of earlier
// groups, nearest chunk on lane 0, and the window doubles from round to
// round. The loop ends once a round found a segment end or group 0 was
// reached, so it runs at most log2 of the group count times.
func backwardAggregate[T any](g *device.Group, recs []record[T], m op.Monoid[T]) T {
	size := g.Size()
	agg := m.Identity
	hi := g.ID()
	window := size
	for hi > 0 {
		lo := max(hi-window, 0)
		chunk := (hi - lo + size - 1) / size
		partial := device.Lanes[T](g)
		found := device.Lanes[bool](g)
		nearest := device.Lanes[int](g)
		for lane := range size {
			top := hi - lane*chunk
			bottom := max(top-chunk, lo)
			acc := m.Identity
			nearest[lane] = op.Min.Identity
			for j := top - 1; j >= bottom; j-- {
				acc = m.Combine(recs[j].Carry, acc)
				if recs[j].HasEnd {
					found[lane] = true
					nearest[lane] = lane
					break
				}
			}
			partial[lane] = acc
		}
		g.Barrier()

		// Lanes past the nearest one that found an end do not contribute.
		stop := collective.Reduce(g, nearest, op.Min)
		ordered := device.Lanes[T](g)
		for lane := range size {
			if lane <= stop {
				ordered[size-1-lane] = partial[lane]
			} else {
				ordered[size-1-lane] = m.Identity
			}
		}
		agg = m.Combine(collective.Reduce(g, ordered, m), agg)
		if collective.AnyOf(g, found) {
			break
		}
		hi = lo
		window <<= 1
	}
	return agg
}
