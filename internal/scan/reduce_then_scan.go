package scan

import (
	"context"
	"fmt"

	"github.com/born-ml/segscan/internal/collective"
	"github.com/born-ml/segscan/internal/device"
	"github.com/born-ml/segscan/internal/op"
	"github.com/born-ml/segscan/internal/tiling"
)

const rtsAlgorithm = "reduce-then-scan"

// rtsLayout is the tiling of one reduce-then-scan call.
type rtsLayout struct {
	n           int
	groupSize   int
	subSize     int
	subs        int // lane-groups per group
	iters       int
	tile        int // elements per group
	blockGroups int
	blockLen    int
	blocks      int
}

func newLayout(n int, cfg device.Config, opts Options) rtsLayout {
	l := rtsLayout{
		n:         n,
		groupSize: cfg.GroupSize,
		subSize:   cfg.SubGroupSize,
		iters:     tiling.Iters(n, cfg.GroupSize, opts.ItersPerItem),
	}
	l.subs = tiling.CeilDiv(l.groupSize, l.subSize)
	l.tile = l.groupSize * l.iters
	l.blockGroups = opts.BlockGroups
	if l.blockGroups <= 0 {
		l.blockGroups = 4 * cfg.Workers
	}
	l.blockGroups = min(l.blockGroups, tiling.CeilDiv(n, l.tile))
	l.blockLen = l.blockGroups * l.tile
	l.blocks = tiling.CeilDiv(n, l.blockLen)
	return l
}

// groupsIn returns the number of groups block b launches.
func (l rtsLayout) groupsIn(b int) int {
	start := b * l.blockLen
	return tiling.CeilDiv(min(l.blockLen, l.n-start), l.tile)
}

// reduceThenScan scans src block by block. Block b+1 starts only after block
// b is written, seeding its carry from block b's last output.
func reduceThenScan[E, T any](ctx context.Context, d *device.Device, src, dst []E, c op.Codec[E, T], m op.Monoid[T], init T, opts Options) error {
	l := newLayout(len(src), d.Config(), opts)
	inPlace := &src[0] == &dst[0]
	tracer().Debugf("scan: n=%d reduce-then-scan blocks=%d×%d groups tile=%d in-place=%v",
		l.n, l.blocks, l.blockGroups, l.tile, inPlace)

	// Level 1 holds one partial per lane-group, level 2 one total per group.
	level1, err := device.Alloc[T](d, l.blockGroups*l.subs)
	if err != nil {
		return err
	}
	defer level1.Release()
	level2, err := device.Alloc[T](d, l.blockGroups)
	if err != nil {
		return err
	}
	defer level2.Release()
	// The last input of each block, saved before it is overwritten. Blocks
	// alternate slots so a block never overwrites the seed it reads.
	stash, err := device.Alloc[T](d, 2)
	if err != nil {
		return err
	}
	defer stash.Release()

	for b := range l.blocks {
		if err := reducePhase(ctx, d, l, b, src, c.Load, m, level1.Data(), level2.Data()); err != nil {
			return err
		}
		if err := scanPhase(ctx, d, l, b, src, dst, c, m, init, opts.Inclusive, inPlace,
			level1.Data(), level2.Data(), stash.Data()); err != nil {
			return err
		}
	}
	return nil
}

// reducePhase folds every lane's run of block b and leaves the lane-group
// partials in level1 and the group totals in level2.
func reducePhase[E, T any](ctx context.Context, d *device.Device, l rtsLayout, b int, src []E, load func(E) T, m op.Monoid[T], level1, level2 []T) error {
	blockStart := b * l.blockLen
	return d.Launch(ctx, device.Kernel{
		Algorithm: rtsAlgorithm,
		Name:      fmt.Sprintf("reduce[%d]", b),
		Groups:    l.groupsIn(b),
		Body: func(g *device.Group) {
			base := blockStart + g.ID()*l.tile
			lanes := device.Lanes[T](g)
			for lane := range lanes {
				lanes[lane] = foldRun(src, load, m, base+lane*l.iters, l.iters)
			}
			g.Barrier()
			subs := collective.SubGroups(lanes, l.subSize)
			partials := make([]T, len(subs))
			for s, sub := range subs {
				partials[s] = collective.Reduce(g, sub, m)
				level1[g.ID()*l.subs+s] = partials[s]
			}
			level2[g.ID()] = collective.Reduce(g, partials, m)
		},
	})
}

// scanPhase turns the partials of block b into per-lane carries and writes
// the block's output.
func scanPhase[E, T any](ctx context.Context, d *device.Device, l rtsLayout, b int, src, dst []E, c op.Codec[E, T], m op.Monoid[T], init T, inclusive, inPlace bool, level1, level2, stash []T) error {
	blockStart := b * l.blockLen
	blockEnd := min(blockStart+l.blockLen, l.n)
	return d.Launch(ctx, device.Kernel{
		Algorithm: rtsAlgorithm,
		Name:      fmt.Sprintf("scan[%d]", b),
		Groups:    l.groupsIn(b),
		Body: func(g *device.Group) {
			carry := blockCarry(l, b, src, dst, c, m, init, inclusive, inPlace, stash)
			carry = m.Combine(carry, groupPrefix(g, level2, m))

			// Prefixes of this group's lane-groups.
			subPartials := level1[g.ID()*l.subs : (g.ID()+1)*l.subs]
			subPrefix, _ := collective.ExclusiveScan(g, subPartials, m.Identity, m)

			base := blockStart + g.ID()*l.tile
			lanes := device.Lanes[T](g)
			for lane := range lanes {
				lanes[lane] = foldRun(src, c.Load, m, base+lane*l.iters, l.iters)
			}
			g.Barrier()

			save := func(i int, x T) {
				if i == blockEnd-1 {
					stash[b%2] = x
				}
			}
			for s, sub := range collective.SubGroups(lanes, l.subSize) {
				lanePrefix, _ := collective.ExclusiveScan(g, sub, m.Identity, m)
				for k := range sub {
					lane := s*l.subSize + k
					laneCarry := m.Combine(carry, m.Combine(subPrefix[s], lanePrefix[k]))
					writeRun(src, dst, c, m, laneCarry, base+lane*l.iters, l.iters, inclusive, save)
				}
			}
		},
	})
}

// blockCarry returns what every element of block b is seeded with: init for
// the first block, otherwise the inclusive result at the end of block b-1.
func blockCarry[E, T any](l rtsLayout, b int, src, dst []E, c op.Codec[E, T], m op.Monoid[T], init T, inclusive, inPlace bool, stash []T) T {
	if b == 0 {
		return init
	}
	last := b*l.blockLen - 1
	prev := c.Load(dst[last])
	if inclusive {
		return prev
	}
	// The exclusive result at last misses x[last]; an in-place scan has
	// already overwritten it and uses the stashed copy.
	x := stash[(b-1)%2]
	if !inPlace {
		x = c.Load(src[last])
	}
	return m.Combine(prev, x)
}

// groupPrefix combines the totals of all groups before g in its block. Lanes
// split the range into contiguous chunks and a group reduce joins them.
func groupPrefix[T any](g *device.Group, level2 []T, m op.Monoid[T]) T {
	before := g.ID()
	if before == 0 {
		return m.Identity
	}
	chunk := tiling.CeilDiv(before, g.Size())
	lanes := device.Lanes[T](g)
	for lane := range lanes {
		acc := m.Identity
		for j := lane * chunk; j < min((lane+1)*chunk, before); j++ {
			acc = m.Combine(acc, level2[j])
		}
		lanes[lane] = acc
	}
	g.Barrier()
	return collective.Reduce(g, lanes, m)
}
