// Package segment implements reduce-by-segment and scan-by-segment.
//
// A key sequence splits the values into segments: index i ends a segment
// when it is the last index or its key differs from the next one under the
// caller's equality predicate. Both engines tile the input over groups,
// resolve segments inside a group with the segmented-scan collective, and
// leave per-group records in scratch. A later phase finishes every segment
// that started in an earlier group with a backward search over those records.
package segment

import (
	"github.com/npillmayer/schuko/tracing"

	"github.com/born-ml/segscan/internal/device"
	"github.com/born-ml/segscan/internal/tiling"
)

// tracer writes to trace with key 'segscan'
func tracer() tracing.Trace {
	return tracing.Select("segscan")
}

// Options tune a segmented call.
type Options struct {
	ItersPerItem int // Per-lane run; 0 picks from the tile ladder.
}

// record is the scratch entry a group leaves for later phases.
type record[T any] struct {
	Carry  T    // combined since the group's last segment end, or the whole group
	HasEnd bool // the group contains at least one segment end
}

// layout is the tiling of one segmented call.
type layout struct {
	n      int
	iters  int
	tile   int
	groups int
}

func newLayout(n int, cfg device.Config, opts Options) layout {
	iters := tiling.Iters(n, cfg.GroupSize, opts.ItersPerItem)
	tile := cfg.GroupSize * iters
	return layout{n: n, iters: iters, tile: tile, groups: tiling.CeilDiv(n, tile)}
}

// run returns the element range of a lane.
func (l layout) run(group, lane int) (lo, hi int) {
	lo = group*l.tile + lane*l.iters
	return min(lo, l.n), min(lo+l.iters, l.n)
}

// span returns the element range of a group.
func (l layout) span(group int) (lo, hi int) {
	lo = group * l.tile
	return lo, min(lo+l.tile, l.n)
}

// endsAt reports whether index i ends a segment.
func endsAt[K any](keys []K, equal func(a, b K) bool, i int) bool {
	return i == len(keys)-1 || !equal(keys[i], keys[i+1])
}
