package collective

import (
	"github.com/born-ml/segscan/internal/op"
)

// SegmentDeltas derives, for every lane, the distance back to the closest
// lane at or before it whose run of elements contains a segment end. Lanes
// with no such lane before them measure the distance to lane 0.
func SegmentDeltas(s Syncer, hasEnd []bool) []int {
	marks := make([]int, len(hasEnd))
	for i, e := range hasEnd {
		if e {
			marks[i] = i
		} else {
			marks[i] = op.Max.Identity
		}
	}
	last := InclusiveScan(s, marks, op.Max)
	deltas := make([]int, len(hasEnd))
	for i, l := range last {
		deltas[i] = i - max(l, 0)
	}
	return deltas
}

// SegmentedExclusiveScan is the group's segmented carry primitive.
//
// lanes[w] is what lane w accumulated since its own last segment end (all of
// its elements if it has none) and delta[w] comes from SegmentDeltas. The
// result holds, per lane, the combination of the lane values between the
// start of the open segment and that lane, exclusive; lane 0 receives the
// identity. tail is the combination over the segment still open after the
// last lane.
//
// Each of the ceil(log2(len)) rounds folds lane w-step into lane w only when
// delta[w] >= step, so values never cross a segment end.
func SegmentedExclusiveScan[T any](s Syncer, lanes []T, delta []int, m op.Monoid[T]) (prefix []T, tail T) {
	n := len(lanes)
	if n == 0 {
		return nil, m.Identity
	}
	cur := make([]T, n)
	next := make([]T, n)
	copy(cur, lanes)
	for step := 1; step < n; step <<= 1 {
		for w := range n {
			if delta[w] >= step {
				next[w] = m.Combine(cur[w-step], cur[w])
			} else {
				next[w] = cur[w]
			}
		}
		cur, next = next, cur
		s.Barrier()
	}
	prefix = ShuffleUp(cur, 1, m.Identity)
	return prefix, cur[n-1]
}
