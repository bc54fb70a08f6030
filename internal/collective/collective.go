// Package collective implements the group-level collective operations the
// kernels are written against: reduce, scans, broadcast, any-of and lane
// shuffles.
//
// A group's lanes run in lock-step. A collective receives one value per lane
// as a slice indexed by lane id and performs the same O(log n) rounds a
// hardware implementation would, synchronizing the group between rounds.
// Every combining collective keeps lane order, so non-commutative operators
// are safe.
package collective

import (
	"github.com/born-ml/segscan/internal/op"
)

// Syncer is the barrier of the group executing a collective.
type Syncer interface {
	Barrier()
}

// Reduce combines the lane values in lane order with a pairwise tree.
func Reduce[T any](s Syncer, lanes []T, m op.Monoid[T]) T {
	n := len(lanes)
	if n == 0 {
		return m.Identity
	}
	buf := make([]T, n)
	copy(buf, lanes)
	for stride := 1; stride < n; stride <<= 1 {
		for i := 0; i+stride < n; i += stride << 1 {
			buf[i] = m.Combine(buf[i], buf[i+stride])
		}
		s.Barrier()
	}
	return buf[0]
}

// InclusiveScan returns the inclusive prefix combination of the lane values.
// It is the double-buffered Hillis-Steele scan.
func InclusiveScan[T any](s Syncer, lanes []T, m op.Monoid[T]) []T {
	n := len(lanes)
	cur := make([]T, n)
	next := make([]T, n)
	copy(cur, lanes)
	for offset := 1; offset < n; offset <<= 1 {
		for i := range n {
			if i >= offset {
				next[i] = m.Combine(cur[i-offset], cur[i])
			} else {
				next[i] = cur[i]
			}
		}
		cur, next = next, cur
		s.Barrier()
	}
	return cur
}

// ExclusiveScan returns, per lane, init combined with every lane value before
// it, together with init combined with all lane values.
func ExclusiveScan[T any](s Syncer, lanes []T, init T, m op.Monoid[T]) (prefix []T, total T) {
	n := len(lanes)
	if n == 0 {
		return nil, init
	}
	inc := InclusiveScan(s, lanes, m)
	prefix = make([]T, n)
	prefix[0] = init
	for i := 1; i < n; i++ {
		prefix[i] = m.Combine(init, inc[i-1])
	}
	return prefix, m.Combine(init, inc[n-1])
}

// Broadcast returns the value held by lane src to every lane.
func Broadcast[T any](s Syncer, lanes []T, src int) T {
	s.Barrier()
	return lanes[src]
}

// AnyOf reports whether any lane holds true.
func AnyOf(s Syncer, flags []bool) bool {
	return Reduce(s, flags, op.Or)
}

// ShuffleUp returns, for lane i, the value of lane i-delta. Lanes below delta
// receive fill.
func ShuffleUp[T any](lanes []T, delta int, fill T) []T {
	out := make([]T, len(lanes))
	for i := range out {
		if i >= delta {
			out[i] = lanes[i-delta]
		} else {
			out[i] = fill
		}
	}
	return out
}

// ShuffleDown returns, for lane i, the value of lane i+delta. Lanes within
// delta of the end receive fill.
func ShuffleDown[T any](lanes []T, delta int, fill T) []T {
	out := make([]T, len(lanes))
	for i := range out {
		if i+delta < len(lanes) {
			out[i] = lanes[i+delta]
		} else {
			out[i] = fill
		}
	}
	return out
}

// SubGroups splits a lane array into consecutive lane-groups of width w.
// The last lane-group is shorter when w does not divide the lane count.
func SubGroups[T any](lanes []T, w int) [][]T {
	if w <= 0 {
		w = len(lanes)
	}
	var out [][]T
	for lo := 0; lo < len(lanes); lo += w {
		out = append(out, lanes[lo:min(lo+w, len(lanes))])
	}
	return out
}
