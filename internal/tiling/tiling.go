// Package tiling chooses how many elements every lane processes and which
// reduction strategy a call uses. The values are tuning constants; none of
// them affects results.
package tiling

import "fmt"

// Ladder lists the elements-per-lane steps a single group may use. At 256
// lanes per group it yields tiles of 256, 512, 1024, 2048, 4096 and 8192
// elements.
var Ladder = []int{1, 2, 4, 8, 16, 32}

// DefaultIters is the per-lane run of the first kernel of multi-group
// pipelines.
const DefaultIters = 8

// MaxIters is the largest ladder step.
func MaxIters() int { return Ladder[len(Ladder)-1] }

// SmallLimit is the largest input one group reduces in a single launch.
func SmallLimit(groupSize int) int { return groupSize * MaxIters() }

// ItersFor returns the smallest ladder step covering n elements with one
// group, or the largest step if none does.
func ItersFor(n, groupSize int) int {
	for _, it := range Ladder {
		if groupSize*it >= n {
			return it
		}
	}
	return MaxIters()
}

// Iters returns the per-lane run for a multi-group pipeline over n elements:
// preferred if set, otherwise the ladder step for n capped at DefaultIters.
func Iters(n, groupSize, preferred int) int {
	if preferred > 0 {
		return preferred
	}
	return min(ItersFor(n, groupSize), DefaultIters)
}

// VectorWidth returns the widest chunk of at most vec elements that divides
// iters, so lanes can load their run in whole vectors.
func VectorWidth(iters, vec int) int {
	v := max(min(vec, iters), 1)
	for v > 1 && iters%v != 0 {
		v--
	}
	return v
}

// CeilDiv returns ceil(a/b) for positive b.
func CeilDiv(a, b int) int {
	return (a + b - 1) / b
}

// Tier is the reduction strategy chosen for one call.
type Tier int

const (
	// Small reduces with one group in one launch.
	Small Tier = iota
	// Mid reduces tiles to partials, then one group reduces one partial per lane.
	Mid
	// Large is Mid with several partials per lane in the final group.
	Large
	// Recursive repeats the tile pass over the partials until a Small
	// remainder is left.
	Recursive
)

func (t Tier) String() string {
	switch t {
	case Small:
		return "small"
	case Mid:
		return "mid"
	case Large:
		return "large"
	case Recursive:
		return "recursive"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Plan is the launch schedule of a reduction.
type Plan struct {
	Tier       Tier
	Iters      int   // Elements per lane of every tile pass.
	Passes     []int // Groups launched by each tile pass, in order.
	FinalN     int   // Elements left for the final single-group launch.
	FinalIters int   // Elements per lane of the final launch.
}

// Launches returns the number of kernels the plan launches.
func (p Plan) Launches() int { return len(p.Passes) + 1 }

// Select plans the reduction of n elements on groups of groupSize lanes.
// preferredIters overrides the per-lane run of the tile passes.
func Select(n, groupSize, preferredIters int) Plan {
	small := SmallLimit(groupSize)
	if n <= small {
		return Plan{Tier: Small, FinalN: n, FinalIters: ItersFor(n, groupSize)}
	}
	iters := preferredIters
	if iters <= 0 {
		iters = DefaultIters
	}
	if groupSize*iters < 2 {
		iters = 2 // a tile pass must shrink its input
	}
	tile := groupSize * iters
	p := Plan{Iters: iters}
	for m := n; m > small || len(p.Passes) == 0; {
		groups := CeilDiv(m, tile)
		p.Passes = append(p.Passes, groups)
		m = groups
		p.FinalN = m
	}
	p.FinalIters = ItersFor(p.FinalN, groupSize)
	switch {
	case len(p.Passes) > 1:
		p.Tier = Recursive
	case p.FinalN <= groupSize:
		p.Tier = Mid
	default:
		p.Tier = Large
	}
	return p
}
