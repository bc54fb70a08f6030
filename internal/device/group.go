package device

// Group is the execution context of one group of a launch.
type Group struct {
	id       int
	size     int
	groups   int
	subSize  int
	barriers int
}

// NewGroup returns a standalone group context. Kernels receive theirs from
// Launch; NewGroup serves host code that runs collectives directly.
func NewGroup(id, size, groups int) *Group {
	return &Group{id: id, size: size, groups: groups, subSize: size}
}

// ID returns the group index within the launch.
func (g *Group) ID() int { return g.id }

// Size returns the number of lanes.
func (g *Group) Size() int { return g.size }

// NumGroups returns the number of groups of the launch.
func (g *Group) NumGroups() int { return g.groups }

// SubGroupSize returns the lane-group width.
func (g *Group) SubGroupSize() int { return g.subSize }

// Barrier synchronizes the lanes of the group. Lanes already run in
// lock-step, so it only accounts the synchronization.
func (g *Group) Barrier() { g.barriers++ }

// Barriers returns the number of barriers the group passed.
func (g *Group) Barriers() int { return g.barriers }

// Lanes returns a zeroed per-lane array, the group's local memory.
func Lanes[T any](g *Group) []T {
	return make([]T, g.size)
}
