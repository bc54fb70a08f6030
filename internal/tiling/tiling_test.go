package tiling

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItersFor(t *testing.T) {
	tests := []struct {
		n, groupSize, want int
	}{
		{1, 256, 1},
		{256, 256, 1},
		{257, 256, 2},
		{2048, 256, 8},
		{8192, 256, 32},
		{100000, 256, 32},
		{9, 4, 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ItersFor(tt.n, tt.groupSize), "n=%d G=%d", tt.n, tt.groupSize)
	}
}

func TestIters(t *testing.T) {
	assert.Equal(t, 3, Iters(1<<20, 256, 3))
	assert.Equal(t, DefaultIters, Iters(1<<20, 256, 0))
	assert.Equal(t, 2, Iters(300, 256, 0))
}

func TestVectorWidth(t *testing.T) {
	assert.Equal(t, 8, VectorWidth(32, 8))
	assert.Equal(t, 2, VectorWidth(2, 16))
	assert.Equal(t, 3, VectorWidth(6, 4))
	assert.Equal(t, 1, VectorWidth(7, 4))
	assert.Equal(t, 1, VectorWidth(5, 0))
}

func TestSelect_Tiers(t *testing.T) {
	const g = 256
	tests := []struct {
		name string
		n    int
		tier Tier
	}{
		{"single element", 1, Small},
		{"one lane each", 256, Small},
		{"two per lane", 257, Small},
		{"ladder top", 8192, Small},
		{"just above small", 8193, Mid},
		{"mid upper bound", g * DefaultIters * g, Mid},
		{"large", g*DefaultIters*g + 1, Large},
		{"crossing 2M", 2097153, Large},
		{"recursive", g * DefaultIters * SmallLimit(g) * 2, Recursive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Select(tt.n, g, 0)
			assert.Equal(t, tt.tier, p.Tier)
			assert.LessOrEqual(t, p.FinalN, SmallLimit(g))
			assert.GreaterOrEqual(t, g*p.FinalIters, p.FinalN)
		})
	}
}

func TestSelect_PassesShrink(t *testing.T) {
	p := Select(1_000_000, 4, 2)
	assert.Equal(t, Recursive, p.Tier)
	m := 1_000_000
	for _, groups := range p.Passes {
		assert.Equal(t, CeilDiv(m, 4*2), groups)
		m = groups
	}
	assert.Equal(t, m, p.FinalN)
	assert.Equal(t, len(p.Passes)+1, p.Launches())
}

func TestSelect_DegenerateTile(t *testing.T) {
	p := Select(100, 1, 1)
	assert.Equal(t, 2, p.Iters)
	assert.LessOrEqual(t, p.FinalN, SmallLimit(1))
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "small", Small.String())
	assert.Equal(t, "recursive", Recursive.String())
	assert.Equal(t, "tier(9)", Tier(9).String())
}
