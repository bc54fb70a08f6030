package collective

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/segscan/internal/op"
)

type counter struct{ n int }

func (c *counter) Barrier() { c.n++ }

var concat = op.Monoid[string]{Combine: func(a, b string) string { return a + b }}

func letters(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = string(rune('a' + i%26))
	}
	return out
}

func TestReduce(t *testing.T) {
	for _, n := range []int{1, 2, 3, 7, 32, 33, 256} {
		s := &counter{}
		lanes := letters(n)
		assert.Equal(t, concat.Fold(lanes), Reduce(s, lanes, concat), "n=%d", n)
	}
	assert.Equal(t, "", Reduce(&counter{}, nil, concat))
}

func TestReduce_LogRounds(t *testing.T) {
	s := &counter{}
	Reduce(s, make([]int, 256), op.Sum)
	assert.Equal(t, 8, s.n)
}

func TestInclusiveScan(t *testing.T) {
	lanes := letters(13)
	got := InclusiveScan(&counter{}, lanes, concat)
	for i := range lanes {
		assert.Equal(t, concat.Fold(lanes[:i+1]), got[i])
	}
	// Input is not modified.
	assert.Equal(t, letters(13), lanes)
}

func TestExclusiveScan(t *testing.T) {
	lanes := []int{3, 1, 4, 1, 5, 9, 2, 6}
	prefix, total := ExclusiveScan(&counter{}, lanes, 10, op.Sum)
	assert.Equal(t, []int{10, 13, 14, 18, 19, 24, 33, 35}, prefix)
	assert.Equal(t, 41, total)

	prefix, total = ExclusiveScan(&counter{}, nil, 10, op.Sum)
	assert.Empty(t, prefix)
	assert.Equal(t, 10, total)
}

func TestBroadcastAnyOf(t *testing.T) {
	s := &counter{}
	assert.Equal(t, "c", Broadcast(s, letters(5), 2))
	assert.Equal(t, 1, s.n)
	assert.True(t, AnyOf(s, []bool{false, false, true, false}))
	assert.False(t, AnyOf(s, make([]bool, 64)))
}

func TestShuffles(t *testing.T) {
	lanes := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{0, 0, 1, 2, 3}, ShuffleUp(lanes, 2, 0))
	assert.Equal(t, []int{2, 3, 4, 5, -1}, ShuffleDown(lanes, 1, -1))
}

func TestSubGroups(t *testing.T) {
	lanes := make([]int, 70)
	subs := SubGroups(lanes, 32)
	require.Len(t, subs, 3)
	assert.Len(t, subs[0], 32)
	assert.Len(t, subs[2], 6)

	subs[1][0] = 42
	assert.Equal(t, 42, lanes[32], "lane-groups share the lane array")

	assert.Len(t, SubGroups(lanes, 0), 1)
}

func TestSegmentDeltas(t *testing.T) {
	hasEnd := []bool{false, false, true, false, false, true, true, false}
	assert.Equal(t, []int{0, 1, 0, 1, 2, 0, 0, 1}, SegmentDeltas(&counter{}, hasEnd))
}

// segmentedReference computes the segmented exclusive prefix lane by lane.
func segmentedReference[T any](lanes []T, hasEnd []bool, m op.Monoid[T]) ([]T, T) {
	prefix := make([]T, len(lanes))
	acc := m.Identity
	for w := range lanes {
		prefix[w] = acc
		if hasEnd[w] {
			acc = lanes[w]
		} else {
			acc = m.Combine(acc, lanes[w])
		}
	}
	return prefix, acc
}

func TestSegmentedExclusiveScan_Reference(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, n := range []int{1, 2, 5, 32, 64, 100, 256} {
		for _, density := range []float64{0, 0.05, 0.3, 1} {
			lanes := make([]string, n)
			hasEnd := make([]bool, n)
			for w := range lanes {
				lanes[w] = string(rune('a' + rng.Intn(26)))
				hasEnd[w] = rng.Float64() < density
			}
			s := &counter{}
			deltas := SegmentDeltas(s, hasEnd)
			got, tail := SegmentedExclusiveScan(s, lanes, deltas, concat)
			want, wantTail := segmentedReference(lanes, hasEnd, concat)
			require.Equal(t, want, got, "n=%d density=%v", n, density)
			require.Equal(t, wantTail, tail, "n=%d density=%v", n, density)
		}
	}
}

func TestSegmentedExclusiveScan_Example(t *testing.T) {
	// Lane 1 and lane 4 hold segment ends; their values are what follows
	// their last end.
	lanes := []int{1, 2, 3, 4, 5, 6}
	hasEnd := []bool{false, true, false, false, true, false}
	s := &counter{}
	prefix, tail := SegmentedExclusiveScan(s, lanes, SegmentDeltas(s, hasEnd), op.Sum)
	assert.Equal(t, []int{0, 1, 2, 5, 9, 5}, prefix)
	assert.Equal(t, 11, tail)
}
