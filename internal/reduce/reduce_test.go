package reduce

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/segscan/internal/device"
	"github.com/born-ml/segscan/internal/op"
	"github.com/born-ml/segscan/internal/tiling"
)

// affine is x -> a*x + b. Composition is associative but not commutative.
type affine struct{ a, b uint64 }

var compose = op.Monoid[affine]{
	Combine: func(p, q affine) affine { return affine{q.a * p.a, q.a*p.b + q.b} },
	Identity: affine{1, 0},
}

func randomAffine(n int, seed int64) []affine {
	rng := rand.New(rand.NewSource(seed))
	xs := make([]affine, n)
	for i := range xs {
		xs[i] = affine{rng.Uint64() | 1, rng.Uint64()}
	}
	return xs
}

func TestReduce_Tiers(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "segscan")
	defer teardown()

	d := device.New(device.DefaultConfig())
	defer d.Close()

	tests := []struct {
		n    int
		tier tiling.Tier
	}{
		{1, tiling.Small},
		{2, tiling.Small},
		{256, tiling.Small},
		{257, tiling.Small},
		{8192, tiling.Small},
		{8193, tiling.Mid},
		{524288, tiling.Mid},
		{524289, tiling.Large},
	}
	for _, tt := range tests {
		xs := randomAffine(tt.n, int64(tt.n))
		got, plan, err := Reduce(context.Background(), d, xs, op.Identity[affine](), compose, compose.Identity, Options{})
		require.NoError(t, err, "n=%d", tt.n)
		assert.Equal(t, tt.tier, plan.Tier, "n=%d", tt.n)
		assert.Equal(t, compose.Fold(xs), got, "n=%d", tt.n)
	}
}

func TestReduce_Recursive(t *testing.T) {
	d := device.New(device.Config{Workers: 3, GroupSize: 4, SubGroupSize: 2})
	defer d.Close()

	xs := randomAffine(5000, 1)
	got, plan, err := Reduce(context.Background(), d, xs, op.Identity[affine](), compose, compose.Identity, Options{})
	require.NoError(t, err)
	assert.Equal(t, tiling.Recursive, plan.Tier)
	assert.Equal(t, []int{157, 5}, plan.Passes)
	assert.Equal(t, compose.Fold(xs), got)
	assert.EqualValues(t, plan.Launches(), d.Launches())
	assert.Zero(t, d.InUse(), "scratch is released")
}

func TestReduce_Init(t *testing.T) {
	d := device.New(device.DefaultConfig())
	defer d.Close()

	xs := randomAffine(3000, 2)
	init := affine{3, 4}
	got, _, err := Reduce(context.Background(), d, xs, op.Identity[affine](), compose, init, Options{})
	require.NoError(t, err)
	assert.Equal(t, compose.Combine(init, compose.Fold(xs)), got)
}

func TestReduce_Commutative(t *testing.T) {
	d := device.New(device.Config{GroupSize: 32, VectorSize: 4})
	defer d.Close()

	sum := op.Monoid[int64]{Combine: func(a, b int64) int64 { return a + b }}
	for _, n := range []int{7, 1024, 1025, 50001} {
		xs := make([]int64, n)
		var want int64
		for i := range xs {
			xs[i] = int64(i*7 - 3)
			want += xs[i]
		}
		got, _, err := Reduce(context.Background(), d, xs, op.Identity[int64](), sum, 0,
			Options{Commutative: true, ItersPerItem: 12})
		require.NoError(t, err, "n=%d", n)
		assert.Equal(t, want, got, "n=%d", n)
	}
}

func TestReduce_TransformAndLifted(t *testing.T) {
	d := device.New(device.Config{GroupSize: 16})
	defer d.Close()

	words := strings.Fields(strings.Repeat("alpha beta gamma delta epsilon ", 200))
	first := op.Lift(func(a, b string) string { return a })
	c := op.Codec[string, op.Partial[string]]{Load: func(w string) op.Partial[string] { return op.Some(w[:1]) }}
	got, _, err := Reduce(context.Background(), d, words, c, first, op.Partial[string]{}, Options{})
	require.NoError(t, err)
	assert.Equal(t, op.Some("a"), got)

	length := op.Transform(func(w string) int { return len(w) })
	total, _, err := Reduce(context.Background(), d, words, length, op.Sum, 0, Options{})
	require.NoError(t, err)
	assert.Equal(t, 200*(5+4+5+5+7), total)
}

func TestReduce_OutOfMemory(t *testing.T) {
	d := device.New(device.Config{GroupSize: 8, MaxScratchBytes: 16})
	defer d.Close()

	xs := make([]int, 10000)
	_, _, err := Reduce(context.Background(), d, xs, op.Identity[int](), op.Sum, 0, Options{})
	require.ErrorIs(t, err, device.ErrOutOfMemory)
	assert.Zero(t, d.InUse())
}

func TestReduce_OperatorPanic(t *testing.T) {
	d := device.New(device.DefaultConfig())
	defer d.Close()

	boom := op.Monoid[int]{Combine: func(a, b int) int {
		if b == 4242 {
			panic("overflow")
		}
		return a + b
	}}
	xs := make([]int, 20000)
	xs[12345] = 4242
	_, _, err := Reduce(context.Background(), d, xs, op.Identity[int](), boom, 0, Options{})
	require.ErrorIs(t, err, device.ErrLaunchFailed)
}

func BenchmarkReduce(b *testing.B) {
	d := device.New(device.DefaultConfig())
	defer d.Close()
	sum := op.Monoid[float32]{Combine: func(a, b float32) float32 { return a + b }}

	for _, n := range []int{4096, 1 << 16, 1 << 20} {
		xs := make([]float32, n)
		for i := range xs {
			xs[i] = 1
		}
		b.Run(tiling.Select(n, 256, 0).Tier.String(), func(b *testing.B) {
			for range b.N {
				_, _, _ = Reduce(context.Background(), d, xs, op.Identity[float32](), sum, 0, Options{Commutative: true})
			}
		})
	}
}
