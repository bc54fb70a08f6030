package scan

import (
	"context"
	"math/rand"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/segscan/internal/device"
	"github.com/born-ml/segscan/internal/op"
)

// affine is x -> a*x + b. Composition is associative but not commutative.
type affine struct{ a, b uint64 }

var compose = op.Monoid[affine]{
	Combine:  func(p, q affine) affine { return affine{q.a * p.a, q.a*p.b + q.b} },
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

func reference[T any](xs []T, m op.Monoid[T], init T, inclusive bool) []T {
	out := make([]T, len(xs))
	acc := init
	for i, x := range xs {
		if inclusive {
			acc = m.Combine(acc, x)
			out[i] = acc
		} else {
			out[i] = acc
			acc = m.Combine(acc, x)
		}
	}
	return out
}

var configs = map[string]device.Config{
	"default": device.DefaultConfig(),
	"tiny":    {Workers: 3, GroupSize: 8, SubGroupSize: 4},
	"ragged":  {Workers: 2, GroupSize: 12, SubGroupSize: 5},
}

func TestScan_Reference(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "segscan")
	defer teardown()

	init := affine{5, 7}
	for name, cfg := range configs {
		d := device.New(cfg)
		for _, n := range []int{1, 2, 100, 256, 257, 8192, 8193, 40000} {
			xs := randomAffine(n, int64(n))
			for _, inclusive := range []bool{true, false} {
				out := make([]affine, n)
				err := Scan(context.Background(), d, xs, out, op.Identity[affine](), compose, init,
					Options{Inclusive: inclusive, BlockGroups: 3})
				require.NoError(t, err)
				require.Equal(t, reference(xs, compose, init, inclusive), out,
					"%s n=%d inclusive=%v", name, n, inclusive)
			}
		}
		d.Close()
	}
}

func TestScan_InPlace(t *testing.T) {
	for name, cfg := range configs {
		d := device.New(cfg)
		for _, n := range []int{300, 9000, 33333} {
			for _, inclusive := range []bool{true, false} {
				xs := randomAffine(n, 11)
				want := reference(xs, compose, compose.Identity, inclusive)
				err := Scan(context.Background(), d, xs, xs, op.Identity[affine](), compose, compose.Identity,
					Options{Inclusive: inclusive, BlockGroups: 2})
				require.NoError(t, err)
				require.Equal(t, want, xs, "%s n=%d inclusive=%v", name, n, inclusive)
			}
		}
		d.Close()
	}
}

func TestScan_Properties(t *testing.T) {
	d := device.New(device.Config{GroupSize: 16, SubGroupSize: 4})
	defer d.Close()

	xs := make([]int, 20000)
	for i := range xs {
		xs[i] = i%13 - 6
	}
	inc := make([]int, len(xs))
	exc := make([]int, len(xs))
	require.NoError(t, Scan(context.Background(), d, xs, inc, op.Identity[int](), op.Sum, 0, Options{Inclusive: true}))
	require.NoError(t, Scan(context.Background(), d, xs, exc, op.Identity[int](), op.Sum, 100, Options{}))

	assert.Equal(t, op.Sum.Fold(xs), inc[len(inc)-1])
	assert.Equal(t, 100, exc[0])
	for i := 1; i < len(xs); i++ {
		if exc[i] != 100+inc[i-1] {
			t.Fatalf("exclusive[%d] = %d, want %d", i, exc[i], 100+inc[i-1])
		}
	}
}

func TestScan_Lifted(t *testing.T) {
	d := device.New(device.Config{GroupSize: 8, SubGroupSize: 8})
	defer d.Close()

	maxOf := op.Lift(func(a, b int) int { return max(a, b) })
	rng := rand.New(rand.NewSource(3))
	xs := make([]int, 5000)
	for i := range xs {
		xs[i] = rng.Intn(1000000) - 500000
	}
	out := make([]int, len(xs))
	err := Scan(context.Background(), d, xs, out, op.Lifted[int](), maxOf, op.Partial[int]{}, Options{Inclusive: true})
	require.NoError(t, err)

	running := xs[0]
	for i, x := range xs {
		running = max(running, x)
		require.Equal(t, running, out[i], "i=%d", i)
	}
}

func TestScan_BlockPipelining(t *testing.T) {
	d := device.New(device.Config{Workers: 1, GroupSize: 8, SubGroupSize: 4})
	defer d.Close()

	xs := make([]int, 10000)
	out := make([]int, len(xs))
	require.NoError(t, Scan(context.Background(), d, xs, out, op.Identity[int](), op.Sum, 0,
		Options{Inclusive: true, ItersPerItem: 4, BlockGroups: 5}))

	// 10000 elements in tiles of 32 are 313 groups, 63 blocks of at most 5
	// groups, two phases per block.
	assert.EqualValues(t, 2*63, d.Launches())
	assert.Zero(t, d.InUse())
}

func TestScan_CanceledBetweenBlocks(t *testing.T) {
	d := device.New(device.Config{GroupSize: 8})
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// The operator cancels while a block is in flight; that phase completes
	// and the next one is not launched.
	sum := op.Monoid[int]{Combine: func(a, b int) int {
		if b < 0 {
			cancel()
		}
		return a + b
	}}
	xs := make([]int, 100000)
	xs[50000] = -1
	err := Scan(ctx, d, xs, xs, op.Identity[int](), sum, 0, Options{Inclusive: true, BlockGroups: 1})
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, d.Launches(), int64(2*1563))
}

func BenchmarkScan(b *testing.B) {
	d := device.New(device.DefaultConfig())
	defer d.Close()
	sum := op.Monoid[float64]{Combine: func(a, b float64) float64 { return a + b }}

	xs := make([]float64, 1<<20)
	out := make([]float64, len(xs))
	for _, inclusive := range []bool{true, false} {
		name := "exclusive"
		if inclusive {
			name = "inclusive"
		}
		b.Run(name, func(b *testing.B) {
			for range b.N {
				_ = Scan(context.Background(), d, xs, out, op.Identity[float64](), sum, 0, Options{Inclusive: inclusive})
			}
		})
	}
}
