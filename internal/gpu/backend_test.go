//go:build windows

package gpu

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) *Backend {
	t.Helper()
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}
	b, err := New()
	require.NoError(t, err)
	t.Cleanup(b.Release)
	return b
}

func randomFloats(n int, seed int64) []float32 {
	rng := rand.New(rand.NewSource(seed))
	xs := make([]float32, n)
	for i := range xs {
		xs[i] = float32(rng.Intn(200) - 100)
	}
	return xs
}

func TestReduce(t *testing.T) {
	b := newBackend(t)

	for _, n := range []int{1, 255, 256, 257, 70000} {
		xs := randomFloats(n, int64(n))
		for _, o := range Ops {
			want := o.Identity()
			for _, x := range xs {
				want = o.Combine(want, x)
			}
			got, err := b.Reduce(xs, o)
			require.NoError(t, err)
			assert.Equal(t, want, got, "n=%d op=%s", n, o)
		}
	}

	got, err := b.Reduce(nil, Sum)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestInclusiveScan(t *testing.T) {
	b := newBackend(t)

	for _, n := range []int{1, 300, 65536, 70001} {
		xs := randomFloats(n, 9)
		for _, o := range Ops {
			out := make([]float32, n)
			require.NoError(t, b.InclusiveScan(xs, out, o))
			acc := o.Identity()
			for i, x := range xs {
				acc = o.Combine(acc, x)
				require.Equal(t, acc, out[i], "n=%d op=%s i=%d", n, o, i)
			}
		}
	}
}
