package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"slices"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/born-ml/segscan"
)

// check is one property verified against a sequential reference.
type check struct {
	name string
	run  func(ctx context.Context, e *segscan.Engine, n int, rng *rand.Rand) error
}

// affine is x -> a*x + b; composition is associative and not commutative.
type affine struct{ a, b uint64 }

var compose = segscan.NewMonoid(func(p, q affine) affine {
	return affine{q.a * p.a, q.a*p.b + q.b}
}, affine{1, 0})

func randomAffine(n int, rng *rand.Rand) []affine {
	return lo.Times(n, func(int) affine { return affine{rng.Uint64() | 1, rng.Uint64()} })
}

// randomKeys returns runs of equal keys with lengths up to maxRun.
func randomKeys(n, maxRun int, rng *rand.Rand) []int {
	keys := make([]int, 0, n)
	for k := 0; len(keys) < n; k++ {
		run := min(1+rng.Intn(maxRun), n-len(keys))
		keys = append(keys, lo.Times(run, func(int) int { return k })...)
	}
	return keys
}

func foldAffine(xs []affine) affine {
	acc := affine{1, 0}
	for _, x := range xs {
		acc = compose.Combine(acc, x)
	}
	return acc
}

func mismatch(what string, i int, got, want any) error {
	return fmt.Errorf("%s[%d] = %v, want %v", what, i, got, want)
}

var checks = []check{
	{"reduce equals left fold", func(ctx context.Context, e *segscan.Engine, n int, rng *rand.Rand) error {
		xs := randomAffine(n, rng)
		got, err := segscan.Reduce(ctx, e, xs, compose)
		if err != nil {
			return err
		}
		if want := foldAffine(xs); got != want {
			return fmt.Errorf("reduce = %v, want %v", got, want)
		}
		return nil
	}},
	{"reduce without identity", func(ctx context.Context, e *segscan.Engine, n int, rng *rand.Rand) error {
		xs := lo.Times(n, func(int) int { return rng.Int() })
		got, err := segscan.Reduce(ctx, e, xs, segscan.Maximum[int]())
		if err != nil {
			return err
		}
		if want := slices.Max(xs); got != want {
			return fmt.Errorf("max = %d, want %d", got, want)
		}
		return nil
	}},
	{"inclusive scan ends in reduce", func(ctx context.Context, e *segscan.Engine, n int, rng *rand.Rand) error {
		xs := randomAffine(n, rng)
		out := make([]affine, n)
		if err := segscan.InclusiveScan(ctx, e, xs, out, compose); err != nil {
			return err
		}
		acc := affine{1, 0}
		for i, x := range xs {
			acc = compose.Combine(acc, x)
			if out[i] != acc {
				return mismatch("inclusive", i, out[i], acc)
			}
		}
		return nil
	}},
	{"exclusive scan shifts inclusive", func(ctx context.Context, e *segscan.Engine, n int, rng *rand.Rand) error {
		xs := lo.Times(n, func(int) int64 { return rng.Int63n(1000) - 500 })
		inc := make([]int64, n)
		if err := segscan.InclusiveScan(ctx, e, xs, inc, segscan.Plus[int64]()); err != nil {
			return err
		}
		const init = 7
		if err := segscan.ExclusiveScan(ctx, e, xs, xs, init, segscan.Plus[int64]()); err != nil {
			return err
		}
		for i := range xs {
			want := int64(init)
			if i > 0 {
				want += inc[i-1]
			}
			if xs[i] != want {
				return mismatch("exclusive", i, xs[i], want)
			}
		}
		return nil
	}},
	{"reduce by segment", func(ctx context.Context, e *segscan.Engine, n int, rng *rand.Rand) error {
		keys := randomKeys(n, 1+n/50, rng)
		xs := randomAffine(n, rng)
		outKeys, outValues, count, err := segscan.ReduceBySegment(ctx, e, keys, xs, segscan.Equal[int](), compose)
		if err != nil {
			return err
		}
		r, start := 0, 0
		for i := range keys {
			if i < n-1 && keys[i] == keys[i+1] {
				continue
			}
			if want := foldAffine(xs[start : i+1]); r >= count || outValues[r] != want || outKeys[r] != keys[i] {
				return fmt.Errorf("segment %d ending at %d differs", r, i)
			}
			r, start = r+1, i+1
		}
		if r != count {
			return fmt.Errorf("count = %d, want %d", count, r)
		}
		return nil
	}},
	{"scan by segment", func(ctx context.Context, e *segscan.Engine, n int, rng *rand.Rand) error {
		keys := randomKeys(n, 1+n/20, rng)
		xs := randomAffine(n, rng)
		out := make([]affine, n)
		init := affine{3, 5}
		if err := segscan.ScanBySegment(ctx, e, keys, xs, out, segscan.Equal[int](), compose, init, segscan.Inclusive); err != nil {
			return err
		}
		acc := init
		for i := range keys {
			acc = compose.Combine(acc, xs[i])
			if out[i] != acc {
				return mismatch("segmented", i, out[i], acc)
			}
			if i < n-1 && keys[i] != keys[i+1] {
				acc = init
			}
		}
		return nil
	}},
}

func newVerifyCmd() *cobra.Command {
	var (
		flags engineFlags
		sizes []int
		seed  int64
	)
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check every algorithm against a sequential reference",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := segscan.New(flags.config())
			defer e.Close()
			if failed := runChecks(cmd.Context(), cmd.OutOrStdout(), e, sizes, seed); failed > 0 {
				return fmt.Errorf("%d checks failed", failed)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntSliceVar(&sizes, "sizes", []int{1, 257, 8193, 100000}, "input sizes to check")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	return cmd
}

// runChecks prints one PASS or FAIL line per check and size and returns the
// number of failures.
func runChecks(ctx context.Context, w io.Writer, e *segscan.Engine, sizes []int, seed int64) int {
	pass := color.New(color.FgGreen, color.Bold).SprintFunc()
	fail := color.New(color.FgRed, color.Bold).SprintFunc()
	failed := 0
	for _, c := range checks {
		for _, n := range lo.Filter(sizes, func(n int, _ int) bool { return n > 0 }) {
			err := c.run(ctx, e, n, rand.New(rand.NewSource(seed)))
			if err != nil {
				failed++
				fmt.Fprintf(w, "%s %-32s n=%-8d %v\n", fail("FAIL"), c.name, n, err)
				continue
			}
			fmt.Fprintf(w, "%s %-32s n=%d\n", pass("PASS"), c.name, n)
		}
	}
	return failed
}
