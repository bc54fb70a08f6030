package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/born-ml/segscan"
	"github.com/born-ml/segscan/backend/webgpu"
)

// phaseStats accumulates the events of one phase name.
type phaseStats struct {
	launches int
	groups   int
	barriers int
	elapsed  time.Duration
}

type benchOptions struct {
	algorithm    string
	n            int
	rounds       int
	maxRun       int
	itersPerItem int
	commutative  bool
	gpu          bool
	seed         int64
}

var algorithms = []string{"reduce", "inclusive-scan", "exclusive-scan", "reduce-by-segment", "scan-by-segment"}

func newBenchCmd() *cobra.Command {
	var (
		flags engineFlags
		opts  benchOptions
	)
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time an algorithm on random float32 data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !lo.Contains(algorithms, opts.algorithm) {
				return fmt.Errorf("unknown algorithm %q, want one of %v", opts.algorithm, algorithms)
			}
			e := segscan.New(flags.config())
			defer e.Close()
			return runBench(cmd.Context(), cmd.OutOrStdout(), e, opts)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&opts.algorithm, "algorithm", "reduce", fmt.Sprintf("one of %v", algorithms))
	cmd.Flags().IntVarP(&opts.n, "size", "n", 1<<20, "number of elements")
	cmd.Flags().IntVar(&opts.rounds, "rounds", 5, "timed repetitions")
	cmd.Flags().IntVar(&opts.maxRun, "max-run", 64, "longest segment of the segmented algorithms")
	cmd.Flags().IntVar(&opts.itersPerItem, "iters", 0, "elements per lane (0: from the tile ladder)")
	cmd.Flags().BoolVar(&opts.commutative, "commutative", true, "allow strided vector loads in reductions")
	cmd.Flags().BoolVar(&opts.gpu, "gpu", false, "also time the WebGPU kernels if available")
	cmd.Flags().Int64Var(&opts.seed, "seed", 1, "random seed")
	return cmd
}

func runBench(ctx context.Context, w io.Writer, e *segscan.Engine, opts benchOptions) error {
	rng := rand.New(rand.NewSource(opts.seed))
	values := lo.Times(opts.n, func(int) float32 { return float32(rng.Intn(100)) })
	keys := randomKeys(opts.n, max(opts.maxRun, 1), rng)
	out := make([]float32, opts.n)

	var callOpts []segscan.Option
	if opts.commutative {
		callOpts = append(callOpts, segscan.WithCommutative())
	}
	if opts.itersPerItem > 0 {
		callOpts = append(callOpts, segscan.WithItersPerItem(opts.itersPerItem))
	}
	plus := segscan.Plus[float32]()

	run := func() error {
		var err error
		switch opts.algorithm {
		case "reduce":
			_, err = segscan.Reduce(ctx, e, values, plus, callOpts...)
		case "inclusive-scan":
			err = segscan.InclusiveScan(ctx, e, values, out, plus, callOpts...)
		case "exclusive-scan":
			err = segscan.ExclusiveScan(ctx, e, values, out, 0, plus, callOpts...)
		case "reduce-by-segment":
			_, _, _, err = segscan.ReduceBySegment(ctx, e, keys, values, segscan.Equal[int](), plus, callOpts...)
		case "scan-by-segment":
			err = segscan.ScanBySegment(ctx, e, keys, values, out, segscan.Equal[int](), plus, 0, segscan.Inclusive, callOpts...)
		}
		return err
	}

	subCtx, cancel := context.WithCancel(ctx)
	events, ok := e.Subscribe(subCtx, 4096)
	if !ok {
		cancel()
		return fmt.Errorf("cannot subscribe to phase events")
	}
	stats := make(map[string]*phaseStats)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			key := ev.Algorithm + "/" + ev.Phase
			s := stats[key]
			if s == nil {
				s = &phaseStats{}
				stats[key] = s
			}
			s.launches++
			s.groups += ev.Groups
			s.barriers += ev.Barriers
			s.elapsed += ev.Elapsed
		}
	}()

	var total time.Duration
	for range opts.rounds {
		start := time.Now()
		if err := run(); err != nil {
			cancel()
			<-done
			return err
		}
		total += time.Since(start)
	}
	cancel()
	<-done

	header := color.New(color.FgCyan, color.Bold)
	header.Fprintf(w, "%s n=%d rounds=%d\n", opts.algorithm, opts.n, opts.rounds)
	if opts.algorithm == "reduce" {
		plan := segscan.PlanReduce(e, opts.n, callOpts...)
		fmt.Fprintf(w, "tier=%s passes=%v final=%d\n", plan.Tier, plan.Passes, plan.FinalN)
	}
	rounds := max(opts.rounds, 1)
	fmt.Fprintf(w, "mean %v  scratch peak %d bytes\n", total/time.Duration(rounds), e.ScratchPeak())

	names := lo.Keys(stats)
	sort.Strings(names)
	for _, name := range names {
		s := stats[name]
		fmt.Fprintf(w, "  %-40s launches=%-5d groups=%-8d barriers=%-9d %v\n",
			name, s.launches, s.groups, s.barriers, s.elapsed/time.Duration(rounds))
	}

	if opts.gpu {
		return benchGPU(w, values, opts)
	}
	return nil
}

func benchGPU(w io.Writer, values []float32, opts benchOptions) error {
	if !webgpu.IsAvailable() {
		color.New(color.FgYellow).Fprintln(w, "webgpu: not available, skipped")
		return nil
	}
	gpu, err := webgpu.New()
	if err != nil {
		return err
	}
	defer gpu.Release()

	out := make([]float32, len(values))
	start := time.Now()
	for range opts.rounds {
		switch opts.algorithm {
		case "reduce":
			_, err = gpu.Reduce(values, webgpu.Sum)
		case "inclusive-scan":
			err = gpu.InclusiveScan(values, out, webgpu.Sum)
		default:
			color.New(color.FgYellow).Fprintf(w, "webgpu: %s not supported, skipped\n", opts.algorithm)
			return nil
		}
		if err != nil {
			return err
		}
	}
	fmt.Fprintf(w, "%s mean %v\n", gpu.Name(), time.Since(start)/time.Duration(max(opts.rounds, 1)))
	return nil
}
