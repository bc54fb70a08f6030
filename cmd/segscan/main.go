// Package main provides the segscan CLI.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/born-ml/segscan"
)

const version = "v0.0.1-dev"

// engineFlags are the device settings shared by all commands.
type engineFlags struct {
	workers      int
	groupSize    int
	subGroupSize int
	scratch      int64
}

func (f *engineFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.workers, "workers", 0, "goroutines executing groups (0: number of CPUs)")
	cmd.Flags().IntVar(&f.groupSize, "group-size", 0, "lanes per group (0: 256)")
	cmd.Flags().IntVar(&f.subGroupSize, "sub-group-size", 0, "lanes per lane-group (0: 32)")
	cmd.Flags().Int64Var(&f.scratch, "max-scratch", 0, "scratch budget in bytes (0: unlimited)")
}

func (f *engineFlags) config() segscan.Config {
	cfg := segscan.DefaultConfig()
	if f.workers > 0 {
		cfg.Workers = f.workers
	}
	if f.groupSize > 0 {
		cfg.GroupSize = f.groupSize
	}
	if f.subGroupSize > 0 {
		cfg.SubGroupSize = f.subGroupSize
	}
	cfg.MaxScratchBytes = f.scratch
	return cfg
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "segscan",
		Short:         "Segmented reduction and scan engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if !term.IsTerminal(int(os.Stdout.Fd())) { //nolint:gosec // G115: file descriptors fit in int.
				color.NoColor = true
			}
		},
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Show version",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "segscan %s\n", version)
			},
		},
		newVerifyCmd(),
		newBenchCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
