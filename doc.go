// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package segscan provides data-parallel reductions and prefix scans,
// including their segmented variants.
//
// # Overview
//
// The engine runs every algorithm as a short pipeline of kernel phases on a
// device of cooperating groups of lanes:
//   - Reduce, ReduceInit and TransformReduce pick a size tier (one group,
//     two kernels, or a recursive tree of tile passes) once per call
//   - InclusiveScan and ExclusiveScan scan one group at a time for small
//     inputs and use a block-pipelined reduce-then-scan for large ones
//   - ReduceBySegment and ScanBySegment treat every run of adjacent equal
//     keys as an independent segment and carry partial results across
//     group boundaries
//
// Results always equal a strict left-to-right combination of the input, so
// any associative operator may be used, commutative or not.
//
// # Basic Usage
//
//	e := segscan.New(segscan.DefaultConfig())
//	defer e.Close()
//
//	sum, err := segscan.Reduce(ctx, e, values, segscan.Plus[int]())
//
//	keys, sums, n, err := segscan.ReduceBySegment(ctx, e,
//	    []int{1, 1, 2, 2, 2, 3}, []int{1, 2, 3, 4, 5, 6},
//	    segscan.Equal[int](), segscan.Plus[int]())
//	// keys = [1 2 3], sums = [3 12 6], n = 3
//
// # Errors
//
// Contract violations such as mismatched slice lengths panic. Device
// failures (scratch exhaustion, a faulting group) fail the whole call with
// an error wrapping ErrOutOfMemory or ErrLaunchFailed; no partial result is
// exposed.
package segscan
