// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package segscan

// Option tunes a single call.
type Option func(*options)

type options struct {
	commutative  bool
	itersPerItem int
	vectorSize   int
	blockGroups  int
}

func collect(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithCommutative declares the operator commutative. Reductions may then
// load strided vectors, which reorders operands across lanes.
func WithCommutative() Option {
	return func(o *options) { o.commutative = true }
}

// WithItersPerItem fixes the number of elements every lane processes in
// multi-group pipelines.
func WithItersPerItem(n int) Option {
	return func(o *options) { o.itersPerItem = n }
}

// WithVectorSize sets the vector width of commutative reductions.
func WithVectorSize(n int) Option {
	return func(o *options) { o.vectorSize = n }
}

// WithBlockGroups sets the number of groups per block of large scans.
func WithBlockGroups(n int) Option {
	return func(o *options) { o.blockGroups = n }
}
