// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu runs float32 reductions and inclusive scans on a GPU.
//
// WebGPU is a cross-platform compute API. The backend binds wgpu-native
// on Windows; on other platforms New returns ErrUnavailable and callers
// fall back to the segscan engine.
//
// Example:
//
//	if webgpu.IsAvailable() {
//	    gpu, err := webgpu.New()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer gpu.Release()
//
//	    total, err := gpu.Reduce(values, webgpu.Sum)
//	}
package webgpu

import (
	"github.com/born-ml/segscan/internal/gpu"
)

// Backend owns a WebGPU device.
type Backend = gpu.Backend

// Op is a float32 operator the GPU kernels support.
type Op = gpu.Op

// Supported operators.
const (
	Sum = gpu.Sum
	Max = gpu.Max
	Min = gpu.Min
)

// ErrUnavailable is returned when no WebGPU device can be used.
var ErrUnavailable = gpu.ErrUnavailable

// New opens a WebGPU device. Call Release when done.
func New() (*Backend, error) {
	return gpu.New()
}

// IsAvailable checks if WebGPU is available on the current system.
//
// Example:
//
//	var total float32
//	if webgpu.IsAvailable() {
//	    gpu, _ := webgpu.New()
//	    total, _ = gpu.Reduce(values, webgpu.Sum)
//	} else {
//	    total, _ = segscan.Reduce(ctx, engine, values, segscan.Plus[float32]())
//	}
func IsAvailable() bool {
	return gpu.IsAvailable()
}
