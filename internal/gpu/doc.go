// Package gpu runs float32 reductions and inclusive scans on a WebGPU device.
//
// The kernels mirror the engine's CPU pipelines: a reduction reduces
// 256-element workgroup tiles to partials and repeats over the partials until
// one value is left; a scan scans every tile in workgroup memory, scans the
// tile totals the same way, and adds the scanned totals back as carries.
//
// The WGSL sources are portable and can be validated anywhere. Running them
// needs the wgpu-native library, which the backend binds on Windows only;
// elsewhere New returns ErrUnavailable.
package gpu

import (
	"errors"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'segscan'
func tracer() tracing.Trace {
	return tracing.Select("segscan")
}

// ErrUnavailable is returned when no WebGPU device can be used.
var ErrUnavailable = errors.New("gpu: webgpu backend not available")
