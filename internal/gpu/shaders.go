package gpu

import (
	"fmt"
	"math"
	"strings"
)

// workgroupSize is the number of invocations per workgroup of every kernel.
const workgroupSize = 256

// maxWorkgroups is the per-dimension dispatch limit WebGPU guarantees.
const maxWorkgroups = 65535

// Op is a commutative float32 combine operator supported by the kernels.
type Op int

// Supported operators.
const (
	Sum Op = iota
	Max
	Min
)

func (o Op) String() string {
	switch o {
	case Sum:
		return "sum"
	case Max:
		return "max"
	case Min:
		return "min"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Identity returns the neutral element of o.
func (o Op) Identity() float32 {
	switch o {
	case Max:
		return -math.MaxFloat32
	case Min:
		return math.MaxFloat32
	default:
		return 0
	}
}

// Combine applies o on the host.
func (o Op) Combine(a, b float32) float32 {
	switch o {
	case Max:
		return max(a, b)
	case Min:
		return min(a, b)
	default:
		return a + b
	}
}

func (o Op) expr() string {
	switch o {
	case Max:
		return "max(a, b)"
	case Min:
		return "min(a, b)"
	default:
		return "a + b"
	}
}

func (o Op) literal() string {
	switch o {
	case Max:
		return "-3.40282347e+38"
	case Min:
		return "3.40282347e+38"
	default:
		return "0.0"
	}
}

// Kernel names a compute shader.
type Kernel int

// Kernels.
const (
	KernelReduce Kernel = iota
	KernelScan
	KernelAddCarries
)

func (k Kernel) String() string {
	switch k {
	case KernelReduce:
		return "reduce"
	case KernelScan:
		return "scan"
	case KernelAddCarries:
		return "add-carries"
	default:
		return fmt.Sprintf("kernel(%d)", int(k))
	}
}

// Kernels lists every kernel.
var Kernels = []Kernel{KernelReduce, KernelScan, KernelAddCarries}

// Ops lists every operator.
var Ops = []Op{Sum, Max, Min}

// Source returns the WGSL of kernel k specialized for o.
func Source(k Kernel, o Op) string {
	var tmpl string
	switch k {
	case KernelReduce:
		tmpl = reduceShader
	case KernelScan:
		tmpl = scanShader
	case KernelAddCarries:
		tmpl = addCarriesShader
	default:
		panic(fmt.Sprintf("gpu: unknown kernel %d", int(k)))
	}
	return strings.NewReplacer(
		"{{COMBINE}}", o.expr(),
		"{{IDENTITY}}", o.literal(),
	).Replace(combineFn + tmpl)
}

// shaderName is the cache key of a specialized kernel.
func shaderName(k Kernel, o Op) string {
	return k.String() + "/" + o.String()
}

const combineFn = `
fn combine(a: f32, b: f32) -> f32 {
    return {{COMBINE}};
}
`

// reduceShader reduces every 256-element tile of input to one value.
const reduceShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

var<workgroup> shared_data: array<f32, 256>;

@compute @workgroup_size(256)
fn main(
    @builtin(global_invocation_id) global_id: vec3<u32>,
    @builtin(local_invocation_id) local_id: vec3<u32>,
    @builtin(workgroup_id) workgroup_id: vec3<u32>
) {
    let tid = local_id.x;
    let gid = global_id.x;

    if (gid < params.size) {
        shared_data[tid] = input[gid];
    } else {
        shared_data[tid] = {{IDENTITY}};
    }
    workgroupBarrier();

    for (var s: u32 = 128u; s > 0u; s = s >> 1u) {
        if (tid < s) {
            shared_data[tid] = combine(shared_data[tid], shared_data[tid + s]);
        }
        workgroupBarrier();
    }

    if (tid == 0u) {
        result[workgroup_id.x] = shared_data[0];
    }
}
`

// scanShader writes the inclusive scan of every tile and the tile's total.
const scanShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> output: array<f32>;
@group(0) @binding(2) var<storage, read_write> totals: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

var<workgroup> shared_data: array<f32, 256>;

@compute @workgroup_size(256)
fn main(
    @builtin(global_invocation_id) global_id: vec3<u32>,
    @builtin(local_invocation_id) local_id: vec3<u32>,
    @builtin(workgroup_id) workgroup_id: vec3<u32>
) {
    let tid = local_id.x;
    let gid = global_id.x;

    if (gid < params.size) {
        shared_data[tid] = input[gid];
    } else {
        shared_data[tid] = {{IDENTITY}};
    }
    workgroupBarrier();

    for (var offset: u32 = 1u; offset < 256u; offset = offset << 1u) {
        var t = shared_data[tid];
        if (tid >= offset) {
            t = combine(shared_data[tid - offset], t);
        }
        workgroupBarrier();
        shared_data[tid] = t;
        workgroupBarrier();
    }

    if (gid < params.size) {
        output[gid] = shared_data[tid];
    }
    if (tid == 255u) {
        totals[workgroup_id.x] = shared_data[255];
    }
}
`

// addCarriesShader combines the scanned total of all earlier tiles into
// every element of a tile.
const addCarriesShader = `
@group(0) @binding(0) var<storage, read_write> data: array<f32>;
@group(0) @binding(1) var<storage, read> carries: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(
    @builtin(global_invocation_id) global_id: vec3<u32>,
    @builtin(workgroup_id) workgroup_id: vec3<u32>
) {
    let gid = global_id.x;
    if (gid >= params.size || workgroup_id.x == 0u) {
        return;
    }
    data[gid] = combine(carries[workgroup_id.x - 1u], data[gid]);
}
`
