//go:build windows

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"
)

// pipeline returns the cached compute pipeline of kernel k for o, compiling
// it on first use.
func (b *Backend) pipeline(k Kernel, o Op) *wgpu.ComputePipeline {
	name := shaderName(k, o)
	b.mu.RLock()
	if p, ok := b.pipelines[name]; ok {
		b.mu.RUnlock()
		return p
	}
	b.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.pipelines[name]; ok {
		return p
	}
	shader := b.device.CreateShaderModuleWGSL(Source(k, o))
	b.shaders[name] = shader
	p := b.device.CreateComputePipelineSimple(nil, shader, "main")
	b.pipelines[name] = p
	tracer().Debugf("gpu: compiled %s", name)
	return p
}

// buffer is a storage buffer of float32 values.
type buffer struct {
	*wgpu.Buffer
	n int
}

func (buf buffer) size() uint64 {
	return uint64(buf.n) * 4 //nolint:gosec // G115: element counts are non-negative.
}

// upload creates a storage buffer holding values.
func (b *Backend) upload(values []float32) buffer {
	size := uint64(len(values)) * 4
	gb := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	//nolint:gosec // unsafe.Slice over the mapped range.
	mapped := unsafe.Slice((*byte)(gb.GetMappedRange(0, size)), size)
	for i, v := range values {
		binary.LittleEndian.PutUint32(mapped[i*4:], math.Float32bits(v))
	}
	gb.Unmap()
	return buffer{Buffer: gb, n: len(values)}
}

// scratch creates an uninitialized storage buffer of n values.
func (b *Backend) scratch(n int) buffer {
	gb := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  uint64(n) * 4, //nolint:gosec // G115: element counts are non-negative.
	})
	return buffer{Buffer: gb, n: n}
}

// params creates the 16-byte uniform buffer holding the element count.
func (b *Backend) params(n int) *wgpu.Buffer {
	const size = 16
	gb := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	//nolint:gosec // unsafe.Slice over the mapped range.
	mapped := unsafe.Slice((*byte)(gb.GetMappedRange(0, size)), size)
	binary.LittleEndian.PutUint32(mapped, uint32(n)) //nolint:gosec // G115: checked against maxWorkgroups.
	gb.Unmap()
	return gb
}

// dispatch runs one pass of p over groups workgroups and submits it.
func (b *Backend) dispatch(p *wgpu.ComputePipeline, groups int, entries []wgpu.BindGroupEntry) error {
	if groups > maxWorkgroups {
		return fmt.Errorf("gpu: %d workgroups exceed the dispatch limit of %d", groups, maxWorkgroups)
	}
	bindGroup := b.device.CreateBindGroupSimple(p.GetBindGroupLayout(0), entries)
	defer bindGroup.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(p)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(uint32(groups), 1, 1) //nolint:gosec // G115: checked against maxWorkgroups.
	pass.End()
	b.queue.Submit(encoder.Finish(nil))
	return nil
}

// download copies the first n values of src back to the host.
func (b *Backend) download(src buffer, n int) ([]float32, error) {
	size := uint64(n) * 4 //nolint:gosec // G115: element counts are non-negative.
	staging := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src.Buffer, 0, staging, 0, size)
	b.queue.Submit(encoder.Finish(nil))

	if err := staging.MapAsync(b.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("gpu: map staging buffer: %w", err)
	}
	//nolint:gosec // unsafe.Slice over the mapped range.
	mapped := unsafe.Slice((*byte)(staging.GetMappedRange(0, size)), size)
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(mapped[i*4:]))
	}
	staging.Unmap()
	return out, nil
}

func groupsFor(n int) int {
	return (n + workgroupSize - 1) / workgroupSize
}
