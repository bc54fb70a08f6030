//go:build windows

package gpu

import (
	"fmt"

	"github.com/go-webgpu/webgpu/wgpu"
)

// InclusiveScan writes the inclusive scan of values under o to out, which
// must have the same length.
func (b *Backend) InclusiveScan(values, out []float32, o Op) error {
	if len(values) != len(out) {
		panic(fmt.Sprintf("gpu: inclusive_scan: output length %d does not match input length %d", len(out), len(values)))
	}
	if len(values) == 0 {
		return nil
	}

	var release []*wgpu.Buffer
	defer func() {
		for _, gb := range release {
			gb.Release()
		}
	}()

	in := b.upload(values)
	release = append(release, in.Buffer)
	res, err := b.scan(in, o, &release)
	if err != nil {
		return err
	}
	data, err := b.download(res, res.n)
	if err != nil {
		return err
	}
	copy(out, data)
	return nil
}

// scan returns a buffer holding the inclusive scan of in. Tile totals are
// scanned recursively and added back as carries.
func (b *Backend) scan(in buffer, o Op, release *[]*wgpu.Buffer) (buffer, error) {
	groups := groupsFor(in.n)
	out := b.scratch(in.n)
	totals := b.scratch(groups)
	params := b.params(in.n)
	*release = append(*release, out.Buffer, totals.Buffer, params)

	err := b.dispatch(b.pipeline(KernelScan, o), groups, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, in.Buffer, 0, in.size()),
		wgpu.BufferBindingEntry(1, out.Buffer, 0, out.size()),
		wgpu.BufferBindingEntry(2, totals.Buffer, 0, totals.size()),
		wgpu.BufferBindingEntry(3, params, 0, 16),
	})
	if err != nil || groups == 1 {
		return out, err
	}

	carries, err := b.scan(totals, o, release)
	if err != nil {
		return out, err
	}
	err = b.dispatch(b.pipeline(KernelAddCarries, o), groups, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, out.Buffer, 0, out.size()),
		wgpu.BufferBindingEntry(1, carries.Buffer, 0, carries.size()),
		wgpu.BufferBindingEntry(2, params, 0, 16),
	})
	return out, err
}
