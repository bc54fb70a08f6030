//go:build windows

package gpu

import "github.com/go-webgpu/webgpu/wgpu"

// Reduce combines all values with o. Tiles of 256 values are reduced to
// partials until a single value is left; only that value is read back.
func (b *Backend) Reduce(values []float32, o Op) (float32, error) {
	if len(values) == 0 {
		return o.Identity(), nil
	}
	p := b.pipeline(KernelReduce, o)

	var release []*wgpu.Buffer
	defer func() {
		for _, gb := range release {
			gb.Release()
		}
	}()

	cur := b.upload(values)
	release = append(release, cur.Buffer)
	for cur.n > 1 {
		groups := groupsFor(cur.n)
		next := b.scratch(groups)
		params := b.params(cur.n)
		release = append(release, next.Buffer, params)
		err := b.dispatch(p, groups, []wgpu.BindGroupEntry{
			wgpu.BufferBindingEntry(0, cur.Buffer, 0, cur.size()),
			wgpu.BufferBindingEntry(1, next.Buffer, 0, next.size()),
			wgpu.BufferBindingEntry(2, params, 0, 16),
		})
		if err != nil {
			return 0, err
		}
		tracer().Debugf("gpu: reduce pass %d -> %d", cur.n, groups)
		cur = next
	}
	out, err := b.download(cur, 1)
	if err != nil {
		return 0, err
	}
	return out[0], nil
}
