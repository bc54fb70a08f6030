//go:build !windows

package gpu

// Backend is the WebGPU device. Without wgpu-native bindings it cannot be
// created.
type Backend struct{}

// New returns ErrUnavailable on this platform.
func New() (*Backend, error) {
	return nil, ErrUnavailable
}

// IsAvailable reports whether a WebGPU adapter can be opened.
func IsAvailable() bool { return false }

// Release is a no-op.
func (b *Backend) Release() {}

// Name returns the backend name.
func (b *Backend) Name() string { return "WebGPU (unavailable)" }

// Reduce returns ErrUnavailable.
func (b *Backend) Reduce(_ []float32, _ Op) (float32, error) {
	return 0, ErrUnavailable
}

// InclusiveScan returns ErrUnavailable.
func (b *Backend) InclusiveScan(_, _ []float32, _ Op) error {
	return ErrUnavailable
}
