package device

import (
	"fmt"
	"unsafe"
)

// Buffer is a device-resident scratch arena of fixed-size records.
// Records are indexed by group id (or any other dense index); a record is
// written by one phase and read by later ones.
type Buffer[T any] struct {
	data  []T
	bytes int64
	dev   *Device
}

// Alloc reserves a scratch buffer of n records.
func Alloc[T any](d *Device, n int) (*Buffer[T], error) {
	var zero T
	//nolint:gosec // G115: record sizes and counts are non-negative.
	size := int64(unsafe.Sizeof(zero)) * int64(n)
	if err := d.reserve(size); err != nil {
		return nil, fmt.Errorf("alloc %d records of %T: %w", n, zero, err)
	}
	return &Buffer[T]{data: make([]T, n), bytes: size, dev: d}, nil
}

// Len returns the number of records.
func (b *Buffer[T]) Len() int { return len(b.data) }

// Data exposes the records for indexed access.
func (b *Buffer[T]) Data() []T { return b.data }

// Release returns the buffer's bytes to the device. Releasing twice is a no-op.
func (b *Buffer[T]) Release() {
	if b == nil || b.dev == nil {
		return
	}
	b.dev.unreserve(b.bytes)
	b.dev = nil
	b.data = nil
}
