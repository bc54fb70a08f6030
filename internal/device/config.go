package device

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// Config describes the emulated device.
type Config struct {
	Workers         int   // Goroutines executing groups concurrently.
	GroupSize       int   // Lanes per group.
	SubGroupSize    int   // Lanes per lane-group (sub-group).
	VectorSize      int   // Preferred number of elements per vector load.
	MaxScratchBytes int64 // Scratch budget; 0 means unlimited.
}

// DefaultConfig returns a device sized for the host CPU.
func DefaultConfig() Config {
	return Config{
		Workers:      runtime.NumCPU(),
		GroupSize:    256,
		SubGroupSize: 32,
		VectorSize:   hostVectorSize(),
	}
}

// hostVectorSize picks the float32 lane count of the widest SIMD unit.
func hostVectorSize() int {
	switch {
	case cpu.X86.HasAVX512F:
		return 16
	case cpu.X86.HasAVX2:
		return 8
	default:
		return 4
	}
}

// normalize fills unset fields with defaults and clamps the sub-group width
// to the group size.
func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	if c.GroupSize <= 0 {
		c.GroupSize = def.GroupSize
	}
	if c.SubGroupSize <= 0 {
		c.SubGroupSize = def.SubGroupSize
	}
	c.SubGroupSize = min(c.SubGroupSize, c.GroupSize)
	if c.VectorSize <= 0 {
		c.VectorSize = def.VectorSize
	}
	return c
}
