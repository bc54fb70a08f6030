// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package segscan

import (
	"context"
	"errors"

	"github.com/born-ml/segscan/internal/device"
	"github.com/born-ml/segscan/internal/tiling"
)

// Config describes the device an Engine runs on.
type Config = device.Config

// PhaseEvent reports one finished kernel phase.
type PhaseEvent = device.PhaseEvent

// Plan is the launch schedule of a reduction.
type Plan = tiling.Plan

// Tier is the reduction strategy of a Plan.
type Tier = tiling.Tier

// Reduction tiers.
const (
	TierSmall     = tiling.Small
	TierMid       = tiling.Mid
	TierLarge     = tiling.Large
	TierRecursive = tiling.Recursive
)

var (
	// ErrOutOfMemory is returned when an algorithm's scratch does not fit the
	// configured budget.
	ErrOutOfMemory = device.ErrOutOfMemory

	// ErrLaunchFailed is returned when a kernel phase faulted, for example
	// because the combine operator panicked.
	ErrLaunchFailed = device.ErrLaunchFailed

	// ErrEmptyInput is returned by Reduce for an empty input when the
	// operator has no identity to return.
	ErrEmptyInput = errors.New("segscan: empty input")
)

// DefaultConfig returns a device configuration sized for the host.
func DefaultConfig() Config {
	return device.DefaultConfig()
}

// Engine runs algorithms on one device. An Engine is safe for concurrent use;
// every call owns its scratch memory.
type Engine struct {
	dev *device.Device
}

// New creates an engine. Zero fields of cfg take their default values.
func New(cfg Config) *Engine {
	return &Engine{dev: device.New(cfg)}
}

// Config returns the effective device configuration.
func (e *Engine) Config() Config { return e.dev.Config() }

// Subscribe returns a channel of the PhaseEvents of all later calls.
// See device.Device.Subscribe.
func (e *Engine) Subscribe(ctx context.Context, capacity uint) (<-chan PhaseEvent, bool) {
	return e.dev.Subscribe(ctx, capacity)
}

// ScratchPeak returns the largest scratch footprint seen so far, in bytes.
func (e *Engine) ScratchPeak() int64 { return e.dev.Peak() }

// Launches returns the number of kernel phases launched so far.
func (e *Engine) Launches() int64 { return e.dev.Launches() }

// Close releases the engine's event subscribers.
func (e *Engine) Close() { e.dev.Close() }

// PlanReduce returns the schedule Reduce would use for n elements.
func PlanReduce(e *Engine, n int, opts ...Option) Plan {
	o := collect(opts)
	return tiling.Select(n, e.Config().GroupSize, o.itersPerItem)
}
