package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/guiguan/caster"

	"github.com/born-ml/segscan/internal/parallel"
)

// Kernel is one phase of an algorithm.
type Kernel struct {
	Algorithm string // Algorithm the phase belongs to, for events and traces.
	Name      string // Phase name.
	Groups    int    // Number of groups to launch.
	Body      func(g *Group)
}

// Device executes kernels on a set of goroutines.
type Device struct {
	cfg  Config
	cast *caster.Caster

	mu    sync.Mutex
	inUse int64
	peak  int64

	launches atomic.Int64
}

// New creates a device. Zero fields of cfg take their DefaultConfig values.
func New(cfg Config) *Device {
	return &Device{
		cfg:  cfg.normalize(),
		cast: caster.New(nil),
	}
}

// Config returns the effective device configuration.
func (d *Device) Config() Config { return d.cfg }

// Launch runs k and blocks until every group finished.
//
// ctx is only consulted before the launch: once started, a phase always runs
// to completion. A fault in any group fails the whole launch with
// ErrLaunchFailed.
func (d *Device) Launch(ctx context.Context, k Kernel) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s/%s not launched: %w", k.Algorithm, k.Name, err)
	}
	if k.Groups <= 0 {
		return nil
	}
	d.launches.Add(1)

	var barriers atomic.Int64
	pcfg := parallel.Config{Enabled: d.cfg.Workers > 1, NumWorkers: d.cfg.Workers}
	start := time.Now()
	err := parallel.ForEach(k.Groups, func(id int) error {
		g := &Group{id: id, size: d.cfg.GroupSize, groups: k.Groups, subSize: d.cfg.SubGroupSize}
		k.Body(g)
		barriers.Add(int64(g.barriers))
		return nil
	}, pcfg)

	ev := PhaseEvent{
		Algorithm: k.Algorithm,
		Phase:     k.Name,
		Groups:    k.Groups,
		GroupSize: d.cfg.GroupSize,
		Barriers:  int(barriers.Load()),
		Elapsed:   time.Since(start),
	}
	if err != nil {
		var pe *parallel.PanicError
		if errors.As(err, &pe) {
			err = fmt.Errorf("%w: %s/%s group %d: %v", ErrLaunchFailed, k.Algorithm, k.Name, pe.Task, pe.Value)
		} else {
			err = fmt.Errorf("%w: %s/%s: %w", ErrLaunchFailed, k.Algorithm, k.Name, err)
		}
		ev.Err = err
		tracer().Errorf("%v", ev)
	} else {
		tracer().Debugf("%v", ev)
	}
	d.publish(ev)
	return err
}

// Launches returns the number of kernels launched so far.
func (d *Device) Launches() int64 { return d.launches.Load() }

// InUse returns the number of scratch bytes currently allocated.
func (d *Device) InUse() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inUse
}

// Peak returns the largest number of scratch bytes allocated at once.
func (d *Device) Peak() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.peak
}

// Close stops event delivery. Subscriber channels are closed.
func (d *Device) Close() {
	d.cast.Close()
}

func (d *Device) reserve(n int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cfg.MaxScratchBytes > 0 && d.inUse+n > d.cfg.MaxScratchBytes {
		return fmt.Errorf("%w: need %d bytes, %d of %d in use",
			ErrOutOfMemory, n, d.inUse, d.cfg.MaxScratchBytes)
	}
	d.inUse += n
	d.peak = max(d.peak, d.inUse)
	return nil
}

func (d *Device) unreserve(n int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inUse -= n
}
