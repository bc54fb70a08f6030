package device

import (
	"context"
	"fmt"
	"time"
)

// PhaseEvent reports a finished kernel launch.
type PhaseEvent struct {
	Algorithm string
	Phase     string
	Groups    int
	GroupSize int
	Barriers  int
	Elapsed   time.Duration
	Err       error
}

func (e PhaseEvent) String() string {
	status := "ok"
	if e.Err != nil {
		status = e.Err.Error()
	}
	return fmt.Sprintf("%s/%s groups=%d×%d barriers=%d %v %s",
		e.Algorithm, e.Phase, e.Groups, e.GroupSize, e.Barriers, e.Elapsed, status)
}

// Subscribe returns a channel receiving every PhaseEvent published after the
// call. The channel is closed when ctx is done or the device is closed.
// Events are dropped for subscribers whose buffer of capacity is full.
func (d *Device) Subscribe(ctx context.Context, capacity uint) (<-chan PhaseEvent, bool) {
	raw, ok := d.cast.Sub(ctx, capacity)
	if !ok {
		return nil, false
	}
	events := make(chan PhaseEvent, capacity)
	go func() {
		defer close(events)
		for msg := range raw {
			if ev, ok := msg.(PhaseEvent); ok {
				select {
				case events <- ev:
				default:
				}
			}
		}
	}()
	return events, true
}

func (d *Device) publish(ev PhaseEvent) {
	d.cast.TryPub(ev)
}
