// Package device emulates the data-parallel machine the engines target.
//
// A kernel launch runs a number of groups, each a fixed number of lanes that
// execute in lock-step and synchronize through Group.Barrier and the
// collectives of package collective. Groups of one launch run concurrently in
// no particular order. Launch returns only after every group finished, which
// is the only ordering edge between phases.
//
// Scratch memory is handed out as typed Buffers accounted against the
// device's scratch budget.
package device

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'segscan'
func tracer() tracing.Trace {
	return tracing.Select("segscan")
}
