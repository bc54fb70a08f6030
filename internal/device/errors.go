package device

import "errors"

var (
	// ErrOutOfMemory is returned when a scratch allocation exceeds the budget.
	ErrOutOfMemory = errors.New("device: out of scratch memory")

	// ErrLaunchFailed is returned when a group of a phase faulted.
	ErrLaunchFailed = errors.New("device: kernel launch failed")
)
