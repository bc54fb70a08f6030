// Package parallel provides the goroutine fan-out used to execute the groups
// of a device phase.
package parallel

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Config controls how many goroutines execute tasks.
type Config struct {
	Enabled    bool // Whether tasks may run concurrently.
	NumWorkers int  // Number of worker goroutines to use.
}

// DefaultConfig returns one worker per CPU.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:    n > 1,
		NumWorkers: n,
	}
}

// PanicError carries a panic recovered from a task.
type PanicError struct {
	Task  int
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task %d panicked: %v", e.Task, e.Value)
}

// ForEach executes f(i) for every i in [0, n) and waits for all of them.
//
// Workers claim indices with an atomic counter, so tasks of uneven cost are
// balanced. Every task runs even if another one failed; the first error in
// completion order is returned. A panicking task is reported as *PanicError.
func ForEach(n int, f func(i int) error, cfg Config) error {
	if n <= 0 {
		return nil
	}
	workers := 1
	if cfg.Enabled {
		workers = min(max(cfg.NumWorkers, 1), n)
	}

	var next atomic.Int64
	var g errgroup.Group
	for range workers {
		g.Go(func() error {
			var first error
			for {
				i := int(next.Add(1)) - 1
				if i >= n {
					return first
				}
				if err := run(i, f); err != nil && first == nil {
					first = err
				}
			}
		})
	}
	return g.Wait()
}

func run(i int, f func(i int) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Task: i, Value: r}
		}
	}()
	return f(i)
}
