// Package scheduler runs periodic maintenance independently of request
// traffic: a fixed-interval ticker drives a task until the handle is
// cancelled. Cancellation is cooperative — an in-flight tick always runs to
// completion, and no further ticks are scheduled after it.
package scheduler

import (
	"context"
	"sync"
	"time"
)

// Task is one unit of periodic work.
type Task func(ctx context.Context)

// Handle controls a started schedule.
type Handle struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// Start runs task every interval until Cancel is called. The first run
// happens one interval after Start, not immediately.
func Start(interval time.Duration, task Task) *Handle {
	h := &Handle{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go h.run(interval, task)
	return h
}

func (h *Handle) run(interval time.Duration, task Task) {
	defer close(h.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			// The tick's context is independent of the handle so a Cancel
			// arriving mid-run never interrupts partially issued work.
			task(context.Background())
		}
	}
}

// Cancel stops future ticks and waits for any in-flight tick to finish.
// Safe to call during a run and safe to call more than once.
func (h *Handle) Cancel() {
	h.once.Do(func() { close(h.stop) })
	<-h.done
}
