// README: Cancellable periodic task driving the movement simulation.
package ride

import (
	"context"
	"sync"
	"time"
)

// Task runs a function on a fixed period until the function reports done,
// the parent context is cancelled, or Stop is called.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// StartPeriodic calls fn every interval. The first call happens one interval
// after start. fn must not call Stop on its own task.
func StartPeriodic(ctx context.Context, interval time.Duration, fn func(context.Context) bool) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(t.done)
		defer cancel()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if fn(ctx) {
					return
				}
			}
		}
	}()
	return t
}

// Stop cancels the task and waits for the loop to exit. Safe to call twice.
func (t *Task) Stop() {
	t.once.Do(t.cancel)
	<-t.done
}

func (t *Task) Done() <-chan struct{} {
	return t.done
}
