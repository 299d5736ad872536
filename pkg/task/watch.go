package task

import (
	"context"
	"time"

	"github.com/aretw0/orocos/pkg/domain"
)

// DefaultWatchInterval is the polling period of Watch.
const DefaultWatchInterval = 100 * time.Millisecond

// WatchEvent reports the state of one watched task.
type WatchEvent struct {
	Task    string
	State   domain.TaskState
	Initial bool // First report for this task
	Err     error
}

// Watch polls the state of tasks and reports the initial state of each, then
// every change, until ctx is done. Poll failures are reported and do not stop
// the watch.
func Watch(ctx context.Context, interval time.Duration, report func(WatchEvent), tasks ...*TaskContext) error {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}

	initial := make(map[*TaskContext]bool, len(tasks))
	poll := func() {
		for _, t := range tasks {
			changed, state, err := t.StateChanged(ctx)
			if err != nil {
				report(WatchEvent{Task: t.Name(), Err: err})
				continue
			}
			if changed {
				report(WatchEvent{Task: t.Name(), State: state, Initial: !initial[t]})
				initial[t] = true
			}
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	poll()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			poll()
		}
	}
}
