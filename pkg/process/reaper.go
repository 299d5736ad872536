package process

import (
	"log/slog"
	"sync"

	"github.com/aretw0/orocos/internal/logging"
)

// Reaper collects the registered child processes once they terminate and
// marks their handle dead.
type Reaper struct {
	set    *Set
	logger *slog.Logger

	mu      sync.Mutex
	started bool
	closed  bool
	stop    chan struct{}
	stopped chan struct{}
}

// ReaperOption configures the reaper.
type ReaperOption func(*Reaper)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ReaperOption {
	return func(r *Reaper) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewReaper creates a reaper for the processes of set. It does nothing until
// Start is called.
func NewReaper(set *Set, opts ...ReaperOption) *Reaper {
	r := &Reaper{
		set:     set,
		logger:  logging.NewNop(),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Stop uninstalls the handler and waits for the reaping goroutine to exit.
// It is safe to call Stop more than once, and without Start.
func (r *Reaper) Stop() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.stop)
	}
	started := r.started
	r.mu.Unlock()

	if started {
		<-r.stopped
	}
}

// Start installs the handler. Calls after the first, or after Stop, are
// no-ops.
func (r *Reaper) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || r.closed {
		return
	}
	r.started = true
	r.run()
}

func (r *Reaper) record(pid int, status ExitStatus) {
	if r.set.Reap(pid, status) {
		r.logger.Info("deployment process died", "pid", pid, "status", status.String())
	}
}
