package cli

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// ShutdownContext is cancelled on SIGINT or SIGTERM, or by Stop, and records
// the signal that arrived.
type ShutdownContext struct {
	context.Context
	cancel context.CancelFunc
	sig    atomic.Value
}

// NewShutdownContext starts listening for SIGINT and SIGTERM until the
// returned context is done.
func NewShutdownContext(parent context.Context) *ShutdownContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &ShutdownContext{Context: ctx, cancel: cancel}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(ch)
		select {
		case sig := <-ch:
			sc.sig.Store(sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return sc
}

// Stop cancels the context and stops listening for signals.
func (sc *ShutdownContext) Stop() { sc.cancel() }

// Signal returns the signal that cancelled the context, or nil.
func (sc *ShutdownContext) Signal() os.Signal {
	sig, _ := sc.sig.Load().(os.Signal)
	return sig
}
