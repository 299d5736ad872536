package domain

import (
	"context"
	"time"
)

// CallEvent describes one remote call issued by a task proxy.
type CallEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Task      string        `json:"task"`
	Operation string        `json:"operation"`
	Member    string        `json:"member,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Err       error         `json:"-"`
}

// CallHooks defines callbacks for proxy observability.
type CallHooks struct {
	OnCall   func(context.Context, *CallEvent)
	OnReturn func(context.Context, *CallEvent)
}

// Merge returns hooks that run h first, then other.
func (h CallHooks) Merge(other CallHooks) CallHooks {
	return CallHooks{
		OnCall:   chain(h.OnCall, other.OnCall),
		OnReturn: chain(h.OnReturn, other.OnReturn),
	}
}

func chain(a, b func(context.Context, *CallEvent)) func(context.Context, *CallEvent) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *CallEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
