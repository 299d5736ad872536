package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/orocos/pkg/domain"
	"github.com/aretw0/orocos/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", observability.Outcome(nil))
	assert.Equal(t, "not_found", observability.Outcome(&domain.NotFoundError{Kind: "port", Name: "x"}))
	assert.Equal(t, "refused", observability.Outcome(&domain.StateTransitionError{Task: "a", Transition: "start"}))
	assert.Equal(t, "type_mismatch", observability.Outcome(&domain.TypeMismatchError{Name: "gain"}))
	assert.Equal(t, "unreachable", observability.Outcome(&domain.TransportError{Task: "a", Op: "state", Err: domain.ErrCommunication}))
	assert.Equal(t, "error", observability.Outcome(assert.AnError))
}

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnReturn(ctx, &domain.CallEvent{Task: "nav", Operation: "state", Duration: time.Millisecond})
	hooks.OnReturn(ctx, &domain.CallEvent{Task: "nav", Operation: "state", Duration: time.Millisecond})
	hooks.OnReturn(ctx, &domain.CallEvent{Task: "nav", Operation: "start", Err: &domain.StateTransitionError{Task: "nav", Transition: "start"}})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Calls().WithLabelValues("nav", "state", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Calls().WithLabelValues("nav", "start", "refused")))

	_, err = observability.NewMetrics(reg)
	assert.Error(t, err, "collectors cannot be registered twice")
}

func TestMetrics_ObserveState(t *testing.T) {
	m, err := observability.NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.ObserveState("nav", domain.StateRunning)
	m.ObserveState("nav", domain.StateRuntimeError)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.States().WithLabelValues("nav", "RUNTIME_ERROR")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.States().WithLabelValues("nav", "RUNNING")))
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := observability.LogHooks(logger)
	ctx := context.Background()

	hooks.OnReturn(ctx, &domain.CallEvent{Task: "nav", Operation: "read_attribute", Member: "gain"})
	hooks.OnReturn(ctx, &domain.CallEvent{Task: "nav", Operation: "state", Err: assert.AnError})

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG msg=\"task call\" task=nav operation=read_attribute")
	assert.Contains(t, out, "member=gain")
	assert.Contains(t, out, "level=WARN msg=\"task call failed\" task=nav operation=state")
}
