package domain_test

import (
	"testing"

	"github.com/aretw0/orocos/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskState_Predicates(t *testing.T) {
	tests := []struct {
		state   domain.TaskState
		running bool
		ready   bool
		err     bool
	}{
		{domain.StatePreOperational, false, false, false},
		{domain.StateFatalError, false, true, true},
		{domain.StateStopped, false, true, false},
		{domain.StateActive, false, true, false},
		{domain.StateRunning, true, true, false},
		{domain.StateRuntimeWarning, true, true, false},
		{domain.StateRuntimeError, true, true, true},
	}
	require.Len(t, tests, len(domain.States), "every state must be covered")

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			assert.Equal(t, tt.running, tt.state.Running(), "running")
			assert.Equal(t, tt.ready, tt.state.Ready(), "ready")
			assert.Equal(t, tt.err, tt.state.Error(), "error")
		})
	}
}

func TestTaskState_ParseRoundTrip(t *testing.T) {
	for _, s := range domain.States {
		parsed, err := domain.ParseTaskState(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	_, err := domain.ParseTaskState("SLEEPING")
	assert.Error(t, err)
	assert.Equal(t, "UNKNOWN(42)", domain.TaskState(42).String())
}

func TestTransition_SourceStates(t *testing.T) {
	allowed := map[domain.Transition][]domain.TaskState{
		domain.TransitionConfigure: {domain.StatePreOperational},
		domain.TransitionStart:     {domain.StateStopped},
		domain.TransitionStop:      {domain.StateRunning, domain.StateRuntimeWarning, domain.StateRuntimeError},
		domain.TransitionCleanup:   {domain.StateStopped},
	}
	for tr, from := range allowed {
		for _, s := range domain.States {
			assert.Equal(t, contains(from, s), tr.AllowedFrom(s), "%s from %s", tr, s)
		}
	}

	assert.Equal(t, domain.StateStopped, domain.TransitionConfigure.Target())
	assert.Equal(t, domain.StateRunning, domain.TransitionStart.Target())
	assert.Equal(t, domain.StateStopped, domain.TransitionStop.Target())
	assert.Equal(t, domain.StatePreOperational, domain.TransitionCleanup.Target())
	assert.False(t, domain.TransitionStop.Refusable())
}

func contains(states []domain.TaskState, s domain.TaskState) bool {
	for _, x := range states {
		if x == s {
			return true
		}
	}
	return false
}
