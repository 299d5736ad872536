package domain

import (
	"fmt"
	"strings"
)

// TaskState is the lifecycle state of a remote task context.
type TaskState int

const (
	StatePreOperational TaskState = iota
	StateFatalError
	StateStopped
	StateActive
	StateRunning
	StateRuntimeWarning
	StateRuntimeError
)

// States lists every defined state, in declaration order.
var States = []TaskState{
	StatePreOperational,
	StateFatalError,
	StateStopped,
	StateActive,
	StateRunning,
	StateRuntimeWarning,
	StateRuntimeError,
}

var stateNames = map[TaskState]string{
	StatePreOperational: "PRE_OPERATIONAL",
	StateFatalError:     "FATAL_ERROR",
	StateStopped:        "STOPPED",
	StateActive:         "ACTIVE",
	StateRunning:        "RUNNING",
	StateRuntimeWarning: "RUNTIME_WARNING",
	StateRuntimeError:   "RUNTIME_ERROR",
}

func (s TaskState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(s))
}

// ParseTaskState is the inverse of String.
func ParseTaskState(name string) (TaskState, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for s, n := range stateNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown task state %q", name)
}

// Running is true for states in which the component executes code, including
// the runtime error sub-states.
func (s TaskState) Running() bool {
	switch s {
	case StateRunning, StateRuntimeWarning, StateRuntimeError:
		return true
	}
	return false
}

// Ready is true once the component has been configured.
func (s TaskState) Ready() bool { return s != StatePreOperational }

// Error is true for the runtime and fatal error states.
func (s TaskState) Error() bool {
	return s == StateRuntimeError || s == StateFatalError
}

// Transition names a lifecycle operation.
type Transition string

const (
	TransitionConfigure Transition = "configure"
	TransitionStart     Transition = "start"
	TransitionStop      Transition = "stop"
	TransitionCleanup   Transition = "cleanup"
)

// Transitions lists the lifecycle operations.
var Transitions = []Transition{TransitionConfigure, TransitionStart, TransitionStop, TransitionCleanup}

// ParseTransition validates a transition name.
func ParseTransition(name string) (Transition, error) {
	for _, t := range Transitions {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown transition %q", name)
}

// AllowedFrom reports whether the transition may be attempted from state s.
func (t Transition) AllowedFrom(s TaskState) bool {
	switch t {
	case TransitionConfigure:
		return s == StatePreOperational
	case TransitionStart:
		return s == StateStopped
	case TransitionStop:
		return s.Running()
	case TransitionCleanup:
		return s == StateStopped
	}
	return false
}

// Target returns the state reached by a successful transition.
func (t Transition) Target() TaskState {
	switch t {
	case TransitionConfigure, TransitionStop:
		return StateStopped
	case TransitionStart:
		return StateRunning
	default:
		return StatePreOperational
	}
}

// Refusable is false for transitions the component cannot decline once it is
// in a valid source state.
func (t Transition) Refusable() bool {
	return t == TransitionConfigure || t == TransitionStart
}
