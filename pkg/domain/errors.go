package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is the kind of every lookup failure (task model, task, port,
	// attribute, capability match).
	ErrNotFound = errors.New("not found")

	// ErrStateTransition is returned when a lifecycle operation is attempted from
	// the wrong state or refused by the remote component.
	ErrStateTransition = errors.New("state transition failed")

	// ErrInternalInconsistency signals that discovered metadata contradicts a
	// parsed definition (e.g. a library claims a model it does not define).
	ErrInternalInconsistency = errors.New("internal inconsistency")

	// ErrTransport is the kind of transport failures that have no better mapping.
	ErrTransport = errors.New("transport error")

	// ErrCommunication is reported by transports when the remote side could not
	// be reached at all (connection refused, transient failure).
	ErrCommunication = errors.New("communication failure")

	// ErrTypeMismatch is returned when a value cannot be converted to the type of
	// an attribute or port.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrInternal is returned when local type information is missing.
	ErrInternal = errors.New("internal error")

	// ErrNotModelDescribed is returned by operations that need the deployment
	// description of a task that was not started from a known deployment.
	ErrNotModelDescribed = errors.New("task is not described by a known deployment")

	// ErrNoSuchMember is returned by the dynamic accessors when a name matches
	// neither a port nor an attribute.
	ErrNoSuchMember = errors.New("no such member")
)

// NotFoundError reports a name that does not resolve.
type NotFoundError struct {
	Kind       string   // "task model", "task", "port", "attribute", "operation", "capability"
	Name       string   // The requested name
	Task       string   // Owning task, if any
	Candidates []string // Ambiguous matches, if more than one
	Err        error    // Underlying cause, if any
}

func (e *NotFoundError) Error() string {
	var b strings.Builder
	switch {
	case len(e.Candidates) > 1:
		fmt.Fprintf(&b, "more than one task implements %s: %s", e.Name, strings.Join(e.Candidates, ", "))
	case e.Kind == "capability":
		fmt.Fprintf(&b, "no task implements %s", e.Name)
	default:
		fmt.Fprintf(&b, "no %s named '%s'", e.Kind, e.Name)
	}
	if e.Task != "" {
		fmt.Fprintf(&b, " on task '%s'", e.Task)
	}
	if e.Err != nil && !errors.Is(e.Err, ErrNotFound) {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *NotFoundError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNotFound}
	}
	return []error{ErrNotFound, e.Err}
}

// StateTransitionError reports a refused lifecycle transition.
type StateTransitionError struct {
	Task       string
	Transition string
	Err        error
}

func (e *StateTransitionError) Error() string {
	msg := fmt.Sprintf("task '%s': %s refused", e.Task, e.Transition)
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *StateTransitionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrStateTransition}
	}
	return []error{ErrStateTransition, e.Err}
}

// InternalInconsistencyError reports a catalog entry that disagrees with the
// parsed definition it points to.
type InternalInconsistencyError struct {
	Library string
	Model   string
}

func (e *InternalInconsistencyError) Error() string {
	return fmt.Sprintf("while looking up model of %s: found project %s, but this project does not actually have a task model called %s",
		e.Model, e.Library, e.Model)
}

func (e *InternalInconsistencyError) Unwrap() error { return ErrInternalInconsistency }

// TransportError wraps a remote-call failure that has no domain mapping.
type TransportError struct {
	Task string
	Op   string
	Err  error
}

func (e *TransportError) Error() string {
	if e.Task == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("task '%s': %s: %v", e.Task, e.Op, e.Err)
}

func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }

// TypeMismatchError reports a value that cannot be converted to a type.
type TypeMismatchError struct {
	Name  string // Attribute or port name
	Type  string // Resolved type name
	Value any
	Err   error
}

func (e *TypeMismatchError) Error() string {
	msg := fmt.Sprintf("cannot convert %T to %s for '%s'", e.Value, e.Type, e.Name)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TypeMismatchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTypeMismatch}
	}
	return []error{ErrTypeMismatch, e.Err}
}

// InternalError reports missing local type information.
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string { return e.Msg }

func (e *InternalError) Unwrap() error { return ErrInternal }
