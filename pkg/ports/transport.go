package ports

import (
	"context"

	"github.com/aretw0/orocos/pkg/domain"
)

// Transport binds task names to remote task handles.
type Transport interface {
	// Connect returns a handle on the task registered under name at endpoint.
	// Returns an error wrapping domain.ErrNotFound if nothing answers for name.
	Connect(ctx context.Context, name, endpoint string) (RemoteTask, error)
}

// RemoteTask is the remote-call surface of one component instance. Every
// method is a blocking round-trip.
//
// Lifecycle methods return false (and no error) when the component refused
// the transition, and an error wrapping domain.ErrStateTransition when the
// component was not in a valid source state.
type RemoteTask interface {
	Name() string

	// ModelName returns the task model name the component reports, or "" if it
	// does not report one.
	ModelName(ctx context.Context) (string, error)

	State(ctx context.Context) (domain.TaskState, error)
	Configure(ctx context.Context) (bool, error)
	Start(ctx context.Context) (bool, error)
	Stop(ctx context.Context) (bool, error)
	Cleanup(ctx context.Context) (bool, error)

	HasPort(ctx context.Context, name string) (bool, error)
	Port(ctx context.Context, name string) (domain.PortInfo, error)
	Ports(ctx context.Context) ([]domain.PortInfo, error)

	// ReadPort returns the last sample written on a port; ok is false when no
	// sample is available yet.
	ReadPort(ctx context.Context, name string) (value any, ok bool, err error)
	WritePort(ctx context.Context, name string, value any) error

	Attribute(ctx context.Context, name string) (domain.AttributeInfo, error)
	Attributes(ctx context.Context) ([]domain.AttributeInfo, error)

	ReadAttribute(ctx context.Context, name string) (any, error)
	WriteAttribute(ctx context.Context, name string, value any) error
	ReadAttributeString(ctx context.Context, name string) (string, error)
	WriteAttributeString(ctx context.Context, name, value string) error

	Operations(ctx context.Context) ([]domain.OperationInfo, error)

	// CallOperation invokes an exported operation and blocks until it returns.
	// Returns an error wrapping domain.ErrTypeMismatch when the argument count
	// does not match the declaration.
	CallOperation(ctx context.Context, name string, args []any) (any, error)
}
