package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/orocos/pkg/domain"
	"github.com/aretw0/orocos/pkg/typelib"
)

// Operation is a proxy on one operation exported by a task. Argument types
// the registry knows are resolved when the proxy is created; arguments of
// unknown types are sent as given.
type Operation struct {
	task *TaskContext
	info domain.OperationInfo
	args []*typelib.Type
}

func newOperation(ctx context.Context, t *TaskContext, info domain.OperationInfo) *Operation {
	op := &Operation{task: t, info: info, args: make([]*typelib.Type, len(info.ArgTypes))}
	for i, name := range info.ArgTypes {
		if typ, ok := t.dir.lookupType(ctx, name); ok {
			op.args[i] = typ
		}
	}
	return op
}

// Task returns the owning task.
func (o *Operation) Task() *TaskContext { return o.task }

// Name returns the operation name.
func (o *Operation) Name() string { return o.info.Name }

// Info returns the declaration reported by the component.
func (o *Operation) Info() domain.OperationInfo { return o.info }

func (o *Operation) String() string {
	return fmt.Sprintf("operation %s(%d args)", o.info.Name, len(o.info.ArgTypes))
}

// Call invokes the operation and blocks until it returns. It fails with a
// *domain.TypeMismatchError when the argument count is wrong or an argument
// does not convert to its declared type.
func (o *Operation) Call(ctx context.Context, args ...any) (any, error) {
	if o.info.ArgTypes != nil && len(args) != len(o.info.ArgTypes) {
		return nil, &domain.TypeMismatchError{Name: o.info.Name, Type: o.String(), Value: args,
			Err: fmt.Errorf("expected %d arguments, got %d", len(o.info.ArgTypes), len(args))}
	}

	wire := make([]any, len(args))
	for i, arg := range args {
		wire[i] = arg
		if i >= len(o.args) || o.args[i] == nil {
			continue
		}
		v, err := o.task.dir.types.Convert(o.args[i].Name, arg)
		if err != nil {
			return nil, &domain.TypeMismatchError{Name: o.info.Name, Type: o.args[i].Name, Value: arg, Err: err}
		}
		wire[i] = v
	}

	return call(ctx, o.task, "call_operation", o.info.Name, func(ctx context.Context) (any, error) {
		return o.task.remote.CallOperation(ctx, o.info.Name, wire)
	})
}

// Operations returns proxies on every exported operation, sorted by name.
func (t *TaskContext) Operations(ctx context.Context) ([]*Operation, error) {
	infos, err := call(ctx, t, "operations", "", t.remote.Operations)
	if err != nil {
		return nil, err
	}
	out := make([]*Operation, 0, len(infos))
	for _, info := range infos {
		out = append(out, newOperation(ctx, t, info))
	}
	return out, nil
}

// Operation returns a proxy on the operation called name, or a
// *domain.NotFoundError if the task exports none.
func (t *TaskContext) Operation(ctx context.Context, name string) (*Operation, error) {
	ops, err := t.Operations(ctx)
	if err != nil {
		return nil, err
	}
	for _, op := range ops {
		if op.Name() == name {
			return op, nil
		}
	}
	return nil, &domain.NotFoundError{Kind: "operation", Name: name, Task: t.Name()}
}

// HasOperation reports whether the task exports an operation called name.
func (t *TaskContext) HasOperation(ctx context.Context, name string) (bool, error) {
	_, err := t.Operation(ctx, name)
	if err == nil {
		return true, nil
	}
	var nf *domain.NotFoundError
	if errors.As(err, &nf) && nf.Kind == "operation" {
		return false, nil
	}
	return false, err
}

// Call looks up the operation called name and invokes it with args.
func (t *TaskContext) Call(ctx context.Context, name string, args ...any) (any, error) {
	op, err := t.Operation(ctx, name)
	if err != nil {
		return nil, err
	}
	return op.Call(ctx, args...)
}
