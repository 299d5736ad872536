package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/orocos/pkg/domain"
	"github.com/aretw0/orocos/pkg/ports"
	"github.com/aretw0/orocos/pkg/process"
)

// TaskContext is a proxy on one remote component instance. Its state is
// fetched on every call; only port proxies are cached.
type TaskContext struct {
	dir     *Directory
	remote  ports.RemoteTask
	process *process.Process
	ports   map[string]*Port

	lastState domain.TaskState
	seenState bool
}

func newTaskContext(dir *Directory, remote ports.RemoteTask, proc *process.Process) *TaskContext {
	return &TaskContext{
		dir:     dir,
		remote:  remote,
		process: proc,
		ports:   make(map[string]*Port),
	}
}

// Name returns the name of the task.
func (t *TaskContext) Name() string { return t.remote.Name() }

// Process returns the local process hosting the task, or nil if unknown.
func (t *TaskContext) Process() *process.Process { return t.process }

// call runs one remote call through the translation boundary, firing the
// directory's hooks around it.
func call[T any](ctx context.Context, t *TaskContext, op, member string, fn func(context.Context) (T, error)) (T, error) {
	event := &domain.CallEvent{Timestamp: time.Now(), Task: t.Name(), Operation: op, Member: member}
	if t.dir.hooks.OnCall != nil {
		t.dir.hooks.OnCall(ctx, event)
	}

	result, err := fn(ctx)
	err = t.translate(op, member, err)

	if t.dir.hooks.OnReturn != nil {
		event.Duration = time.Since(event.Timestamp)
		event.Err = err
		t.dir.hooks.OnReturn(ctx, event)
	}
	return result, err
}

// call0 adapts calls that only return an error.
func call0(ctx context.Context, t *TaskContext, op, member string, fn func(context.Context) error) error {
	_, err := call(ctx, t, op, member, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// translate maps a transport failure onto the domain error taxonomy.
func (t *TaskContext) translate(op, member string, err error) error {
	if err == nil {
		return nil
	}

	var (
		nf *domain.NotFoundError
		st *domain.StateTransitionError
		tm *domain.TypeMismatchError
		te *domain.TransportError
	)
	switch {
	case errors.As(err, &nf):
		if nf.Task == "" && nf.Kind != "task" {
			tagged := *nf
			tagged.Task = t.Name()
			return &tagged
		}
		return nf
	case errors.As(err, &st):
		return st
	case errors.As(err, &tm):
		return tm
	case errors.Is(err, domain.ErrNotFound):
		return &domain.NotFoundError{Kind: memberKind(op), Name: member, Task: t.Name(), Err: err}
	case errors.Is(err, domain.ErrStateTransition):
		return &domain.StateTransitionError{Task: t.Name(), Transition: op, Err: err}
	case errors.Is(err, domain.ErrTypeMismatch):
		return &domain.TypeMismatchError{Name: member, Err: err}
	case errors.As(err, &te) && te.Task != "":
		return te
	}
	return &domain.TransportError{Task: t.Name(), Op: op, Err: err}
}

func memberKind(op string) string {
	switch op {
	case "port", "has_port", "read_port", "write_port":
		return "port"
	case "attribute", "read_attribute", "write_attribute", "read_attribute_string", "write_attribute_string":
		return "attribute"
	case "operations", "call_operation":
		return "operation"
	}
	return "task"
}

// State returns the current lifecycle state of the task.
func (t *TaskContext) State(ctx context.Context) (domain.TaskState, error) {
	return call(ctx, t, "state", "", t.remote.State)
}

// Running reports whether the task executes code, runtime error states
// included.
func (t *TaskContext) Running(ctx context.Context) (bool, error) {
	s, err := t.State(ctx)
	return err == nil && s.Running(), err
}

// Ready reports whether the task has been configured.
func (t *TaskContext) Ready(ctx context.Context) (bool, error) {
	s, err := t.State(ctx)
	return err == nil && s.Ready(), err
}

// Error reports whether the task is in a runtime or fatal error state.
func (t *TaskContext) Error(ctx context.Context) (bool, error) {
	s, err := t.State(ctx)
	return err == nil && s.Error(), err
}

// StateChanged polls the state and reports whether it differs from the one
// seen by the previous call. The first call always reports a change.
func (t *TaskContext) StateChanged(ctx context.Context) (bool, domain.TaskState, error) {
	s, err := t.State(ctx)
	if err != nil {
		return false, s, err
	}
	changed := !t.seenState || s != t.lastState
	t.lastState, t.seenState = s, true
	return changed, s, nil
}

func (t *TaskContext) transition(ctx context.Context, tr domain.Transition, fn func(context.Context) (bool, error)) error {
	ok, err := call(ctx, t, string(tr), "", fn)
	if err != nil {
		return err
	}
	if !ok {
		if !tr.Refusable() {
			t.dir.logger.Debug("ignoring refusal of a non-refusable transition", "task", t.Name(), "transition", string(tr))
			return nil
		}
		return &domain.StateTransitionError{Task: t.Name(), Transition: string(tr)}
	}
	return nil
}

// Configure moves the task from PRE_OPERATIONAL to STOPPED. It fails with a
// *domain.StateTransitionError if the task was in another state or refused.
func (t *TaskContext) Configure(ctx context.Context) error {
	return t.transition(ctx, domain.TransitionConfigure, t.remote.Configure)
}

// Start moves the task from STOPPED to RUNNING. It fails with a
// *domain.StateTransitionError if the task was in another state or refused.
func (t *TaskContext) Start(ctx context.Context) error {
	return t.transition(ctx, domain.TransitionStart, t.remote.Start)
}

// Stop moves a running task back to STOPPED. The task cannot refuse, but may
// take arbitrarily long.
func (t *TaskContext) Stop(ctx context.Context) error {
	return t.transition(ctx, domain.TransitionStop, t.remote.Stop)
}

// Cleanup moves the task from STOPPED to PRE_OPERATIONAL.
func (t *TaskContext) Cleanup(ctx context.Context) error {
	return t.transition(ctx, domain.TransitionCleanup, t.remote.Cleanup)
}

// Apply runs the named transition.
func (t *TaskContext) Apply(ctx context.Context, tr domain.Transition) error {
	switch tr {
	case domain.TransitionConfigure:
		return t.Configure(ctx)
	case domain.TransitionStart:
		return t.Start(ctx)
	case domain.TransitionStop:
		return t.Stop(ctx)
	case domain.TransitionCleanup:
		return t.Cleanup(ctx)
	}
	return fmt.Errorf("unknown transition %q", tr)
}

// Info returns the deployment declaration of this task. It is available only
// when the hosting process was started from a known deployment.
func (t *TaskContext) Info(ctx context.Context) (domain.TaskActivity, error) {
	if t.process == nil || t.process.Deployment == nil {
		return domain.TaskActivity{}, fmt.Errorf("task '%s': %w", t.Name(), domain.ErrNotModelDescribed)
	}
	act, ok := t.process.Deployment.Activity(t.Name())
	if !ok {
		return domain.TaskActivity{}, fmt.Errorf("task '%s' is not declared by deployment %s: %w",
			t.Name(), t.process.Deployment.Name, domain.ErrNotModelDescribed)
	}
	return act, nil
}

// Model returns the task model of this task. The model name comes from the
// deployment declaration when there is one, and from the task itself
// otherwise.
func (t *TaskContext) Model(ctx context.Context) (*domain.TaskModel, error) {
	if t.dir.models == nil {
		return nil, fmt.Errorf("task '%s': no model registry: %w", t.Name(), domain.ErrNotModelDescribed)
	}

	act, err := t.Info(ctx)
	if err == nil {
		return t.dir.models.ResolveTaskModel(ctx, act.Model)
	}

	name, callErr := call(ctx, t, "model", "", t.remote.ModelName)
	if callErr != nil {
		return nil, callErr
	}
	if name == "" {
		return nil, err
	}
	return t.dir.models.ResolveTaskModel(ctx, name)
}

// maxModelDepth bounds superclass chains, which come from untrusted files.
const maxModelDepth = 32

// Implements reports whether the model of this task is, derives from, or
// implements capability.
func (t *TaskContext) Implements(ctx context.Context, capability string) (bool, error) {
	m, err := t.Model(ctx)
	if err != nil {
		return false, err
	}
	for depth := 0; m != nil && depth < maxModelDepth; depth++ {
		if m.Provides(capability) {
			return true, nil
		}
		if m.Superclass == "" {
			break
		}
		m, err = t.dir.models.ResolveTaskModel(ctx, m.Superclass)
		if errors.Is(err, domain.ErrNotFound) {
			break
		}
		if err != nil {
			return false, err
		}
	}
	return false, nil
}
