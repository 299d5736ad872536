package task_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/orocos/pkg/adapters/memory"
	"github.com/aretw0/orocos/pkg/domain"
	"github.com/aretw0/orocos/pkg/ports"
	"github.com/aretw0/orocos/pkg/process"
	"github.com/aretw0/orocos/pkg/registry"
	"github.com/aretw0/orocos/pkg/task"
	"github.com/aretw0/orocos/pkg/typelib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	naming    *memory.Naming
	transport *memory.Transport
	processes *process.Set
	registry  *registry.Registry
	dir       *task.Directory
}

func newFixture(t *testing.T, opts ...task.Option) *fixture {
	t.Helper()
	catalog := memory.NewCatalog(
		domain.PackageEntry{Name: "nav-tasks-gnulinux", ProjectName: "nav", DefFile: "/opt/nav.orogen",
			TaskModels: "nav::Controller,nav::Planner,nav::SmartPlanner"},
		domain.PackageEntry{Name: "orogen-nav_test", ProjectName: "nav", DefFile: "/opt/nav.orogen"},
		domain.PackageEntry{Name: "nav-typekit-gnulinux", ProjectName: "nav", DefFile: "/opt/nav.orogen", TypeRegistry: "/opt/nav.tlb"},
	)
	defs := memory.NewDefinitions()
	defs.AddTypes("/opt/nav.tlb", typelib.Type{Name: "/Nav/Pose", Kind: typelib.KindCompound,
		Fields: []typelib.Field{{Name: "x", Type: "/double"}}})
	defs.AddTypelist("/opt/nav.typelist", typelib.Typelist{All: []string{"/Nav/Pose"}, Exported: []string{"/Nav/Pose"}})
	defs.AddTaskLibrary("/opt/nav.orogen", "nav",
		domain.TaskModel{Name: "nav::Controller", Implements: []string{"Nav::Follower"}},
		domain.TaskModel{Name: "nav::Planner"},
		domain.TaskModel{Name: "nav::SmartPlanner", Superclass: "nav::Planner"},
	)
	defs.AddDeployment("/opt/nav.orogen", domain.Deployment{
		Name:       "nav_test",
		Project:    "nav",
		Activities: []domain.TaskActivity{{Name: "controller", Model: "nav::Controller"}},
	})

	reg := registry.New(catalog, defs)
	require.NoError(t, reg.Load(context.Background()))

	f := &fixture{
		naming:    memory.NewNaming(),
		transport: memory.NewTransport(),
		processes: process.NewSet(),
		registry:  reg,
	}
	opts = append([]task.Option{
		task.WithProcesses(f.processes),
		task.WithModels(reg),
		task.WithTypes(reg.TypeRegistry()),
	}, opts...)
	f.dir = task.NewDirectory(f.naming, f.transport, opts...)
	return f
}

func (f *fixture) publish(t *testing.T, tasks ...*memory.Task) {
	t.Helper()
	require.NoError(t, memory.Publish(context.Background(), f.transport, f.naming, tasks...))
}

func (f *fixture) get(t *testing.T, name string) *task.TaskContext {
	t.Helper()
	tc, err := f.dir.Get(context.Background(), name)
	require.NoError(t, err)
	return tc
}

func TestTaskContext_RunningTable(t *testing.T) {
	f := newFixture(t)
	remote := memory.NewTask("nav")
	f.publish(t, remote)
	tc := f.get(t, "nav")
	ctx := context.Background()

	want := map[domain.TaskState]bool{
		domain.StatePreOperational: false,
		domain.StateActive:         false,
		domain.StateStopped:        false,
		domain.StateRunning:        true,
		domain.StateRuntimeWarning: true,
		domain.StateRuntimeError:   true,
		domain.StateFatalError:     false,
	}
	require.Len(t, want, len(domain.States))
	for state, running := range want {
		remote.SetState(state)
		got, err := tc.Running(ctx)
		require.NoError(t, err)
		assert.Equal(t, running, got, "state %s", state)
	}
	assert.Equal(t, len(want), remote.Calls("state"), "state is never cached")
}

func TestTaskContext_Lifecycle(t *testing.T) {
	f := newFixture(t)
	f.publish(t, memory.NewTask("nav"))
	tc := f.get(t, "nav")
	ctx := context.Background()

	require.NoError(t, tc.Configure(ctx))
	ready, err := tc.Ready(ctx)
	require.NoError(t, err)
	assert.True(t, ready)

	require.NoError(t, tc.Start(ctx))
	require.NoError(t, tc.Stop(ctx))
	require.NoError(t, tc.Cleanup(ctx))

	state, err := tc.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StatePreOperational, state)
}

func TestTaskContext_ConfigureWhileRunning(t *testing.T) {
	f := newFixture(t)
	f.publish(t, memory.NewTask("nav", memory.WithState(domain.StateRunning)))
	tc := f.get(t, "nav")
	ctx := context.Background()

	err := tc.Configure(ctx)
	var st *domain.StateTransitionError
	require.ErrorAs(t, err, &st)
	assert.Equal(t, "nav", st.Task)
	assert.Equal(t, "configure", st.Transition)

	state, err := tc.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StateRunning, state, "state unchanged")
}

func TestTaskContext_RefusedStart(t *testing.T) {
	f := newFixture(t)
	remote := memory.NewTask("nav", memory.WithState(domain.StateStopped))
	remote.StartHook = func() bool { return false }
	f.publish(t, remote)
	tc := f.get(t, "nav")

	err := tc.Start(context.Background())
	assert.ErrorIs(t, err, domain.ErrStateTransition)
	assert.EqualError(t, err, "task 'nav': start refused")

	err = tc.Apply(context.Background(), domain.Transition("explode"))
	assert.Error(t, err)
}

// unacknowledged wraps a remote whose stop and cleanup calls report false even
// though the transition happened.
type unacknowledged struct {
	ports.RemoteTask
}

func (u unacknowledged) Stop(ctx context.Context) (bool, error) {
	_, err := u.RemoteTask.Stop(ctx)
	return false, err
}

func (u unacknowledged) Cleanup(ctx context.Context) (bool, error) {
	_, err := u.RemoteTask.Cleanup(ctx)
	return false, err
}

type unacknowledgedTransport struct {
	*memory.Transport
}

func (tr unacknowledgedTransport) Connect(ctx context.Context, name, endpoint string) (ports.RemoteTask, error) {
	remote, err := tr.Transport.Connect(ctx, name, endpoint)
	if err != nil {
		return nil, err
	}
	return unacknowledged{remote}, nil
}

func TestTaskContext_StopCannotBeRefused(t *testing.T) {
	f := newFixture(t)
	f.publish(t, memory.NewTask("nav", memory.WithState(domain.StateRunning)))
	f.dir = task.NewDirectory(f.naming, unacknowledgedTransport{f.transport})
	tc := f.get(t, "nav")
	ctx := context.Background()

	require.NoError(t, tc.Stop(ctx))
	require.NoError(t, tc.Cleanup(ctx))

	state, err := tc.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StatePreOperational, state)

	err = tc.Stop(ctx)
	assert.ErrorIs(t, err, domain.ErrStateTransition, "invalid source state still fails")
}

func TestTaskContext_StatePredicatesOnFailure(t *testing.T) {
	f := newFixture(t)
	remote := memory.NewTask("nav", memory.WithState(domain.StateRuntimeError))
	f.publish(t, remote)
	tc := f.get(t, "nav")
	ctx := context.Background()
	remote.Fail(errors.New("connection reset"))

	for name, predicate := range map[string]func(context.Context) (bool, error){
		"running": tc.Running,
		"ready":   tc.Ready,
		"error":   tc.Error,
	} {
		got, err := predicate(ctx)
		assert.ErrorIs(t, err, domain.ErrTransport, name)
		assert.False(t, got, name)
	}
}

func TestTaskContext_Operations(t *testing.T) {
	f := newFixture(t)
	var got []any
	remote := memory.NewTask("nav",
		memory.WithOperation(domain.OperationInfo{Name: "scale", ArgTypes: []string{"/double", "/Unknown/Thing"}},
			func(args []any) (any, error) {
				got = args
				return args[0].(float64) * 2, nil
			}),
		memory.WithOperation(domain.OperationInfo{Name: "fail"}, func([]any) (any, error) {
			return nil, errors.New("operation failed")
		}),
	)
	f.publish(t, remote)
	tc := f.get(t, "nav")
	ctx := context.Background()

	ops, err := tc.Operations(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, "fail", ops[0].Name())
	assert.Equal(t, "scale", ops[1].Name())

	ok, err := tc.HasOperation(ctx, "scale")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = tc.HasOperation(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	v, err := tc.Call(ctx, "scale", 3, "opaque")
	require.NoError(t, err)
	assert.Equal(t, 6.0, v)
	assert.Equal(t, []any{3.0, "opaque"}, got, "known argument types are converted")

	_, err = tc.Call(ctx, "scale", 3)
	assert.ErrorIs(t, err, domain.ErrTypeMismatch)
	_, err = tc.Call(ctx, "scale", "three", "opaque")
	var tm *domain.TypeMismatchError
	require.ErrorAs(t, err, &tm)
	assert.Equal(t, "/double", tm.Type)

	_, err = tc.Call(ctx, "missing")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "operation", nf.Kind)
	assert.Equal(t, "nav", nf.Task)

	_, err = tc.Call(ctx, "fail")
	var te *domain.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "call_operation", te.Op)
}

func TestTaskContext_PortCache(t *testing.T) {
	f := newFixture(t)
	remote := memory.NewTask("nav", memory.WithPort("pose", domain.PortOutput, "/double"))
	f.publish(t, remote)
	tc := f.get(t, "nav")
	ctx := context.Background()

	first, err := tc.Port(ctx, "pose")
	require.NoError(t, err)
	second, err := tc.Port(ctx, "pose")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, remote.Calls("port"), "second lookup is served from the cache")
	assert.Equal(t, 1, remote.Calls("has_port"), "cached entry is revalidated")

	remote.RemovePort("pose")
	_, err = tc.Port(ctx, "pose")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "no port named 'pose' on task 'nav'", nf.Error())

	remote.AddPort(domain.PortInfo{Name: "pose", Direction: domain.PortOutput, TypeName: "/float"})
	third, err := tc.Port(ctx, "pose")
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, "/float", third.TypeName())
}

func TestTaskContext_PortData(t *testing.T) {
	f := newFixture(t)
	remote := memory.NewTask("nav",
		memory.WithPort("cmd", domain.PortInput, "/int32_t"),
		memory.WithPort("pose", domain.PortOutput, "/double"),
	)
	f.publish(t, remote)
	tc := f.get(t, "nav")
	ctx := context.Background()

	cmd, err := tc.Port(ctx, "cmd")
	require.NoError(t, err)
	require.NoError(t, cmd.Write(ctx, 12))
	v, ok, err := cmd.Read(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(12), v)

	assert.ErrorIs(t, cmd.Write(ctx, "twelve"), domain.ErrTypeMismatch)

	pose, err := tc.Port(ctx, "pose")
	require.NoError(t, err)
	_, ok, err = pose.Read(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Error(t, pose.Write(ctx, 1.0), "output ports are read-only")

	all, err := tc.Ports(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Same(t, cmd, all[0], "enumeration reuses cached proxies")
}

func TestAttribute_StringWriteBypassesConversion(t *testing.T) {
	f := newFixture(t)
	remote := memory.NewTask("nav", memory.WithAttribute("label", "string", "initial"))
	f.publish(t, remote)
	tc := f.get(t, "nav")
	ctx := context.Background()

	label, err := tc.Attribute(ctx, "label")
	require.NoError(t, err)
	assert.Equal(t, "/std/string", label.TypeName(), "pseudo-type is canonicalized")

	require.NoError(t, label.Write(ctx, "hello"))
	assert.Equal(t, 1, remote.Calls("write_attribute_string"))
	assert.Equal(t, 0, remote.Calls("write_attribute"))

	type mode string
	require.NoError(t, label.Write(ctx, mode("tracking")))

	v, err := label.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tracking", v)
	assert.Equal(t, 1, remote.Calls("read_attribute_string"))

	assert.ErrorIs(t, label.Write(ctx, 42), domain.ErrTypeMismatch)
}

func TestAttribute_NumericWrite(t *testing.T) {
	f := newFixture(t)
	remote := memory.NewTask("nav", memory.WithProperty("gain", "/int32_t", int64(1)))
	f.publish(t, remote)
	tc := f.get(t, "nav")
	ctx := context.Background()

	gain, err := tc.Attribute(ctx, "gain")
	require.NoError(t, err)
	assert.True(t, gain.Property())

	err = gain.Write(ctx, "hello")
	var tm *domain.TypeMismatchError
	require.ErrorAs(t, err, &tm)
	assert.Equal(t, "gain", tm.Name)
	assert.Equal(t, "/int32_t", tm.Type)
	assert.Equal(t, 0, remote.Calls("write_attribute"), "nothing is sent")

	require.NoError(t, gain.Write(ctx, 3))
	v, err := gain.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
}

func TestAttribute_UnknownType(t *testing.T) {
	f := newFixture(t)
	f.publish(t, memory.NewTask("nav", memory.WithAttribute("pose", "/Nav/Unknown", nil)))
	tc := f.get(t, "nav")

	_, err := tc.Attribute(context.Background(), "pose")
	var ie *domain.InternalError
	require.ErrorAs(t, err, &ie)
	assert.Contains(t, ie.Error(), "/Nav/Unknown")

	_, err = tc.Attribute(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAttribute_ImportsTypekit(t *testing.T) {
	f := newFixture(t)
	f.dir = task.NewDirectory(f.naming, f.transport,
		task.WithTypes(f.registry.TypeRegistry()),
		task.WithTypeImporter(f.registry),
	)
	f.publish(t, memory.NewTask("nav",
		memory.WithAttribute("pose", "/Nav/Pose", map[string]any{"x": 1.0}),
		memory.WithPort("target", domain.PortInput, "/Nav/Pose"),
	))
	tc := f.get(t, "nav")
	ctx := context.Background()

	pose, err := tc.Attribute(ctx, "pose")
	require.NoError(t, err)
	assert.Equal(t, typelib.KindCompound, pose.Type().Kind)
	require.NoError(t, pose.Write(ctx, map[string]any{"x": 2}))
	v, err := pose.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": 2.0}, v)

	target, err := tc.Port(ctx, "target")
	require.NoError(t, err)
	require.NotNil(t, target.Type())
	assert.ErrorIs(t, target.Write(ctx, map[string]any{"y": 1.0}), domain.ErrTypeMismatch)

	f.publish(t, memory.NewTask("other", memory.WithAttribute("state", "/Nav/Unknown", nil)))
	_, err = f.get(t, "other").Attribute(ctx, "state")
	var ie *domain.InternalError
	assert.ErrorAs(t, err, &ie, "types no type kit declares stay unknown")
}

func TestTaskContext_TranslatesTransportFaults(t *testing.T) {
	f := newFixture(t)
	remote := memory.NewTask("nav")
	f.publish(t, remote)
	tc := f.get(t, "nav")
	ctx := context.Background()

	reset := errors.New("connection reset")
	remote.Fail(reset)
	_, err := tc.State(ctx)
	var te *domain.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "nav", te.Task)
	assert.Equal(t, "state", te.Op)
	assert.ErrorIs(t, err, reset)
	assert.ErrorIs(t, err, domain.ErrTransport)

	remote.Fail(fmt.Errorf("%w: peer unreachable", domain.ErrCommunication))
	err = tc.Configure(ctx)
	assert.ErrorIs(t, err, domain.ErrCommunication)
	assert.NotErrorIs(t, err, domain.ErrStateTransition)

	remote.Fail(fmt.Errorf("%w: bad source state", domain.ErrStateTransition))
	err = tc.Cleanup(ctx)
	var st *domain.StateTransitionError
	require.ErrorAs(t, err, &st)
	assert.Equal(t, "cleanup", st.Transition)
}

func TestTaskContext_DynamicAccessors(t *testing.T) {
	f := newFixture(t)
	f.publish(t, memory.NewTask("nav",
		memory.WithPort("pose", domain.PortOutput, "/double"),
		memory.WithProperty("gain", "/int32_t", int64(2)),
	))
	tc := f.get(t, "nav")
	ctx := context.Background()

	v, err := tc.Get(ctx, "pose")
	require.NoError(t, err)
	assert.IsType(t, &task.Port{}, v)

	v, err = tc.Get(ctx, "gain")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	require.NoError(t, tc.Set(ctx, "gain", 5))
	v, _ = tc.Get(ctx, "gain")
	assert.Equal(t, int64(5), v)

	_, err = tc.Get(ctx, "speed")
	assert.ErrorIs(t, err, domain.ErrNoSuchMember)
	assert.ErrorIs(t, tc.Set(ctx, "pose", 1.0), domain.ErrNoSuchMember, "ports cannot be assigned")
	assert.ErrorIs(t, tc.Set(ctx, "gain", "fast"), domain.ErrTypeMismatch)
}

func TestDirectory_GetUnknown(t *testing.T) {
	f := newFixture(t)
	_, err := f.dir.Get(context.Background(), "ghost")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "task", nf.Kind)
}

func TestDirectory_EachUnregistersStaleNames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.publish(t, memory.NewTask("alive"))
	require.NoError(t, f.naming.Register(ctx, "stale", "memory://stale"))

	var seen []string
	require.NoError(t, f.dir.Each(ctx, func(tc *task.TaskContext) error {
		seen = append(seen, tc.Name())
		return nil
	}))
	assert.Equal(t, []string{"alive"}, seen)

	names, err := f.naming.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alive"}, names)
}

func TestDirectory_GetProvides(t *testing.T) {
	f := newFixture(t)
	f.publish(t,
		memory.NewTask("a", memory.WithModel("nav::Controller")),
		memory.NewTask("b", memory.WithModel("nav::SmartPlanner")),
		memory.NewTask("c", memory.WithModel("nav::Controller")),
		memory.NewTask("d"),
	)
	ctx := context.Background()

	tc, err := f.dir.GetProvides(ctx, "nav::Planner")
	require.NoError(t, err, "superclass chain is followed")
	assert.Equal(t, "b", tc.Name())

	_, err = f.dir.GetProvides(ctx, "Nav::Follower")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, []string{"a", "c"}, nf.Candidates)
	assert.Equal(t, "more than one task implements Nav::Follower: a, c", nf.Error())

	_, err = f.dir.GetProvides(ctx, "Nav::Mapper")
	require.ErrorAs(t, err, &nf)
	assert.Empty(t, nf.Candidates)
	assert.Equal(t, "no task implements Nav::Mapper", nf.Error())
}

func TestTaskContext_InfoAndModel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dep, err := f.registry.Deployment(ctx, "nav_test")
	require.NoError(t, err)
	proc := process.New("nav_test", 4242, []string{"controller"}, dep)
	f.processes.Register(proc)
	f.publish(t, memory.NewTask("controller"), memory.NewTask("orphan"))

	tc := f.get(t, "controller")
	assert.Same(t, proc, tc.Process())

	act, err := tc.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, "nav::Controller", act.Model)

	model, err := tc.Model(ctx)
	require.NoError(t, err)
	assert.Equal(t, "nav", model.Library)

	ok, err := tc.Implements(ctx, "Nav::Follower")
	require.NoError(t, err)
	assert.True(t, ok)

	orphan := f.get(t, "orphan")
	assert.Nil(t, orphan.Process())
	_, err = orphan.Info(ctx)
	assert.ErrorIs(t, err, domain.ErrNotModelDescribed)
	_, err = orphan.Model(ctx)
	assert.ErrorIs(t, err, domain.ErrNotModelDescribed)
}

func TestTaskContext_Hooks(t *testing.T) {
	var calls, returns []string
	var failures int
	hooks := domain.CallHooks{
		OnCall: func(ctx context.Context, e *domain.CallEvent) { calls = append(calls, e.Operation) },
		OnReturn: func(ctx context.Context, e *domain.CallEvent) {
			returns = append(returns, e.Task+"."+e.Operation)
			if e.Err != nil {
				failures++
			}
		},
	}
	f := newFixture(t, task.WithHooks(hooks))
	f.publish(t, memory.NewTask("nav"))
	tc := f.get(t, "nav")
	ctx := context.Background()

	_, _ = tc.State(ctx)
	_ = tc.Start(ctx)

	assert.Equal(t, []string{"state", "start"}, calls)
	assert.Equal(t, []string{"nav.state", "nav.start"}, returns)
	assert.Equal(t, 1, failures)
}

func TestTaskContext_Describe(t *testing.T) {
	f := newFixture(t)
	f.publish(t,
		memory.NewTask("nav",
			memory.WithModel("nav::Controller"),
			memory.WithPort("pose", domain.PortOutput, "/double"),
			memory.WithProperty("gain", "/int32_t", int64(1)),
		),
		memory.NewTask("empty"),
	)
	ctx := context.Background()

	out, err := f.get(t, "nav").Describe(ctx)
	require.NoError(t, err)
	assert.Contains(t, out, "# Component nav")
	assert.Contains(t, out, "- **state:** PRE_OPERATIONAL")
	assert.Contains(t, out, "- **model:** nav::Controller (nav)")
	assert.Contains(t, out, "- property gain (/int32_t)")
	assert.Contains(t, out, "- output port pose (/double)")

	out, err = f.get(t, "empty").Describe(ctx)
	require.NoError(t, err)
	assert.Contains(t, out, "No attributes")
	assert.Contains(t, out, "No ports")
}

func TestWatch_ReportsChanges(t *testing.T) {
	f := newFixture(t)
	remote := memory.NewTask("nav")
	f.publish(t, remote)
	tc := f.get(t, "nav")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan task.WatchEvent, 16)
	done := make(chan error, 1)
	go func() {
		done <- task.Watch(ctx, 5*time.Millisecond, func(e task.WatchEvent) { events <- e }, tc)
	}()

	first := <-events
	assert.True(t, first.Initial)
	assert.Equal(t, domain.StatePreOperational, first.State)

	remote.SetState(domain.StateRuntimeError)
	select {
	case e := <-events:
		assert.False(t, e.Initial)
		assert.Equal(t, domain.StateRuntimeError, e.State)
	case <-time.After(2 * time.Second):
		t.Fatal("state change not reported")
	}

	cancel()
	assert.NoError(t, <-done)
}
