package task

import (
	"context"
	"fmt"

	"github.com/aretw0/orocos/pkg/domain"
	"github.com/aretw0/orocos/pkg/typelib"
)

// Port is a proxy on one port of a task.
type Port struct {
	task *TaskContext
	info domain.PortInfo
	typ  *typelib.Type
}

func newPort(ctx context.Context, t *TaskContext, info domain.PortInfo) *Port {
	typ, _ := t.dir.lookupType(ctx, info.TypeName)
	return &Port{task: t, info: info, typ: typ}
}

// Task returns the owning task.
func (p *Port) Task() *TaskContext { return p.task }

// Name returns the port name.
func (p *Port) Name() string { return p.info.Name }

// Direction returns whether the port is an input or an output.
func (p *Port) Direction() domain.PortDirection { return p.info.Direction }

// TypeName returns the declared type name.
func (p *Port) TypeName() string { return p.info.TypeName }

// Type returns the resolved type, or nil if the type registry does not know it.
func (p *Port) Type() *typelib.Type { return p.typ }

// Info returns the port declaration.
func (p *Port) Info() domain.PortInfo { return p.info }

func (p *Port) String() string {
	return fmt.Sprintf("%s port %s (%s)", p.info.Direction, p.info.Name, p.info.TypeName)
}

// Read returns the last sample available on the port; ok is false when there
// is none yet.
func (p *Port) Read(ctx context.Context) (value any, ok bool, err error) {
	type sample struct {
		value any
		ok    bool
	}
	s, err := call(ctx, p.task, "read_port", p.info.Name, func(ctx context.Context) (sample, error) {
		v, ok, err := p.task.remote.ReadPort(ctx, p.info.Name)
		return sample{v, ok}, err
	})
	if err != nil || !s.ok {
		return nil, false, err
	}
	if p.typ == nil {
		return s.value, true, nil
	}
	v, err := p.task.dir.types.Convert(p.typ.Name, s.value)
	if err != nil {
		return nil, false, &domain.TypeMismatchError{Name: p.info.Name, Type: p.typ.Name, Value: s.value, Err: err}
	}
	return v, true, nil
}

// Write sends a sample to an input port. The value is converted to the port
// type first when the type is known.
func (p *Port) Write(ctx context.Context, value any) error {
	if p.info.Direction != domain.PortInput {
		return fmt.Errorf("cannot write on %s of task '%s'", p, p.task.Name())
	}
	wire := value
	if p.typ != nil {
		v, err := p.task.dir.types.Convert(p.typ.Name, value)
		if err != nil {
			return &domain.TypeMismatchError{Name: p.info.Name, Type: p.typ.Name, Value: value, Err: err}
		}
		wire = v
	}
	return call0(ctx, p.task, "write_port", p.info.Name, func(ctx context.Context) error {
		return p.task.remote.WritePort(ctx, p.info.Name, wire)
	})
}

// HasPort reports whether the task currently has a port called name.
func (t *TaskContext) HasPort(ctx context.Context, name string) (bool, error) {
	return call(ctx, t, "has_port", name, func(ctx context.Context) (bool, error) {
		return t.remote.HasPort(ctx, name)
	})
}

// Port returns the proxy on the port called name. Cached proxies are checked
// against the remote task first and replaced when the port went away. It
// fails with a *domain.NotFoundError if the task has no such port.
func (t *TaskContext) Port(ctx context.Context, name string) (*Port, error) {
	if p, ok := t.ports[name]; ok {
		alive, err := t.HasPort(ctx, name)
		if err != nil {
			return nil, err
		}
		if alive {
			return p, nil
		}
		delete(t.ports, name)
	}

	info, err := call(ctx, t, "port", name, func(ctx context.Context) (domain.PortInfo, error) {
		return t.remote.Port(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	p := newPort(ctx, t, info)
	t.ports[name] = p
	return p, nil
}

// Ports returns proxies on every port of the task, sorted by name.
func (t *TaskContext) Ports(ctx context.Context) ([]*Port, error) {
	infos, err := call(ctx, t, "ports", "", t.remote.Ports)
	if err != nil {
		return nil, err
	}
	out := make([]*Port, 0, len(infos))
	for _, info := range infos {
		p, ok := t.ports[info.Name]
		if !ok || p.info != info {
			p = newPort(ctx, t, info)
			t.ports[info.Name] = p
		}
		out = append(out, p)
	}
	return out, nil
}
