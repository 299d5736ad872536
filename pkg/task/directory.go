package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/orocos/internal/logging"
	"github.com/aretw0/orocos/pkg/domain"
	"github.com/aretw0/orocos/pkg/ports"
	"github.com/aretw0/orocos/pkg/process"
	"github.com/aretw0/orocos/pkg/typelib"
)

// ModelResolver turns a task model name into its parsed definition.
// *registry.Registry implements it.
type ModelResolver interface {
	ResolveTaskModel(ctx context.Context, name string) (*domain.TaskModel, error)
}

// TypeImporter loads the definition of a type unknown to the type registry.
// *registry.Registry implements it.
type TypeImporter interface {
	ImportType(ctx context.Context, name string) error
}

// Directory is the only way to obtain TaskContext proxies. It binds the naming
// directory, the transport, the known processes and the type registry that
// proxies need.
type Directory struct {
	naming    ports.NamingDirectory
	transport ports.Transport
	processes *process.Set
	models    ModelResolver
	types     *typelib.Registry
	importer  TypeImporter
	hooks     domain.CallHooks
	logger    *slog.Logger
}

// Option configures a Directory.
type Option func(*Directory)

// WithProcesses sets the processes scanned to associate a task with the
// process hosting it.
func WithProcesses(set *process.Set) Option {
	return func(d *Directory) { d.processes = set }
}

// WithModels sets the resolver used by Model and Implements.
func WithModels(models ModelResolver) Option {
	return func(d *Directory) { d.models = models }
}

// WithTypes sets the type registry used to resolve attribute and port types.
func WithTypes(types *typelib.Registry) Option {
	return func(d *Directory) {
		if types != nil {
			d.types = types
		}
	}
}

// WithTypeImporter sets the importer consulted when an attribute or port
// type is missing from the type registry.
func WithTypeImporter(importer TypeImporter) Option {
	return func(d *Directory) { d.importer = importer }
}

// WithHooks sets callbacks fired around every remote call.
func WithHooks(hooks domain.CallHooks) Option {
	return func(d *Directory) { d.hooks = hooks }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Directory) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDirectory creates a directory resolving names through naming and
// reaching tasks through transport.
func NewDirectory(naming ports.NamingDirectory, transport ports.Transport, opts ...Option) *Directory {
	d := &Directory{
		naming:    naming,
		transport: transport,
		processes: process.NewSet(),
		types:     typelib.NewRegistry(),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Types returns the type registry used by the proxies.
func (d *Directory) Types() *typelib.Registry { return d.types }

// lookupType resolves name, importing it first when an importer is set.
func (d *Directory) lookupType(ctx context.Context, name string) (*typelib.Type, bool) {
	if t, ok := d.types.Get(name); ok {
		return t, true
	}
	if d.importer == nil {
		return nil, false
	}
	if err := d.importer.ImportType(ctx, name); err != nil {
		d.logger.Debug("cannot import type", "type", name, "error", err)
		return nil, false
	}
	return d.types.Get(name)
}

// Get returns a proxy on the task registered under name. The process hosting
// it is looked up among the known processes; not finding one is not an error.
func (d *Directory) Get(ctx context.Context, name string) (*TaskContext, error) {
	endpoint, err := d.naming.Resolve(ctx, name)
	if err != nil {
		return nil, lookupError(name, "naming service", err)
	}
	remote, err := d.transport.Connect(ctx, name, endpoint)
	if err != nil {
		return nil, lookupError(name, "connect", err)
	}

	proc, _ := d.processes.ForTask(name)
	return newTaskContext(d, remote, proc), nil
}

// lookupError reports a name that resolves but cannot be reached as not
// found, so that Each drops it from the naming directory.
func lookupError(name, op string, err error) error {
	unreachable := op == "connect" && errors.Is(err, domain.ErrCommunication)
	if errors.Is(err, domain.ErrNotFound) || unreachable {
		var nf *domain.NotFoundError
		if errors.As(err, &nf) && nf.Kind == "task" {
			return nf
		}
		return &domain.NotFoundError{Kind: "task", Name: name, Err: err}
	}
	return &domain.TransportError{Task: name, Op: op, Err: err}
}

// Names returns the names currently registered in the naming directory.
func (d *Directory) Names(ctx context.Context) ([]string, error) {
	names, err := d.naming.List(ctx)
	if err != nil {
		return nil, &domain.TransportError{Op: "naming service", Err: err}
	}
	return names, nil
}

// Each calls fn for every reachable task. Names that no longer resolve are
// removed from the naming directory. Iteration stops at the first error
// returned by fn.
func (d *Directory) Each(ctx context.Context, fn func(*TaskContext) error) error {
	names, err := d.Names(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		t, err := d.Get(ctx, name)
		if errors.Is(err, domain.ErrNotFound) {
			d.logger.Debug("removing stale task from naming directory", "task", name)
			if err := d.naming.Unregister(ctx, name); err != nil {
				d.logger.Warn("cannot unregister stale task", "task", name, "error", err)
			}
			continue
		}
		if err != nil {
			return err
		}
		if err := fn(t); err != nil {
			return err
		}
	}
	return nil
}

// GetProvides returns the only reachable task implementing capability. It
// fails with a *domain.NotFoundError if none does, or if more than one does,
// in which case the error lists the candidates in naming directory order.
func (d *Directory) GetProvides(ctx context.Context, capability string) (*TaskContext, error) {
	var matches []*TaskContext
	err := d.Each(ctx, func(t *TaskContext) error {
		ok, err := t.Implements(ctx, capability)
		if err != nil {
			d.logger.Debug("cannot check task capability", "task", t.Name(), "capability", capability, "error", err)
			return nil
		}
		if ok {
			matches = append(matches, t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		return nil, &domain.NotFoundError{Kind: "capability", Name: capability}
	case 1:
		return matches[0], nil
	}
	names := make([]string, len(matches))
	for i, t := range matches {
		names[i] = t.Name()
	}
	return nil, &domain.NotFoundError{Kind: "capability", Name: capability, Candidates: names}
}

// All returns proxies on every reachable task.
func (d *Directory) All(ctx context.Context) ([]*TaskContext, error) {
	var out []*TaskContext
	err := d.Each(ctx, func(t *TaskContext) error {
		out = append(out, t)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate tasks: %w", err)
	}
	return out, nil
}
