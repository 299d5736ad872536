package orocos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/orocos/internal/logging"
	orohttp "github.com/aretw0/orocos/pkg/adapters/http"
	orolam "github.com/aretw0/orocos/pkg/adapters/loam"
	"github.com/aretw0/orocos/pkg/adapters/memory"
	"github.com/aretw0/orocos/pkg/adapters/pkgconfig"
	"github.com/aretw0/orocos/pkg/domain"
	"github.com/aretw0/orocos/pkg/orogen"
	"github.com/aretw0/orocos/pkg/ports"
	"github.com/aretw0/orocos/pkg/process"
	"github.com/aretw0/orocos/pkg/registry"
	"github.com/aretw0/orocos/pkg/task"
)

// ErrNotInitialized is returned by the task accessors before Initialize.
var ErrNotInitialized = errors.New("orocos: client is not initialized")

// Client is the high-level entry point of the library. It binds the component
// registry to the naming directory and the transport used to reach running
// tasks.
type Client struct {
	catalog    ports.PackageCatalog
	loader     ports.DefinitionLoader
	naming     ports.NamingDirectory
	transport  ports.Transport
	extensions *registry.Extensions
	target     string
	hooks      domain.CallHooks
	logger     *slog.Logger
	sigchld    bool

	registry  *registry.Registry
	processes *process.Set
	reaper    *process.Reaper
	directory *task.Directory
	models    *orolam.ModelSource
}

// Option defines a functional option for configuring the Client.
type Option func(*Client)

// WithCatalog injects the package catalog. The default scans PKG_CONFIG_PATH.
func WithCatalog(catalog ports.PackageCatalog) Option {
	return func(c *Client) { c.catalog = catalog }
}

// WithLoader injects the definition file loader. The default parses orogen
// YAML documents from the local file system.
func WithLoader(loader ports.DefinitionLoader) Option {
	return func(c *Client) { c.loader = loader }
}

// WithNaming injects the naming directory. The default is an in-process
// directory.
func WithNaming(naming ports.NamingDirectory) Option {
	return func(c *Client) { c.naming = naming }
}

// WithTransport injects the remote-call transport. The default speaks HTTP.
func WithTransport(transport ports.Transport) Option {
	return func(c *Client) { c.transport = transport }
}

// WithExtensions sets the callbacks run when a resolved model declares an
// extension.
func WithExtensions(ext *registry.Extensions) Option {
	return func(c *Client) { c.extensions = ext }
}

// WithTarget sets the deployment target (default "gnulinux").
func WithTarget(target string) Option {
	return func(c *Client) { c.target = target }
}

// WithHooks registers callbacks fired around every remote call. Repeated
// calls accumulate.
func WithHooks(hooks domain.CallHooks) Option {
	return func(c *Client) { c.hooks = c.hooks.Merge(hooks) }
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithoutSigchldHandler keeps Initialize from installing the process reaper,
// for programs that wait for their children themselves.
func WithoutSigchldHandler() Option {
	return func(c *Client) { c.sigchld = false }
}

// New creates a client. Nothing is scanned or contacted until Initialize.
func New(opts ...Option) *Client {
	c := &Client{
		sigchld:   true,
		processes: process.NewSet(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = logging.NewNop()
	}
	if c.catalog == nil {
		c.catalog = pkgconfig.FromEnv(pkgconfig.WithLogger(c.logger))
	}
	if c.loader == nil {
		c.loader = orogen.NewLoader()
	}
	if c.naming == nil {
		c.naming = memory.NewNaming()
	}
	if c.transport == nil {
		c.transport = orohttp.NewTransport()
	}

	c.registry = registry.New(c.catalog, c.loader,
		registry.WithTarget(c.target),
		registry.WithLogger(c.logger),
		registry.WithExtensions(c.extensions),
	)
	return c
}

// Initialize loads the registry, installs the process reaper and binds the
// task directory to the loaded type registry. Calling it again rescans the
// projects catalog.
func (c *Client) Initialize(ctx context.Context) error {
	if err := c.registry.Load(ctx); err != nil {
		return fmt.Errorf("failed to load component registry: %w", err)
	}

	if c.sigchld && c.reaper == nil {
		c.reaper = process.NewReaper(c.processes, process.WithLogger(c.logger))
		c.reaper.Start()
	}

	if c.directory == nil {
		c.directory = task.NewDirectory(c.naming, c.transport,
			task.WithProcesses(c.processes),
			task.WithModels(c.registry),
			task.WithTypes(c.registry.TypeRegistry()),
			task.WithTypeImporter(c.registry),
			task.WithHooks(c.hooks),
			task.WithLogger(c.logger),
		)
	}
	return nil
}

// Initialized reports whether Initialize succeeded.
func (c *Client) Initialized() bool { return c.directory != nil }

// Close uninstalls the process reaper and closes the naming directory when
// it holds a connection.
func (c *Client) Close() error {
	if c.reaper != nil {
		c.reaper.Stop()
		c.reaper = nil
	}
	if closer, ok := c.naming.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Registry returns the component registry.
func (c *Client) Registry() *registry.Registry { return c.registry }

// Processes returns the known deployment processes. Register a process here
// for its tasks to report their deployment and for its death to be noticed.
func (c *Client) Processes() *process.Set { return c.processes }

// Naming returns the naming directory.
func (c *Client) Naming() ports.NamingDirectory { return c.naming }

// Directory returns the task directory, or nil before Initialize.
func (c *Client) Directory() *task.Directory { return c.directory }

// ResolveTaskModel returns the model called name, loading the registry first
// if needed.
func (c *Client) ResolveTaskModel(ctx context.Context, name string) (*domain.TaskModel, error) {
	return c.registry.ResolveTaskModel(ctx, name)
}

// Task returns a proxy on the running task registered under name.
func (c *Client) Task(ctx context.Context, name string) (*task.TaskContext, error) {
	if c.directory == nil {
		return nil, ErrNotInitialized
	}
	return c.directory.Get(ctx, name)
}

// TaskProviding returns the only running task implementing capability.
func (c *Client) TaskProviding(ctx context.Context, capability string) (*task.TaskContext, error) {
	if c.directory == nil {
		return nil, ErrNotInitialized
	}
	return c.directory.GetProvides(ctx, capability)
}

// EachTask calls fn for every reachable running task, dropping stale names
// from the naming directory.
func (c *Client) EachTask(ctx context.Context, fn func(*task.TaskContext) error) error {
	if c.directory == nil {
		return ErrNotInitialized
	}
	return c.directory.Each(ctx, fn)
}

// Watch reports the state of the named tasks, then every change, until ctx
// is done. Without names every reachable task is watched.
func (c *Client) Watch(ctx context.Context, interval time.Duration, report func(task.WatchEvent), names ...string) error {
	if c.directory == nil {
		return ErrNotInitialized
	}

	var tasks []*task.TaskContext
	if len(names) == 0 {
		all, err := c.directory.All(ctx)
		if err != nil {
			return err
		}
		tasks = all
	}
	for _, name := range names {
		t, err := c.directory.Get(ctx, name)
		if err != nil {
			return err
		}
		tasks = append(tasks, t)
	}
	return task.Watch(ctx, interval, report, tasks...)
}

// LoadModels registers the task models documented in dir as a task library
// (named "dummy" unless library is set), so that they resolve without an
// installed package. Calling it again reloads the directory.
func (c *Client) LoadModels(ctx context.Context, dir, library string) error {
	if c.models == nil {
		src, err := orolam.Open(dir, orolam.WithLibrary(library))
		if err != nil {
			return err
		}
		c.models = src
	}
	return c.ReloadModels(ctx)
}

// ReloadModels re-reads the directory given to LoadModels.
func (c *Client) ReloadModels(ctx context.Context) error {
	if c.models == nil {
		return errors.New("no model directory loaded")
	}
	lib, err := c.models.TaskLibrary(ctx)
	if err != nil {
		return err
	}
	if err := c.registry.RegisterModels(ctx, lib); err != nil {
		return err
	}
	c.logger.Debug("task models loaded", "library", lib.Name, "models", len(lib.Order))
	return nil
}

// WatchModels reports the id of every changed document of the directory
// given to LoadModels. Callers apply changes with ReloadModels.
func (c *Client) WatchModels(ctx context.Context) (<-chan string, error) {
	if c.models == nil {
		return nil, errors.New("no model directory loaded")
	}
	return c.models.Watch(ctx)
}
