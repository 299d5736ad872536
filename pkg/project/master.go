// Package project implements the master project: the namespace through which
// task libraries, deployments and type kits are imported, and which owns the
// type registry they all feed.
package project

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/aretw0/orocos/internal/logging"
	"github.com/aretw0/orocos/pkg/domain"
	"github.com/aretw0/orocos/pkg/ports"
	"github.com/aretw0/orocos/pkg/typelib"
)

// Master imports definitions on first reference and caches them for its
// lifetime. It is not safe for concurrent first-time imports of the same name;
// a race only duplicates parse work.
type Master struct {
	loader   ports.DefinitionLoader
	registry *typelib.Registry
	logger   *slog.Logger

	libraries   map[string]*domain.TaskLibrary
	deployments map[string]*domain.Deployment
	typekits    map[string]bool
}

// Option configures a Master.
type Option func(*Master)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Master) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithRegistry uses reg as the type registry instead of a fresh one.
func WithRegistry(reg *typelib.Registry) Option {
	return func(m *Master) {
		if reg != nil {
			m.registry = reg
		}
	}
}

// NewMaster creates an empty master project.
func NewMaster(loader ports.DefinitionLoader, opts ...Option) *Master {
	m := &Master{
		loader:      loader,
		registry:    typelib.NewRegistry(),
		logger:      logging.NewNop(),
		libraries:   make(map[string]*domain.TaskLibrary),
		deployments: make(map[string]*domain.Deployment),
		typekits:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Registry returns the type registry shared by every import.
func (m *Master) Registry() *typelib.Registry { return m.registry }

// UsingTaskLibrary returns the task library called name, parsing path on the
// first call.
func (m *Master) UsingTaskLibrary(ctx context.Context, name, path string) (*domain.TaskLibrary, error) {
	if lib, ok := m.libraries[name]; ok {
		return lib, nil
	}

	lib, err := m.loader.LoadTaskLibrary(ctx, name, path)
	if err != nil {
		return nil, fmt.Errorf("failed to import task library %s: %w", name, err)
	}
	if err := m.Register(lib); err != nil {
		return nil, err
	}
	m.logger.Debug("task library imported", "library", name, "models", len(lib.Order))
	return lib, nil
}

// Register adds an already parsed task library, replacing any previous
// import of the same name. Its types are added to the registry.
func (m *Master) Register(lib *domain.TaskLibrary) error {
	for _, t := range lib.Types {
		if err := m.registry.Add(t); err != nil {
			return fmt.Errorf("task library %s: %w", lib.Name, err)
		}
	}
	m.libraries[lib.Name] = lib
	return nil
}

// UsingDeployment returns the deployment called name, parsing path on the
// first call.
func (m *Master) UsingDeployment(ctx context.Context, name, path string) (*domain.Deployment, error) {
	if dep, ok := m.deployments[name]; ok {
		return dep, nil
	}
	dep, err := m.loader.LoadDeployment(ctx, name, path)
	if err != nil {
		return nil, fmt.Errorf("failed to import deployment %s: %w", name, err)
	}
	m.deployments[name] = dep
	return dep, nil
}

// ImportTypekit loads the types of a type kit into the registry and marks the
// names listed as exported by its typelist. Repeated imports are no-ops.
func (m *Master) ImportTypekit(ctx context.Context, name, registryPath, typelistPath string) error {
	if m.typekits[name] {
		return nil
	}

	types, err := m.loader.LoadTypes(ctx, registryPath)
	if err != nil {
		return fmt.Errorf("failed to import typekit %s: %w", name, err)
	}
	for _, t := range types {
		if err := m.registry.Add(t); err != nil {
			return fmt.Errorf("typekit %s: %w", name, err)
		}
	}

	tl, err := m.loader.ReadTypelist(ctx, typelistPath)
	if err != nil {
		return fmt.Errorf("failed to import typekit %s: %w", name, err)
	}
	for _, typeName := range tl.Exported {
		m.registry.Export(typeName)
	}

	m.typekits[name] = true
	m.logger.Debug("typekit imported", "typekit", name, "types", len(types), "exported", len(tl.Exported))
	return nil
}

// Imported reports whether the task library called name has been imported.
func (m *Master) Imported(name string) bool {
	_, ok := m.libraries[name]
	return ok
}

// TaskLibraries returns the names of the imported task libraries, sorted.
func (m *Master) TaskLibraries() []string {
	names := make([]string, 0, len(m.libraries))
	for name := range m.libraries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
