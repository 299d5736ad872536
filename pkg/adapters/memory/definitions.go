package memory

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/aretw0/orocos/pkg/domain"
	"github.com/aretw0/orocos/pkg/typelib"
)

// Definitions implements ports.DefinitionLoader from definitions registered
// under a path. Every load returns a fresh copy, like a parser would, and is
// counted so tests can observe duplicate imports.
type Definitions struct {
	mu          sync.Mutex
	libraries   map[string]*domain.TaskLibrary
	deployments map[string][]*domain.Deployment
	types       map[string][]typelib.Type
	typelists   map[string]typelib.Typelist
	loads       map[string]int
}

// NewDefinitions creates an empty definition set.
func NewDefinitions() *Definitions {
	return &Definitions{
		libraries:   make(map[string]*domain.TaskLibrary),
		deployments: make(map[string][]*domain.Deployment),
		types:       make(map[string][]typelib.Type),
		typelists:   make(map[string]typelib.Typelist),
		loads:       make(map[string]int),
	}
}

// AddTaskLibrary registers the task library definition found at path. Models
// only need a name; Library and Order are filled in on load.
func (d *Definitions) AddTaskLibrary(path string, project string, models ...domain.TaskModel) {
	d.mu.Lock()
	defer d.mu.Unlock()

	lib := &domain.TaskLibrary{Project: project, Tasks: make(map[string]*domain.TaskModel)}
	for _, m := range models {
		m := m
		lib.Tasks[m.Name] = &m
		lib.Order = append(lib.Order, m.Name)
	}
	d.libraries[path] = lib
}

// AddTypes registers the types declared by the definition at path.
func (d *Definitions) AddTypes(path string, types ...typelib.Type) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.types[path] = append(d.types[path], types...)
}

// AddDeployment registers a deployment described by the file at path.
func (d *Definitions) AddDeployment(path string, dep domain.Deployment) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deployments[path] = append(d.deployments[path], &dep)
}

// AddTypelist registers the typelist file at path.
func (d *Definitions) AddTypelist(path string, tl typelib.Typelist) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.typelists[path] = tl
}

// Loads returns how many times the file at path was read.
func (d *Definitions) Loads(path string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loads[path]
}

func notExist(path string) error {
	return fmt.Errorf("open %s: %w", path, os.ErrNotExist)
}

// LoadTaskLibrary returns a copy of the library registered at path.
func (d *Definitions) LoadTaskLibrary(ctx context.Context, name, path string) (*domain.TaskLibrary, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loads[path]++

	src, ok := d.libraries[path]
	if !ok {
		return nil, notExist(path)
	}
	lib := &domain.TaskLibrary{
		Name:    name,
		Project: src.Project,
		Tasks:   make(map[string]*domain.TaskModel, len(src.Tasks)),
		Order:   append([]string(nil), src.Order...),
		Types:   append([]typelib.Type(nil), d.types[path]...),
	}
	for modelName, m := range src.Tasks {
		cp := *m
		cp.Library = name
		lib.Tasks[modelName] = &cp
	}
	return lib, nil
}

// LoadDeployment returns a copy of the deployment called name at path.
func (d *Definitions) LoadDeployment(ctx context.Context, name, path string) (*domain.Deployment, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loads[path]++

	deps, ok := d.deployments[path]
	if !ok {
		return nil, notExist(path)
	}
	for _, dep := range deps {
		if dep.Name == name {
			cp := *dep
			cp.Activities = append([]domain.TaskActivity(nil), dep.Activities...)
			return &cp, nil
		}
	}
	return nil, &domain.NotFoundError{Kind: "deployment", Name: name}
}

// LoadTypes returns the types registered at path.
func (d *Definitions) LoadTypes(ctx context.Context, path string) ([]typelib.Type, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loads[path]++

	types, ok := d.types[path]
	if !ok {
		return nil, notExist(path)
	}
	return append([]typelib.Type(nil), types...), nil
}

// ReadTypelist returns the typelist registered at path.
func (d *Definitions) ReadTypelist(ctx context.Context, path string) (typelib.Typelist, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loads[path]++

	tl, ok := d.typelists[path]
	if !ok {
		return typelib.Typelist{}, notExist(path)
	}
	return tl, nil
}
