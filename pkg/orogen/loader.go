package orogen

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/aretw0/orocos/pkg/domain"
	"github.com/aretw0/orocos/pkg/typelib"
)

// Loader implements ports.DefinitionLoader over YAML definition files.
type Loader struct {
	readFile func(path string) ([]byte, error)
}

// Option configures the loader.
type Option func(*Loader)

// WithFS reads files from fsys instead of the OS filesystem. Absolute paths
// are made relative to the root of fsys.
func WithFS(fsys fs.FS) Option {
	return func(l *Loader) {
		l.readFile = func(path string) ([]byte, error) {
			return fs.ReadFile(fsys, strings.TrimPrefix(path, "/"))
		}
	}
}

// NewLoader creates a loader reading from the OS filesystem.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{readFile: os.ReadFile}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loader) parseFile(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if path == "" {
		return nil, fmt.Errorf("empty definition file path")
	}
	data, err := l.readFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// LoadTaskLibrary parses the task library definition at path.
func (l *Loader) LoadTaskLibrary(ctx context.Context, name, path string) (*domain.TaskLibrary, error) {
	doc, err := l.parseFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return doc.TaskLibrary(name), nil
}

// LoadDeployment parses the deployment definition at path.
func (l *Loader) LoadDeployment(ctx context.Context, name, path string) (*domain.Deployment, error) {
	doc, err := l.parseFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return doc.Deployment(name)
}

// LoadTypes parses a type kit registry file.
func (l *Loader) LoadTypes(ctx context.Context, path string) ([]typelib.Type, error) {
	doc, err := l.parseFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return doc.Types, nil
}

// ReadTypelist parses a ".typelist" file.
func (l *Loader) ReadTypelist(ctx context.Context, path string) (typelib.Typelist, error) {
	if err := ctx.Err(); err != nil {
		return typelib.Typelist{}, err
	}
	data, err := l.readFile(path)
	if err != nil {
		return typelib.Typelist{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	tl, err := typelib.ParseTypelist(data)
	if err != nil {
		return typelib.Typelist{}, fmt.Errorf("%s: %w", path, err)
	}
	return tl, nil
}
