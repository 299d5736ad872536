// Package loam loads task model definitions from a directory of documents
// (Markdown with front matter, YAML or JSON) managed by Loam. It serves the
// "dummy models" use case: describing components that are not installed as
// packages, e.g. for simulation or tests.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/orocos/pkg/domain"
	"github.com/aretw0/orocos/pkg/orogen"
)

// DefaultLibrary is the task library name given to loaded models.
const DefaultLibrary = "dummy"

// ModelMetadata is the front matter of a model document. The document body,
// if any, becomes the model documentation.
type ModelMetadata struct {
	Name       string                 `json:"name" mapstructure:"name"`
	Superclass string                 `json:"superclass,omitempty" mapstructure:"superclass"`
	Implements []string               `json:"implements,omitempty" mapstructure:"implements"`
	Ports      []domain.PortInfo      `json:"ports,omitempty" mapstructure:"ports"`
	Properties []domain.AttributeInfo `json:"properties,omitempty" mapstructure:"properties"`
	Attributes []domain.AttributeInfo `json:"attributes,omitempty" mapstructure:"attributes"`
	Extensions []string               `json:"extensions,omitempty" mapstructure:"extensions"`
}

// ModelSource reads task models from a Loam repository.
type ModelSource struct {
	Repo    *loam.TypedRepository[ModelMetadata]
	library string
}

// Option configures a ModelSource.
type Option func(*ModelSource)

// WithLibrary sets the task library (and project) name of the loaded models.
// Model names without a "project::" prefix are qualified with it.
func WithLibrary(name string) Option {
	return func(s *ModelSource) {
		if name != "" {
			s.library = name
		}
	}
}

// New creates a model source over repo.
func New(repo *loam.TypedRepository[ModelMetadata], opts ...Option) *ModelSource {
	s := &ModelSource{Repo: repo, library: DefaultLibrary}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open opens the directory at path read-only.
func Open(path string, opts ...Option) (*ModelSource, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[ModelMetadata](repo), opts...), nil
}

// Library returns the task library name of the loaded models.
func (s *ModelSource) Library() string { return s.library }

func (s *ModelSource) toModel(docID string, meta ModelMetadata, content string) *domain.TaskModel {
	name := meta.Name
	if name == "" {
		name = trimExtension(docID)
	}
	m := &domain.TaskModel{
		Name:       orogen.Qualify(s.library, name),
		Library:    s.library,
		Superclass: meta.Superclass,
		Implements: meta.Implements,
		Ports:      meta.Ports,
		Properties: meta.Properties,
		Attributes: meta.Attributes,
		Extensions: meta.Extensions,
		Doc:        strings.TrimSpace(content),
	}
	if m.Superclass != "" {
		m.Superclass = orogen.Qualify(s.library, m.Superclass)
	}
	return m
}

// Model loads the model described by the document id.
func (s *ModelSource) Model(ctx context.Context, id string) (*domain.TaskModel, error) {
	doc, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}
	return s.toModel(doc.ID, doc.Data, doc.Content), nil
}

// TaskLibrary loads every document of the repository as a task library. Two
// documents defining the same model name are an error.
func (s *ModelSource) TaskLibrary(ctx context.Context) (*domain.TaskLibrary, error) {
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	lib := &domain.TaskLibrary{
		Name:    s.library,
		Project: s.library,
		Tasks:   make(map[string]*domain.TaskModel, len(docs)),
	}
	seen := make(map[string]string, len(docs))
	for _, doc := range docs {
		// List only carries metadata; the body comes from Get.
		m, err := s.Model(ctx, doc.ID)
		if err != nil {
			return nil, err
		}
		if existing, ok := seen[m.Name]; ok {
			return nil, fmt.Errorf("collision detected: model '%s' is defined in both '%s' and '%s'", m.Name, existing, doc.ID)
		}
		seen[m.Name] = doc.ID
		lib.Tasks[m.Name] = m
		lib.Order = append(lib.Order, m.Name)
	}
	sort.Strings(lib.Order)
	return lib, nil
}

// Watch reports the id of every changed model document until ctx is done.
func (s *ModelSource) Watch(ctx context.Context) (<-chan string, error) {
	events, err := s.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- evt.ID:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
