package orogen

import (
	"fmt"
	"strings"

	"github.com/aretw0/orocos/pkg/domain"
	"github.com/aretw0/orocos/pkg/typelib"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Document is the decoded content of a definition file.
type Document struct {
	Name        string               `mapstructure:"name"`
	Types       []typelib.Type       `mapstructure:"types"`
	Tasks       []domain.TaskModel   `mapstructure:"tasks"`
	Deployments []DeploymentDocument `mapstructure:"deployments"`
}

// DeploymentDocument is one deployment section of a definition file.
type DeploymentDocument struct {
	Name  string                `mapstructure:"name"`
	Tasks []domain.TaskActivity `mapstructure:"tasks"`
}

// Parse decodes a definition file. Unknown keys are rejected so that typos in
// hand-written files surface early.
func Parse(data []byte) (*Document, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse definition: %w", err)
	}

	var doc Document
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &doc,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid definition: %w", err)
	}

	for i, t := range doc.Types {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("types[%d]: %w", i, err)
		}
	}
	for i, m := range doc.Tasks {
		if m.Name == "" {
			return nil, fmt.Errorf("tasks[%d]: missing name", i)
		}
		for _, p := range m.Ports {
			if p.Direction != domain.PortInput && p.Direction != domain.PortOutput {
				return nil, fmt.Errorf("task %s: port %s: invalid direction %q", m.Name, p.Name, p.Direction)
			}
		}
	}
	return &doc, nil
}

// Qualify prefixes a task model name with the project namespace unless it
// already carries one.
func Qualify(project, model string) string {
	if project == "" || strings.Contains(model, "::") {
		return model
	}
	return project + "::" + model
}

// TaskLibrary builds the library called name from the document's tasks.
func (d *Document) TaskLibrary(name string) *domain.TaskLibrary {
	lib := &domain.TaskLibrary{
		Name:    name,
		Project: d.Name,
		Tasks:   make(map[string]*domain.TaskModel, len(d.Tasks)),
		Types:   append([]typelib.Type(nil), d.Types...),
	}
	for _, t := range d.Tasks {
		m := t
		m.Name = Qualify(d.Name, t.Name)
		m.Library = name
		if m.Superclass != "" {
			m.Superclass = Qualify(d.Name, m.Superclass)
		}
		if _, dup := lib.Tasks[m.Name]; !dup {
			lib.Order = append(lib.Order, m.Name)
		}
		lib.Tasks[m.Name] = &m
	}
	return lib
}

// Deployment returns the deployment called name. A document declaring a single
// deployment answers for any name, as deployment packages are named after the
// file rather than the section.
func (d *Document) Deployment(name string) (*domain.Deployment, error) {
	var found *DeploymentDocument
	for i := range d.Deployments {
		if d.Deployments[i].Name == name {
			found = &d.Deployments[i]
			break
		}
	}
	if found == nil && len(d.Deployments) == 1 {
		found = &d.Deployments[0]
	}
	if found == nil {
		return nil, &domain.NotFoundError{Kind: "deployment", Name: name}
	}

	dep := &domain.Deployment{Name: name, Project: d.Name}
	for _, act := range found.Tasks {
		act.Model = Qualify(d.Name, act.Model)
		dep.Activities = append(dep.Activities, act)
	}
	return dep, nil
}
