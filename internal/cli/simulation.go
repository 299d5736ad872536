package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/orocos/pkg/adapters/memory"
	"github.com/aretw0/orocos/pkg/domain"
	"github.com/aretw0/orocos/pkg/task"
	"gopkg.in/yaml.v3"
)

// Simulation describes the tasks hosted by "orocos serve".
type Simulation struct {
	Tasks []SimulatedTask `yaml:"tasks"`
}

// SimulatedTask declares one hosted task. When Model resolves, the task gets
// the ports, properties and attributes of the model first; the members listed
// here are added on top.
type SimulatedTask struct {
	Name       string                 `yaml:"name"`
	Model      string                 `yaml:"model,omitempty"`
	State      string                 `yaml:"state,omitempty"`
	Ports      []domain.PortInfo      `yaml:"ports,omitempty"`
	Properties []domain.AttributeInfo `yaml:"properties,omitempty"`
	Attributes []domain.AttributeInfo `yaml:"attributes,omitempty"`
	// Samples are published on output ports at startup.
	Samples map[string]any `yaml:"samples,omitempty"`
}

// LoadSimulation reads a simulation file.
func LoadSimulation(path string) (*Simulation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSimulation(data)
}

// ParseSimulation parses and validates a simulation document.
func ParseSimulation(data []byte) (*Simulation, error) {
	var sim Simulation
	if err := yaml.Unmarshal(data, &sim); err != nil {
		return nil, fmt.Errorf("invalid simulation: %w", err)
	}

	seen := make(map[string]bool, len(sim.Tasks))
	for i, t := range sim.Tasks {
		if t.Name == "" {
			return nil, fmt.Errorf("invalid simulation: task #%d has no name", i+1)
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("invalid simulation: task '%s' is declared twice", t.Name)
		}
		seen[t.Name] = true
		if t.State != "" {
			if _, err := domain.ParseTaskState(t.State); err != nil {
				return nil, fmt.Errorf("invalid simulation: task '%s': %w", t.Name, err)
			}
		}
		for _, p := range t.Ports {
			if p.Direction != domain.PortInput && p.Direction != domain.PortOutput {
				return nil, fmt.Errorf("invalid simulation: port %s.%s: direction must be input or output", t.Name, p.Name)
			}
		}
	}
	return &sim, nil
}

// Build creates the simulated tasks. models may be nil; a model that does not
// resolve is only reported as the task's model name.
func (s *Simulation) Build(ctx context.Context, models task.ModelResolver) ([]*memory.Task, error) {
	tasks := make([]*memory.Task, 0, len(s.Tasks))
	for _, st := range s.Tasks {
		var opts []memory.TaskOption
		if st.State != "" {
			state, _ := domain.ParseTaskState(st.State)
			opts = append(opts, memory.WithState(state))
		}

		var t *memory.Task
		model, err := resolve(ctx, models, st.Model)
		switch {
		case err != nil:
			return nil, fmt.Errorf("task '%s': %w", st.Name, err)
		case model != nil:
			t = memory.NewTaskFromModel(st.Name, model, opts...)
		default:
			t = memory.NewTask(st.Name, append(opts, memory.WithModel(st.Model))...)
		}

		for _, p := range st.Ports {
			t.AddPort(p)
		}
		for _, a := range st.Properties {
			a.Property = true
			t.AddAttribute(a, a.Default)
		}
		for _, a := range st.Attributes {
			t.AddAttribute(a, a.Default)
		}
		for port, v := range st.Samples {
			t.Publish(port, v)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func resolve(ctx context.Context, models task.ModelResolver, name string) (*domain.TaskModel, error) {
	if models == nil || name == "" {
		return nil, nil
	}
	m, err := models.ResolveTaskModel(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return m, err
}
