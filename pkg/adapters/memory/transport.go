package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/orocos/pkg/domain"
	"github.com/aretw0/orocos/pkg/ports"
)

// Transport implements ports.Transport over simulated tasks living in the same
// process. Endpoints are ignored; tasks are looked up by name.
type Transport struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

// NewTransport creates a transport hosting tasks.
func NewTransport(tasks ...*Task) *Transport {
	tr := &Transport{tasks: make(map[string]*Task)}
	for _, t := range tasks {
		tr.Add(t)
	}
	return tr
}

// Add hosts a task, replacing any task of the same name.
func (tr *Transport) Add(t *Task) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.tasks[t.Name()] = t
}

// Remove stops hosting the task called name, as if its process died.
func (tr *Transport) Remove(name string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	delete(tr.tasks, name)
}

// Task returns the hosted task called name.
func (tr *Transport) Task(name string) (ports.RemoteTask, bool) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	t, ok := tr.tasks[name]
	if !ok {
		return nil, false
	}
	return t, true
}

// Names returns the hosted task names, sorted.
func (tr *Transport) Names() []string {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	names := make([]string, 0, len(tr.tasks))
	for name := range tr.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Connect returns the hosted task called name.
func (tr *Transport) Connect(ctx context.Context, name, endpoint string) (ports.RemoteTask, error) {
	t, ok := tr.Task(name)
	if !ok {
		return nil, &domain.NotFoundError{Kind: "task", Name: name}
	}
	return t, nil
}

// Publish hosts every task on tr and registers it in naming under an
// in-process endpoint.
func Publish(ctx context.Context, tr *Transport, naming ports.NamingDirectory, tasks ...*Task) error {
	for _, t := range tasks {
		tr.Add(t)
		if err := naming.Register(ctx, t.Name(), "memory://"+t.Name()); err != nil {
			return err
		}
	}
	return nil
}
