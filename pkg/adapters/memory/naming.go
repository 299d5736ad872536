package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/orocos/pkg/domain"
)

// Naming implements ports.NamingDirectory in memory.
// Safe for concurrent use.
type Naming struct {
	entries map[string]string
	mu      sync.RWMutex
}

// NewNaming creates an empty naming directory.
func NewNaming() *Naming {
	return &Naming{
		entries: make(map[string]string),
	}
}

// Resolve returns the endpoint registered under name.
func (n *Naming) Resolve(ctx context.Context, name string) (string, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	endpoint, ok := n.entries[name]
	if !ok {
		return "", &domain.NotFoundError{Kind: "task", Name: name}
	}
	return endpoint, nil
}

// Unregister removes name.
func (n *Naming) Unregister(ctx context.Context, name string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.entries, name)
	return nil
}

// Register binds name to endpoint.
func (n *Naming) Register(ctx context.Context, name, endpoint string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries[name] = endpoint
	return nil
}

// List returns the registered names.
func (n *Naming) List(ctx context.Context) ([]string, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	names := make([]string, 0, len(n.entries))
	for name := range n.entries {
		names = append(names, name)
	}
	sort.Strings(names) // Deterministic order
	return names, nil
}
