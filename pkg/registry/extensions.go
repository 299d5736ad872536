package registry

import (
	"context"
	"sync"
)

// ExtensionLoader reacts to the first task model declaring an extension. It
// typically registers extension-specific behavior (transformer support,
// stream aligners, ...).
type ExtensionLoader func(ctx context.Context, name string) error

// Extensions manages the callbacks registered per extension name.
type Extensions struct {
	mu      sync.RWMutex
	loaders map[string]ExtensionLoader
}

// NewExtensions creates a new empty table.
func NewExtensions() *Extensions {
	return &Extensions{
		loaders: make(map[string]ExtensionLoader),
	}
}

// Register sets the loader of an extension.
// If a loader with the same name exists, it is overwritten.
func (e *Extensions) Register(name string, fn ExtensionLoader) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loaders[name] = fn
}

// Load runs the loader registered for name. Extensions without a loader are
// not an error; found reports whether one was registered.
func (e *Extensions) Load(ctx context.Context, name string) (found bool, err error) {
	e.mu.RLock()
	fn, ok := e.loaders[name]
	e.mu.RUnlock()

	if !ok {
		return false, nil
	}
	return true, fn(ctx, name)
}
