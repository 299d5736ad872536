package ports

import "context"

// NamingDirectory maps task names to the endpoint where the transport can
// reach them.
type NamingDirectory interface {
	// Resolve returns the endpoint registered under name.
	// Returns an error wrapping domain.ErrNotFound if the name is unknown.
	Resolve(ctx context.Context, name string) (string, error)

	// Unregister removes a (typically stale) entry. Unknown names are ignored.
	Unregister(ctx context.Context, name string) error

	// Register binds name to endpoint, replacing any previous binding.
	Register(ctx context.Context, name, endpoint string) error

	// List returns the registered names, sorted.
	List(ctx context.Context) ([]string, error)
}
