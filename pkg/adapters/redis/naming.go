// Package redis provides a naming directory shared through Redis, so that
// components started on several hosts can be found by name.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aretw0/orocos/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix is the key prefix used when none is configured.
const DefaultPrefix = "orocos:naming:"

// Naming implements ports.NamingDirectory with a Redis hash mapping task
// names to endpoints.
type Naming struct {
	client *backend.Client
	prefix string
}

type Option func(*Naming)

// WithPrefix sets the key prefix, e.g. to isolate several systems sharing one
// Redis server.
func WithPrefix(prefix string) Option {
	return func(n *Naming) {
		n.prefix = prefix
	}
}

// New creates a naming directory on a new Redis client.
func New(address, password string, db int, opts ...Option) *Naming {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromURL creates a naming directory from a redis:// URL.
func NewFromURL(url string, opts ...Option) (*Naming, error) {
	o, err := backend.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewFromClient(backend.NewClient(o), opts...), nil
}

// NewFromClient creates a naming directory from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Naming {
	n := &Naming{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Naming) key() string {
	return n.prefix + "tasks"
}

// Resolve returns the endpoint registered under name.
func (n *Naming) Resolve(ctx context.Context, name string) (string, error) {
	endpoint, err := n.client.HGet(ctx, n.key(), name).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return "", &domain.NotFoundError{Kind: "task", Name: name}
		}
		return "", fmt.Errorf("%w: failed to resolve %s: %v", domain.ErrCommunication, name, err)
	}
	return endpoint, nil
}

// Register binds name to endpoint, replacing any previous binding.
func (n *Naming) Register(ctx context.Context, name, endpoint string) error {
	if err := n.client.HSet(ctx, n.key(), name, endpoint).Err(); err != nil {
		return fmt.Errorf("%w: failed to register %s: %v", domain.ErrCommunication, name, err)
	}
	return nil
}

// Unregister removes name. Unknown names are ignored.
func (n *Naming) Unregister(ctx context.Context, name string) error {
	if err := n.client.HDel(ctx, n.key(), name).Err(); err != nil {
		return fmt.Errorf("%w: failed to unregister %s: %v", domain.ErrCommunication, name, err)
	}
	return nil
}

// List returns the registered names, sorted.
func (n *Naming) List(ctx context.Context) ([]string, error) {
	names, err := n.client.HKeys(ctx, n.key()).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list names: %v", domain.ErrCommunication, err)
	}
	sort.Strings(names)
	return names, nil
}

// Close closes the redis client.
func (n *Naming) Close() error {
	return n.client.Close()
}
