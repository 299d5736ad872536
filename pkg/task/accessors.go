package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/orocos/pkg/domain"
)

// Get resolves member as a port, then as an attribute. A port yields its
// *Port proxy, an attribute its current value. When neither exists the error
// wraps domain.ErrNoSuchMember.
func (t *TaskContext) Get(ctx context.Context, member string) (any, error) {
	p, err := t.tryPort(ctx, member)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}
	a, err := t.tryAttribute(ctx, member)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, t.noSuchMember(member)
	}
	return a.Read(ctx)
}

// Set writes value to the attribute called member. When there is none the
// error wraps domain.ErrNoSuchMember.
func (t *TaskContext) Set(ctx context.Context, member string, value any) error {
	a, err := t.tryAttribute(ctx, member)
	if err != nil {
		return err
	}
	if a == nil {
		return t.noSuchMember(member)
	}
	return a.Write(ctx, value)
}

// tryPort returns nil, nil when the task has no port called name.
func (t *TaskContext) tryPort(ctx context.Context, name string) (*Port, error) {
	ok, err := t.HasPort(ctx, name)
	if err != nil || !ok {
		return nil, err
	}
	return t.Port(ctx, name)
}

// tryAttribute returns nil, nil when the task has no attribute called name.
func (t *TaskContext) tryAttribute(ctx context.Context, name string) (*Attribute, error) {
	a, err := t.Attribute(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return a, err
}

func (t *TaskContext) noSuchMember(member string) error {
	return fmt.Errorf("%w: '%s' on task '%s'", domain.ErrNoSuchMember, member, t.Name())
}
