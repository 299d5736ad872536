package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/orocos/pkg/adapters/redis"
	"github.com/aretw0/orocos/pkg/domain"
	"github.com/aretw0/orocos/pkg/ports/tests"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisNaming_Contract(t *testing.T) {
	_, client := newClient(t)
	tests.NamingDirectoryContractTest(t, redis.NewFromClient(client))
}

func TestRedisNaming_Prefix(t *testing.T) {
	mr, client := newClient(t)
	ctx := context.Background()

	a := redis.NewFromClient(client, redis.WithPrefix("site-a:"))
	b := redis.NewFromClient(client, redis.WithPrefix("site-b:"))
	require.NoError(t, a.Register(ctx, "controller", "http://a:4000"))

	assert.Equal(t, "http://a:4000", mr.HGet("site-a:tasks", "controller"))

	_, err := b.Resolve(ctx, "controller")
	assert.ErrorIs(t, err, domain.ErrNotFound, "prefixes isolate directories")
}

func TestRedisNaming_ServerDown(t *testing.T) {
	mr, client := newClient(t)
	n := redis.NewFromClient(client)
	mr.Close()

	_, err := n.Resolve(context.Background(), "controller")
	assert.ErrorIs(t, err, domain.ErrCommunication)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestNewFromURL(t *testing.T) {
	mr, _ := newClient(t)
	n, err := redis.NewFromURL("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	defer n.Close()

	require.NoError(t, n.Register(context.Background(), "planner", "memory://planner"))
	names, err := n.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"planner"}, names)

	_, err = redis.NewFromURL("not a url")
	assert.Error(t, err)
}
