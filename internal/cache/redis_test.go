package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisBackend) {
	t.Helper()
	mr := miniredis.RunT(t)
	backend, err := NewRedisBackend(RedisOptions{Addr: mr.Addr(), Timeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })
	return mr, backend
}

func TestRedisBackendGetSet(t *testing.T) {
	ctx := context.Background()
	mr, backend := newTestRedis(t)

	_, found, err := backend.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, backend.Set(ctx, "directors:d1", []byte(`{"id":"d1"}`), 600*time.Second))
	val, found, err := backend.Get(ctx, "directors:d1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"id":"d1"}`, string(val))
	assert.Equal(t, 600*time.Second, mr.TTL("directors:d1"))

	mr.FastForward(601 * time.Second)
	_, found, err = backend.Get(ctx, "directors:d1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisBackendDelete(t *testing.T) {
	ctx := context.Background()
	mr, backend := newTestRedis(t)

	require.NoError(t, mr.Set("a", "1"))
	require.NoError(t, mr.Set("b", "2"))
	require.NoError(t, backend.Delete(ctx, "a", "b"))
	assert.False(t, mr.Exists("a"))
	assert.False(t, mr.Exists("b"))
	require.NoError(t, backend.Delete(ctx))
}

func TestRedisBackendDeleteByPattern(t *testing.T) {
	ctx := context.Background()
	mr, backend := newTestRedis(t)

	for i := 0; i < 250; i++ {
		require.NoError(t, mr.Set(fmt.Sprintf("movies:list:page=%d", i), "x"))
	}
	require.NoError(t, mr.Set("movies:m1:expand=false", "x"))
	require.NoError(t, mr.Set("directors:list:page=1", "x"))

	n, err := backend.DeleteByPattern(ctx, "movies:list:*")
	require.NoError(t, err)
	assert.Equal(t, int64(250), n)
	assert.ElementsMatch(t, []string{"movies:m1:expand=false", "directors:list:page=1"}, mr.Keys())

	n, err = backend.DeleteByPattern(ctx, "movies:list:*")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisBackendPingAndFailure(t *testing.T) {
	ctx := context.Background()
	mr, backend := newTestRedis(t)

	require.NoError(t, backend.Ping(ctx))

	mr.SetError("ERR server unavailable")
	assert.Error(t, backend.Ping(ctx))
	_, _, err := backend.Get(ctx, "k")
	assert.Error(t, err)
}

func TestRedisBackendBreakerOpens(t *testing.T) {
	ctx := context.Background()
	mr, backend := newTestRedis(t)
	require.NoError(t, backend.Ping(ctx))
	mr.SetError("ERR boom")

	for i := 0; i < 5; i++ {
		_, _, _ = backend.Get(ctx, "k")
	}
	mr.SetError("")

	_, _, err := backend.Get(ctx, "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")
}

func TestNewRedisBackendFromURL(t *testing.T) {
	mr := miniredis.RunT(t)
	backend, err := NewRedisBackend(RedisOptions{URL: "redis://" + mr.Addr() + "/0"})
	require.NoError(t, err)
	defer backend.Close()
	require.NoError(t, backend.Ping(context.Background()))

	_, err = NewRedisBackend(RedisOptions{URL: "http://nope"})
	assert.Error(t, err)
	_, err = NewRedisBackend(RedisOptions{})
	assert.Error(t, err)
}

func TestGateOverRedis(t *testing.T) {
	ctx := context.Background()
	_, backend := newTestRedis(t)
	gate := NewGate(backend, GateOptions{Enabled: true, DefaultTTL: time.Minute})

	gate.Set(ctx, "k", payload{Name: "Coppola"}, 0)
	var got payload
	require.True(t, gate.Get(ctx, "k", &got))
	assert.Equal(t, "Coppola", got.Name)
	assert.True(t, gate.IsHealthy(ctx))
}
