package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewClientWithRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestIdempotencyKeyLifecycle(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	reserved, existing, err := c.ReserveIdempotencyKey(ctx, "tablet-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, reserved)
	assert.Zero(t, existing)

	// in flight: rejected without an id
	reserved, existing, err = c.ReserveIdempotencyKey(ctx, "tablet-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.Zero(t, existing)

	require.NoError(t, c.CompleteIdempotencyKey(ctx, "tablet-1", 42, time.Hour))
	reserved, existing, err = c.ReserveIdempotencyKey(ctx, "tablet-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.Equal(t, int64(42), existing)

	mr.FastForward(2 * time.Hour)
	reserved, _, err = c.ReserveIdempotencyKey(ctx, "tablet-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, reserved)
}

func TestReleaseIdempotencyKey(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	_, _, err := c.ReserveIdempotencyKey(ctx, "tablet-2", time.Hour)
	require.NoError(t, err)
	require.NoError(t, c.ReleaseIdempotencyKey(ctx, "tablet-2"))

	reserved, _, err := c.ReserveIdempotencyKey(ctx, "tablet-2", time.Hour)
	require.NoError(t, err)
	assert.True(t, reserved)
}

func TestLockReleaseRequiresToken(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	token, ok, err := c.AcquireLock(ctx, "catalog-resync", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = c.AcquireLock(ctx, "catalog-resync", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.ReleaseLock(ctx, "catalog-resync", "someone-else"))
	assert.True(t, mr.Exists("lock:catalog-resync"))

	require.NoError(t, c.ReleaseLock(ctx, "catalog-resync", token))
	assert.False(t, mr.Exists("lock:catalog-resync"))
}

func TestPing(t *testing.T) {
	c, mr := newTestClient(t)
	require.NoError(t, c.Ping(context.Background()))

	mr.Close()
	assert.Error(t, c.Ping(context.Background()))
}
