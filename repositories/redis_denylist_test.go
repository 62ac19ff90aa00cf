package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisTokenDenylist(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	d := NewRedisTokenDenylist(rdb)

	revoked, err := d.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, d.Revoke(ctx, "jti-1", time.Minute))
	revoked, err = d.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Equal(t, time.Minute, mr.TTL(denylistPrefix+"jti-1"))

	mr.FastForward(2 * time.Minute)
	revoked, err = d.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisTokenDenylistExpiredToken(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	d := NewRedisTokenDenylist(rdb)

	require.NoError(t, d.Revoke(ctx, "jti-old", -time.Second))
	assert.False(t, mr.Exists(denylistPrefix+"jti-old"))
}

func TestRedisTokenDenylistUnavailable(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	d := NewRedisTokenDenylist(rdb)
	mr.Close()

	_, err := d.IsRevoked(ctx, "jti-1")
	assert.Error(t, err)
	assert.Error(t, d.Revoke(ctx, "jti-1", time.Minute))
}
