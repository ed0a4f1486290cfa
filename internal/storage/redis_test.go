package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisStorage instance
func setupTestRedis(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStorage(client, 24*time.Hour), mr
}

func TestRedisStorage_SetGet(t *testing.T) {
	s, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "dev-1", KeyCart, `{"shopId":3}`))

	v, err := s.Get(ctx, "dev-1", KeyCart)
	require.NoError(t, err)
	assert.Equal(t, `{"shopId":3}`, v)
	assert.Equal(t, `{"shopId":3}`, mr.HGet("device:dev-1", KeyCart))
	assert.True(t, mr.TTL("device:dev-1") > 0, "device hash should carry a ttl")
}

func TestRedisStorage_Miss(t *testing.T) {
	s, _ := setupTestRedis(t)

	_, err := s.Get(context.Background(), "nobody", KeyAuth)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStorage_DeleteKeepsOtherKeys(t *testing.T) {
	s, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "dev-1", KeyPendingOrderID, "42"))
	require.NoError(t, s.Set(ctx, "dev-1", KeyPendingOrderTime, "1700000000000"))
	require.NoError(t, s.Set(ctx, "dev-1", KeySettings, `{"locale":"en"}`))

	require.NoError(t, s.Delete(ctx, "dev-1", KeyPendingOrderID, KeyPendingOrderTime))

	_, err := s.Get(ctx, "dev-1", KeyPendingOrderID)
	assert.ErrorIs(t, err, ErrNotFound)
	v, err := s.Get(ctx, "dev-1", KeySettings)
	require.NoError(t, err)
	assert.Equal(t, `{"locale":"en"}`, v)
}

func TestRedisStorage_ServerDown(t *testing.T) {
	s, mr := setupTestRedis(t)
	mr.Close()

	_, err := s.Get(context.Background(), "dev-1", KeyCart)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStorage(t *testing.T) {
	s := NewInMemoryStorage()
	ctx := context.Background()

	_, err := s.Get(ctx, "d", KeyCart)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "d", KeyCart, "x"))
	v, err := s.Get(ctx, "d", KeyCart)
	require.NoError(t, err)
	assert.Equal(t, "x", v)

	require.NoError(t, s.Delete(ctx, "d", KeyCart))
	_, err = s.Get(ctx, "d", KeyCart)
	assert.ErrorIs(t, err, ErrNotFound)
}
