package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnhub/api/internal/config"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), s
}

func TestNewRedisClientPings(t *testing.T) {
	s := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), config.RedisConfig{Addr: s.Addr()})
	require.NoError(t, err)
	defer client.Close()

	s.Close()
	_, err = NewRedisClient(context.Background(), config.RedisConfig{Addr: s.Addr()})
	assert.Error(t, err)
}

func TestRedisStoreGetSetDel(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, store.Set(ctx, "k", "v", 0))
	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	require.NoError(t, store.Del(ctx, "k"))
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisStoreTTL(t *testing.T) {
	store, s := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "short", "v", time.Minute))
	require.NoError(t, store.Set(ctx, "forever", "v", 0))

	s.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = store.Get(ctx, "forever")
	assert.NoError(t, err)
}

func TestMemoryStoreTTL(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "short", "v", time.Minute))
	require.NoError(t, store.Set(ctx, "forever", "v", 0))

	now = now.Add(2 * time.Minute)

	_, err := store.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrMiss)
	got, err := store.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}
