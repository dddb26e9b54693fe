package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func TestRedisStore_SaveLoad(t *testing.T) {
	client, mr := setupRedis(t)
	store := NewRedisStore(client, "board", 5*time.Minute)
	ctx := context.Background()

	_, ok, err := store.Load(ctx, "dexscreener:tokens:1")
	require.NoError(t, err)
	assert.False(t, ok)

	e := Entry{Key: "dexscreener:tokens:1", Value: []byte("payload"), StoredAtMs: 1234}
	require.NoError(t, store.Save(ctx, e))

	assert.True(t, mr.Exists("board:dexscreener:tokens:1"))
	assert.Equal(t, 5*time.Minute, mr.TTL("board:dexscreener:tokens:1"))

	got, ok, err := store.Load(ctx, "dexscreener:tokens:1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, e, got)
}

func TestRedisStore_RetentionExpiry(t *testing.T) {
	client, mr := setupRedis(t)
	store := NewRedisStore(client, "", time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, Entry{Key: "k", Value: []byte("v")}))
	mr.FastForward(2 * time.Minute)

	_, ok, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_WithCacheTTL(t *testing.T) {
	client, _ := setupRedis(t)
	clock := newFakeClock()
	c := New(
		WithStore(NewRedisStore(client, "board", 5*DefaultTTL)),
		WithClock(clock.Now),
	)
	ctx := context.Background()

	c.Set(ctx, "rpc:eth_call:1", []byte("0x12"))
	got, ok := c.Get(ctx, "rpc:eth_call:1")
	require.True(t, ok)
	assert.Equal(t, []byte("0x12"), got)

	// Still in Redis, but stale by the cache's own clock.
	clock.Advance(DefaultTTL)
	_, ok = c.Get(ctx, "rpc:eth_call:1")
	assert.False(t, ok)
}

func TestRedisStore_Unavailable(t *testing.T) {
	client, mr := setupRedis(t)
	store := NewRedisStore(client, "board", time.Minute)
	mr.Close()

	_, _, err := store.Load(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, store.Save(context.Background(), Entry{Key: "k"}))
}

func TestLRUStore_Evicts(t *testing.T) {
	store, err := NewLRUStore(2)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, Entry{Key: "a"}))
	require.NoError(t, store.Save(ctx, Entry{Key: "b"}))

	// Touch a so b becomes least recently used.
	_, ok, _ := store.Load(ctx, "a")
	require.True(t, ok)

	require.NoError(t, store.Save(ctx, Entry{Key: "c"}))
	assert.Equal(t, 2, store.Len())

	_, ok, _ = store.Load(ctx, "b")
	assert.False(t, ok, "b should have been evicted")
	_, ok, _ = store.Load(ctx, "a")
	assert.True(t, ok)
}

func TestLRUStore_InvalidSize(t *testing.T) {
	_, err := NewLRUStore(0)
	assert.Error(t, err)
}
