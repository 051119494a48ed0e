package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSetAndGet(t *testing.T) {
	client, _ := newTestRedisClient(t)
	cache := NewCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "directory:alice@bank", []byte(`{"handle":"alice@bank"}`), time.Minute))

	val, err := cache.Get(ctx, "directory:alice@bank")
	require.NoError(t, err)
	assert.JSONEq(t, `{"handle":"alice@bank"}`, string(val))
}

func TestCacheMissReturnsNil(t *testing.T) {
	client, _ := newTestRedisClient(t)
	cache := NewCache(client)

	val, err := cache.Get(context.Background(), "missing")

	assert.NoError(t, err)
	assert.Nil(t, val)
}

func TestCacheExpiry(t *testing.T) {
	client, mr := newTestRedisClient(t)
	cache := NewCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "short", []byte("v"), time.Second))
	mr.FastForward(2 * time.Second)

	val, err := cache.Get(ctx, "short")
	assert.NoError(t, err)
	assert.Nil(t, val)
}

func TestCacheDelete(t *testing.T) {
	client, mr := newTestRedisClient(t)
	cache := NewCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "foo", []byte("bar"), time.Minute))
	assert.True(t, mr.Exists(cache.prefix+"foo"))

	require.NoError(t, cache.Delete(ctx, "foo"))
	assert.False(t, mr.Exists(cache.prefix+"foo"))
}

func TestCacheUnavailable(t *testing.T) {
	client, mr := newTestRedisClient(t)
	cache := NewCache(client)
	mr.Close()

	_, err := cache.Get(context.Background(), "foo")
	assert.Error(t, err)
}
