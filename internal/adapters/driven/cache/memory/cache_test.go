package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGet(t *testing.T) {
	cache := NewCache()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", []byte("v"), time.Minute))

	val, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), val)
}

func TestCache_MissingKey(t *testing.T) {
	cache := NewCache()

	_, ok, err := cache.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	cache := NewCache()
	ctx := context.Background()

	now := time.Now()
	cache.now = func() time.Time { return now }
	require.NoError(t, cache.Set(ctx, "k", []byte("v"), time.Minute))

	// Still fresh just before the deadline.
	cache.now = func() time.Time { return now.Add(59 * time.Second) }
	_, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	// Expired after the TTL elapses.
	cache.now = func() time.Time { return now.Add(61 * time.Second) }
	_, ok, err = cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_Overwrite(t *testing.T) {
	cache := NewCache()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", []byte("old"), time.Minute))
	require.NoError(t, cache.Set(ctx, "k", []byte("new"), time.Minute))

	val, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("new"), val)
}
