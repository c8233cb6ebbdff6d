package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetAndGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "dashboard:all", []byte(`{"a":1}`), time.Minute))

	value, ok, err := store.Get(ctx, "dashboard:all")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`{"a":1}`), value)

	_, ok, err = store.Get(ctx, "dashboard:missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Nanosecond))
	time.Sleep(time.Millisecond)

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_ZeroTTLNeverExpires(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 0))

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, store.Delete(ctx, "k"))

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_DeletePrefix(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "dashboard:all", []byte("a"), time.Minute))
	require.NoError(t, store.Set(ctx, "dashboard:branch-1", []byte("b"), time.Minute))
	require.NoError(t, store.Set(ctx, "other:key", []byte("c"), time.Minute))

	require.NoError(t, store.DeletePrefix(ctx, "dashboard:"))

	_, ok, _ := store.Get(ctx, "dashboard:all")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "dashboard:branch-1")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "other:key")
	assert.True(t, ok)
}
