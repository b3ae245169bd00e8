package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/providers"
)

func TestMemoryAdapter_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryAdapter()

	require.NoError(t, cache.Set(ctx, "k", []byte("v1"), 60))
	got, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	got[0] = 'X'
	again, _ := cache.Get(ctx, "k")
	assert.Equal(t, []byte("v1"), again)

	exists, err := cache.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, cache.Delete(ctx, "k"))
	_, err = cache.Get(ctx, "k")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}

func TestMemoryAdapter_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	cache := NewMemoryAdapter()
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.Set(ctx, "short", []byte("1"), 10))
	require.NoError(t, cache.Set(ctx, "forever", []byte("2"), 0))

	now = now.Add(11 * time.Second)

	_, err := cache.Get(ctx, "short")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
	exists, _ := cache.Exists(ctx, "short")
	assert.False(t, exists)

	got, err := cache.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), got)
}

func TestMemoryAdapter_SetSweepsExpiredEntries(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	cache := NewMemoryAdapter()
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.Set(ctx, "session:abandoned", []byte("1"), 10))
	require.NoError(t, cache.Set(ctx, "forever", []byte("2"), 0))

	// expired but inside the sweep interval, so still held
	now = now.Add(30 * time.Second)
	require.NoError(t, cache.Set(ctx, "session:a", []byte("3"), 3600))
	assert.Len(t, cache.entries, 3)

	now = now.Add(sweepInterval)
	require.NoError(t, cache.Set(ctx, "session:b", []byte("4"), 3600))

	assert.Len(t, cache.entries, 3)
	assert.NotContains(t, cache.entries, "session:abandoned")
	assert.Contains(t, cache.entries, "forever")
	assert.Contains(t, cache.entries, "session:a")
}
