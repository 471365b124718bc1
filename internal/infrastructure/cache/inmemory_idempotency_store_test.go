package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crosslister/backend/internal/infrastructure/config"
)

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	fresh, err := store.MarkProcessed(ctx, "sold:vinted:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, fresh)

	again, err := store.MarkProcessed(ctx, "sold:vinted:1", time.Minute)
	require.NoError(t, err)
	assert.False(t, again)

	processed, err := store.IsProcessed(ctx, "sold:vinted:1")
	require.NoError(t, err)
	assert.True(t, processed)

	other, err := store.IsProcessed(ctx, "sold:vinted:2")
	require.NoError(t, err)
	assert.False(t, other)
}

func TestInMemoryIdempotencyStore_Expiry(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "key", 10*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	processed, err := store.IsProcessed(ctx, "key")
	require.NoError(t, err)
	assert.False(t, processed)

	// An expired key can be claimed again
	fresh, err := store.MarkProcessed(ctx, "key", time.Minute)
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestInMemoryIdempotencyStore_Cleanup(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	_, _ = store.MarkProcessed(ctx, "a", 5*time.Millisecond)
	_, _ = store.MarkProcessed(ctx, "b", time.Hour)
	time.Sleep(10 * time.Millisecond)

	store.cleanup()
	assert.Equal(t, 1, store.Size())
}

func TestInMemoryIdempotencyStore_CloseTwice(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestNewIdempotencyStore_DisabledRedisFallsBackToMemory(t *testing.T) {
	store, err := NewIdempotencyStore(&config.RedisConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	_, ok := store.(*InMemoryIdempotencyStore)
	assert.True(t, ok)
}
