package marketplace

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosslister/backend/internal/domain/listing"
)

// fakeAdapter is a minimal adapter that tracks concurrent entry
type fakeAdapter struct {
	platform listing.Platform
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	closed   atomic.Int32
}

func (f *fakeAdapter) enter() {
	current := f.inFlight.Add(1)
	for {
		max := f.maxSeen.Load()
		if current <= max || f.maxSeen.CompareAndSwap(max, current) {
			break
		}
	}
	time.Sleep(time.Millisecond)
	f.inFlight.Add(-1)
}

func (f *fakeAdapter) Platform() listing.Platform { return f.platform }
func (f *fakeAdapter) Authenticate(ctx context.Context) error {
	f.enter()
	return nil
}
func (f *fakeAdapter) ListActiveListings(ctx context.Context) ([]listing.ExternalListing, error) {
	f.enter()
	return nil, nil
}
func (f *fakeAdapter) CreateListing(ctx context.Context, draft listing.ListingDraft) (string, error) {
	f.enter()
	return "x1", nil
}
func (f *fakeAdapter) UpdateListing(ctx context.Context, externalID string, draft listing.ListingDraft) error {
	f.enter()
	return nil
}
func (f *fakeAdapter) DeleteListing(ctx context.Context, externalID string) error {
	f.enter()
	return nil
}
func (f *fakeAdapter) MarkAsSold(ctx context.Context, externalID string) error {
	f.enter()
	return nil
}
func (f *fakeAdapter) GetSales(ctx context.Context, since *time.Time) ([]listing.ExternalSale, error) {
	f.enter()
	return nil, nil
}
func (f *fakeAdapter) CheckListingStatus(ctx context.Context, externalID string) (listing.ExternalStatus, error) {
	f.enter()
	return listing.ExternalStatusActive, nil
}
func (f *fakeAdapter) Close() error {
	f.closed.Add(1)
	return nil
}

func TestAdapterRegistry_GetAndPlatforms(t *testing.T) {
	vinted := &fakeAdapter{platform: listing.PlatformVinted}
	depop := &fakeAdapter{platform: listing.PlatformDepop}

	registry, err := NewAdapterRegistry(vinted, depop)
	require.NoError(t, err)

	got, err := registry.Get(listing.PlatformVinted)
	require.NoError(t, err)
	assert.Equal(t, listing.PlatformVinted, got.Platform())

	_, err = registry.Get(listing.PlatformMarktplaats)
	assert.ErrorIs(t, err, listing.ErrPlatformUnknown)

	assert.Equal(t, []listing.Platform{listing.PlatformDepop, listing.PlatformVinted}, registry.Platforms())
	assert.Len(t, registry.List(), 2)
}

func TestAdapterRegistry_DuplicatePlatform(t *testing.T) {
	_, err := NewAdapterRegistry(
		&fakeAdapter{platform: listing.PlatformVinted},
		&fakeAdapter{platform: listing.PlatformVinted},
	)
	assert.Error(t, err)
}

func TestAdapterRegistry_CloseClosesAll(t *testing.T) {
	vinted := &fakeAdapter{platform: listing.PlatformVinted}
	depop := &fakeAdapter{platform: listing.PlatformDepop}

	registry, err := NewAdapterRegistry(vinted, depop)
	require.NoError(t, err)

	require.NoError(t, registry.Close())
	assert.Equal(t, int32(1), vinted.closed.Load())
	assert.Equal(t, int32(1), depop.closed.Load())
}

func TestSerialize_OneOperationAtATime(t *testing.T) {
	inner := &fakeAdapter{platform: listing.PlatformVinted}
	adapter := Serialize(inner)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = adapter.CreateListing(ctx, listing.ListingDraft{})
			_ = adapter.MarkAsSold(ctx, "x1")
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), inner.maxSeen.Load())
}

func TestSerialize_Idempotent(t *testing.T) {
	inner := &fakeAdapter{platform: listing.PlatformVinted}
	wrapped := Serialize(inner)
	assert.Same(t, wrapped, Serialize(wrapped))
}
