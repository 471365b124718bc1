package marketplace

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/crosslister/backend/internal/domain/listing"
)

// AdapterRegistry holds the configured marketplace adapters keyed by
// platform. Each adapter is wrapped so its calls are serialized; adapters
// hold single browser or HTTP sessions that cannot be shared concurrently.
type AdapterRegistry struct {
	adapters map[listing.Platform]listing.Adapter
}

// NewAdapterRegistry builds a registry from the given adapters. Registering
// two adapters for the same platform is a wiring bug.
func NewAdapterRegistry(adapters ...listing.Adapter) (*AdapterRegistry, error) {
	registry := &AdapterRegistry{
		adapters: make(map[listing.Platform]listing.Adapter, len(adapters)),
	}
	for _, adapter := range adapters {
		platform := adapter.Platform()
		if _, exists := registry.adapters[platform]; exists {
			return nil, fmt.Errorf("duplicate adapter for platform %s", platform)
		}
		registry.adapters[platform] = Serialize(adapter)
	}
	return registry, nil
}

// Get returns the adapter for the platform
func (r *AdapterRegistry) Get(platform listing.Platform) (listing.Adapter, error) {
	adapter, ok := r.adapters[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", listing.ErrPlatformUnknown, platform)
	}
	return adapter, nil
}

// List returns all registered adapters in stable platform order
func (r *AdapterRegistry) List() []listing.Adapter {
	adapters := make([]listing.Adapter, 0, len(r.adapters))
	for _, platform := range r.Platforms() {
		adapters = append(adapters, r.adapters[platform])
	}
	return adapters
}

// Platforms returns the registered platform codes in stable order
func (r *AdapterRegistry) Platforms() []listing.Platform {
	platforms := make([]listing.Platform, 0, len(r.adapters))
	for platform := range r.adapters {
		platforms = append(platforms, platform)
	}
	sort.Slice(platforms, func(i, j int) bool { return platforms[i] < platforms[j] })
	return platforms
}

// Close closes every registered adapter, returning the first failure
func (r *AdapterRegistry) Close() error {
	var firstErr error
	for _, adapter := range r.adapters {
		if err := adapter.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Ensure AdapterRegistry implements Registry
var _ listing.Registry = (*AdapterRegistry)(nil)

// ---------------------------------------------------------------------------
// Serialization Decorator
// ---------------------------------------------------------------------------

// serializedAdapter wraps an adapter with a mutex so concurrent callers
// (sweep and API requests) take turns instead of corrupting the session.
type serializedAdapter struct {
	mu    sync.Mutex
	inner listing.Adapter
}

// Serialize wraps an adapter so only one operation runs at a time.
// Wrapping an already-serialized adapter returns it unchanged.
func Serialize(adapter listing.Adapter) listing.Adapter {
	if _, ok := adapter.(*serializedAdapter); ok {
		return adapter
	}
	return &serializedAdapter{inner: adapter}
}

func (s *serializedAdapter) Platform() listing.Platform {
	return s.inner.Platform()
}

func (s *serializedAdapter) Authenticate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Authenticate(ctx)
}

func (s *serializedAdapter) ListActiveListings(ctx context.Context) ([]listing.ExternalListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.ListActiveListings(ctx)
}

func (s *serializedAdapter) CreateListing(ctx context.Context, draft listing.ListingDraft) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.CreateListing(ctx, draft)
}

func (s *serializedAdapter) UpdateListing(ctx context.Context, externalID string, draft listing.ListingDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.UpdateListing(ctx, externalID, draft)
}

func (s *serializedAdapter) DeleteListing(ctx context.Context, externalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.DeleteListing(ctx, externalID)
}

func (s *serializedAdapter) MarkAsSold(ctx context.Context, externalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.MarkAsSold(ctx, externalID)
}

func (s *serializedAdapter) GetSales(ctx context.Context, since *time.Time) ([]listing.ExternalSale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.GetSales(ctx, since)
}

func (s *serializedAdapter) CheckListingStatus(ctx context.Context, externalID string) (listing.ExternalStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.CheckListingStatus(ctx, externalID)
}

func (s *serializedAdapter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Close()
}

// Ensure serializedAdapter implements Adapter
var _ listing.Adapter = (*serializedAdapter)(nil)
