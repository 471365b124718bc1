package sync

import (
	"context"
	gosync "sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/crosslister/backend/internal/domain/catalog"
	"github.com/crosslister/backend/internal/domain/listing"
	"github.com/crosslister/backend/internal/domain/sales"
	"github.com/crosslister/backend/internal/domain/shared"
)

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByStatus(ctx context.Context, status catalog.ProductStatus) ([]catalog.Product, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindListable(ctx context.Context) ([]catalog.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockListingRepository is a mock implementation of listing.Repository
type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*listing.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.Record), args.Error(1)
}

func (m *MockListingRepository) FindByProductAndPlatform(ctx context.Context, productID uuid.UUID, platform listing.Platform) (*listing.Record, error) {
	args := m.Called(ctx, productID, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.Record), args.Error(1)
}

func (m *MockListingRepository) FindByPlatformExternalID(ctx context.Context, platform listing.Platform, externalID string) (*listing.Record, error) {
	args := m.Called(ctx, platform, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.Record), args.Error(1)
}

func (m *MockListingRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]listing.Record, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]listing.Record), args.Error(1)
}

func (m *MockListingRepository) FindActiveByProduct(ctx context.Context, productID uuid.UUID) ([]listing.Record, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]listing.Record), args.Error(1)
}

func (m *MockListingRepository) FindNeedingSync(ctx context.Context) ([]listing.Record, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]listing.Record), args.Error(1)
}

func (m *MockListingRepository) FindActiveByPlatform(ctx context.Context, platform listing.Platform) ([]listing.Record, error) {
	args := m.Called(ctx, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]listing.Record), args.Error(1)
}

func (m *MockListingRepository) Save(ctx context.Context, record *listing.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockListingRepository) DeleteByProduct(ctx context.Context, productID uuid.UUID) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

// MockSaleRepository is a mock implementation of sales.Repository
type MockSaleRepository struct {
	mock.Mock
}

func (m *MockSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.SaleEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.SaleEvent), args.Error(1)
}

func (m *MockSaleRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]sales.SaleEvent, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sales.SaleEvent), args.Error(1)
}

func (m *MockSaleRepository) FindSince(ctx context.Context, since time.Time) ([]sales.SaleEvent, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sales.SaleEvent), args.Error(1)
}

func (m *MockSaleRepository) FindPendingEmission(ctx context.Context) ([]sales.SaleEvent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sales.SaleEvent), args.Error(1)
}

func (m *MockSaleRepository) Save(ctx context.Context, event *sales.SaleEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockAdapter is a mock implementation of listing.Adapter
type MockAdapter struct {
	mock.Mock
	platform listing.Platform
}

func NewMockAdapter(platform listing.Platform) *MockAdapter {
	return &MockAdapter{platform: platform}
}

func (m *MockAdapter) Platform() listing.Platform {
	return m.platform
}

func (m *MockAdapter) Authenticate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockAdapter) ListActiveListings(ctx context.Context) ([]listing.ExternalListing, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]listing.ExternalListing), args.Error(1)
}

func (m *MockAdapter) CreateListing(ctx context.Context, draft listing.ListingDraft) (string, error) {
	args := m.Called(ctx, draft)
	return args.String(0), args.Error(1)
}

func (m *MockAdapter) UpdateListing(ctx context.Context, externalID string, draft listing.ListingDraft) error {
	args := m.Called(ctx, externalID, draft)
	return args.Error(0)
}

func (m *MockAdapter) DeleteListing(ctx context.Context, externalID string) error {
	args := m.Called(ctx, externalID)
	return args.Error(0)
}

func (m *MockAdapter) MarkAsSold(ctx context.Context, externalID string) error {
	args := m.Called(ctx, externalID)
	return args.Error(0)
}

func (m *MockAdapter) GetSales(ctx context.Context, since *time.Time) ([]listing.ExternalSale, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]listing.ExternalSale), args.Error(1)
}

func (m *MockAdapter) CheckListingStatus(ctx context.Context, externalID string) (listing.ExternalStatus, error) {
	args := m.Called(ctx, externalID)
	return args.Get(0).(listing.ExternalStatus), args.Error(1)
}

func (m *MockAdapter) Close() error {
	args := m.Called()
	return args.Error(0)
}

// stubRegistry serves a fixed set of adapters keyed by platform
type stubRegistry struct {
	adapters map[listing.Platform]listing.Adapter
	order    []listing.Platform
}

func newStubRegistry(adapters ...listing.Adapter) *stubRegistry {
	r := &stubRegistry{adapters: make(map[listing.Platform]listing.Adapter)}
	for _, a := range adapters {
		r.adapters[a.Platform()] = a
		r.order = append(r.order, a.Platform())
	}
	return r
}

func (r *stubRegistry) Get(platform listing.Platform) (listing.Adapter, error) {
	a, ok := r.adapters[platform]
	if !ok {
		return nil, listing.ErrPlatformUnknown
	}
	return a, nil
}

func (r *stubRegistry) List() []listing.Adapter {
	out := make([]listing.Adapter, 0, len(r.order))
	for _, p := range r.order {
		out = append(out, r.adapters[p])
	}
	return out
}

func (r *stubRegistry) Platforms() []listing.Platform {
	return append([]listing.Platform(nil), r.order...)
}

// memoryIdempotency is an in-memory idempotency store for tests
type memoryIdempotency struct {
	mu   gosync.Mutex
	seen map[string]bool
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{seen: make(map[string]bool)}
}

func (m *memoryIdempotency) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[key] {
		return false, nil
	}
	m.seen[key] = true
	return true, nil
}

func (m *memoryIdempotency) IsProcessed(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen[key], nil
}

// MockLedger is a mock implementation of Ledger
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) RecordSale(ctx context.Context, event *sales.SaleEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockRowExporter is a mock implementation of RowExporter
type MockRowExporter struct {
	mock.Mock
}

func (m *MockRowExporter) AppendSaleRow(ctx context.Context, event *sales.SaleEvent) (string, error) {
	args := m.Called(ctx, event)
	return args.String(0), args.Error(1)
}

// Interface compliance checks for the doubles
var (
	_ catalog.ProductRepository = (*MockProductRepository)(nil)
	_ listing.Repository        = (*MockListingRepository)(nil)
	_ sales.Repository          = (*MockSaleRepository)(nil)
	_ listing.Adapter           = (*MockAdapter)(nil)
	_ listing.Registry          = (*stubRegistry)(nil)
	_ shared.IdempotencyStore   = (*memoryIdempotency)(nil)
	_ Ledger                    = (*MockLedger)(nil)
	_ RowExporter               = (*MockRowExporter)(nil)
)
