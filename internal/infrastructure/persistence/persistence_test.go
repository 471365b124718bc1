package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/crosslister/backend/internal/domain/catalog"
	"github.com/crosslister/backend/internal/domain/listing"
	"github.com/crosslister/backend/internal/domain/sales"
	"github.com/crosslister/backend/internal/domain/shared"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&catalog.Product{}, &listing.Record{}, &sales.SaleEvent{})
	require.NoError(t, err)

	return db
}

func mustProduct(t *testing.T, title string) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(title, decimal.NewFromInt(40))
	require.NoError(t, err)
	return product
}

func TestProductRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	product := mustProduct(t, "Wool Jacket")
	product.SetImages([]string{"https://img/1.jpg", "https://img/2.jpg"})
	require.NoError(t, repo.Save(ctx, product))

	found, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Wool Jacket", found.Title)
	assert.Equal(t, catalog.ImageList{"https://img/1.jpg", "https://img/2.jpg"}, found.Images)
	assert.True(t, decimal.NewFromInt(40).Equal(found.Price))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestProductRepository_FindListable(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	active := mustProduct(t, "Active Item")
	posted := mustProduct(t, "Posted Item")
	require.NoError(t, posted.MarkPosted())
	sold := mustProduct(t, "Sold Item")
	require.NoError(t, sold.MarkSold())

	for _, p := range []*catalog.Product{active, posted, sold} {
		require.NoError(t, repo.Save(ctx, p))
	}

	listable, err := repo.FindListable(ctx)
	require.NoError(t, err)
	assert.Len(t, listable, 2)

	soldOnly, err := repo.FindByStatus(ctx, catalog.ProductStatusSold)
	require.NoError(t, err)
	assert.Len(t, soldOnly, 1)
	assert.Equal(t, "Sold Item", soldOnly[0].Title)
}

func TestProductRepository_DeleteCascadesListings(t *testing.T) {
	db := setupTestDB(t)
	products := NewGormProductRepository(db)
	listings := NewGormListingRepository(db)
	ctx := context.Background()

	product := mustProduct(t, "Jacket")
	require.NoError(t, products.Save(ctx, product))

	record, err := listing.NewRecord(product.ID, listing.PlatformVinted)
	require.NoError(t, err)
	require.NoError(t, listings.Save(ctx, record))

	require.NoError(t, products.Delete(ctx, product.ID))

	_, err = products.FindByID(ctx, product.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	remaining, err := listings.FindByProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestProductRepository_DeleteMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProductRepository(db)

	err := repo.Delete(context.Background(), mustProduct(t, "Ghost").ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListingRepository_UniquePerProductAndPlatform(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormListingRepository(db)
	ctx := context.Background()

	product := mustProduct(t, "Jacket")
	first, err := listing.NewRecord(product.ID, listing.PlatformVinted)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))

	duplicate, err := listing.NewRecord(product.ID, listing.PlatformVinted)
	require.NoError(t, err)
	assert.Error(t, repo.Save(ctx, duplicate))

	// Same product on another platform is fine
	other, err := listing.NewRecord(product.ID, listing.PlatformDepop)
	require.NoError(t, err)
	assert.NoError(t, repo.Save(ctx, other))
}

func TestListingRepository_FindByProductAndPlatform(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormListingRepository(db)
	ctx := context.Background()

	product := mustProduct(t, "Jacket")
	record, err := listing.NewRecord(product.ID, listing.PlatformVinted)
	require.NoError(t, err)
	require.NoError(t, record.MarkSynced("vnt-1", "https://vinted.com/items/vnt-1"))
	require.NoError(t, repo.Save(ctx, record))

	found, err := repo.FindByProductAndPlatform(ctx, product.ID, listing.PlatformVinted)
	require.NoError(t, err)
	assert.Equal(t, "vnt-1", found.ExternalID)

	_, err = repo.FindByProductAndPlatform(ctx, product.ID, listing.PlatformDepop)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	byExternal, err := repo.FindByPlatformExternalID(ctx, listing.PlatformVinted, "vnt-1")
	require.NoError(t, err)
	assert.Equal(t, record.ID, byExternal.ID)

	_, err = repo.FindByPlatformExternalID(ctx, listing.PlatformVinted, "")
	assert.Error(t, err)
}

func TestListingRepository_FindNeedingSync(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormListingRepository(db)
	ctx := context.Background()

	pending, _ := listing.NewRecord(mustProduct(t, "A").ID, listing.PlatformVinted)

	synced, _ := listing.NewRecord(mustProduct(t, "B").ID, listing.PlatformVinted)
	require.NoError(t, synced.MarkSynced("vnt-b", ""))

	failed, _ := listing.NewRecord(mustProduct(t, "C").ID, listing.PlatformDepop)
	failed.RecordFailure("timeout")

	sold, _ := listing.NewRecord(mustProduct(t, "D").ID, listing.PlatformVinted)
	require.NoError(t, sold.MarkSold())

	for _, rec := range []*listing.Record{pending, synced, failed, sold} {
		require.NoError(t, repo.Save(ctx, rec))
	}

	needing, err := repo.FindNeedingSync(ctx)
	require.NoError(t, err)
	assert.Len(t, needing, 2)
	for _, rec := range needing {
		assert.True(t, rec.NeedsSync)
		assert.False(t, rec.Status.IsTerminal())
	}
}

func TestListingRepository_FindActiveByPlatform(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormListingRepository(db)
	ctx := context.Background()

	live, _ := listing.NewRecord(mustProduct(t, "A").ID, listing.PlatformVinted)
	require.NoError(t, live.MarkSynced("vnt-1", ""))

	pending, _ := listing.NewRecord(mustProduct(t, "B").ID, listing.PlatformVinted)

	otherPlatform, _ := listing.NewRecord(mustProduct(t, "C").ID, listing.PlatformDepop)
	require.NoError(t, otherPlatform.MarkSynced("dp-1", ""))

	for _, rec := range []*listing.Record{live, pending, otherPlatform} {
		require.NoError(t, repo.Save(ctx, rec))
	}

	active, err := repo.FindActiveByPlatform(ctx, listing.PlatformVinted)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "vnt-1", active[0].ExternalID)
}

func TestSaleRepository_PendingEmission(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSaleRepository(db)
	ctx := context.Background()

	product := mustProduct(t, "Jacket")

	pending, err := sales.NewSaleEvent(product.ID, listing.PlatformVinted, "Jacket",
		decimal.NewFromInt(38), decimal.NewFromInt(2), product.CreatedAt)
	require.NoError(t, err)

	done, err := sales.NewSaleEvent(product.ID, listing.PlatformDepop, "Jacket",
		decimal.NewFromInt(35), decimal.Zero, product.CreatedAt)
	require.NoError(t, err)
	done.MarkLedgerSynced()
	done.MarkExported("row-1")

	require.NoError(t, repo.Save(ctx, pending))
	require.NoError(t, repo.Save(ctx, done))

	waiting, err := repo.FindPendingEmission(ctx)
	require.NoError(t, err)
	require.Len(t, waiting, 1)
	assert.Equal(t, pending.ID, waiting[0].ID)

	byProduct, err := repo.FindByProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Len(t, byProduct, 2)
}

func TestSaleRepository_RoundTripPreservesFlags(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSaleRepository(db)
	ctx := context.Background()

	event, err := sales.NewSaleEvent(mustProduct(t, "Jacket").ID, listing.PlatformVinted, "Jacket",
		decimal.NewFromInt(38), decimal.NewFromInt(2), time.Now())
	require.NoError(t, err)
	event.MarkApproximate()
	require.NoError(t, repo.Save(ctx, event))

	found, err := repo.FindByID(ctx, event.ID)
	require.NoError(t, err)
	assert.True(t, found.PriceApproximate)
	assert.True(t, decimal.NewFromInt(36).Equal(found.NetProfit))
}
