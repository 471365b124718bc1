package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crosslister/backend/internal/domain/listing"
	"github.com/crosslister/backend/internal/domain/shared"
)

// GormListingRepository implements listing.Repository using GORM
type GormListingRepository struct {
	db *gorm.DB
}

// NewGormListingRepository creates a new GormListingRepository
func NewGormListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

// FindByID finds a record by its ID
func (r *GormListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*listing.Record, error) {
	var record listing.Record
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByProductAndPlatform finds the record for one (product, platform) pair
func (r *GormListingRepository) FindByProductAndPlatform(ctx context.Context, productID uuid.UUID, platform listing.Platform) (*listing.Record, error) {
	var record listing.Record
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND platform = ?", productID, platform).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByPlatformExternalID finds a record by its platform identity
func (r *GormListingRepository) FindByPlatformExternalID(ctx context.Context, platform listing.Platform, externalID string) (*listing.Record, error) {
	if externalID == "" {
		return nil, shared.NewDomainError("INVALID_EXTERNAL_ID", "External ID cannot be empty")
	}
	var record listing.Record
	if err := r.db.WithContext(ctx).
		Where("platform = ? AND external_id = ?", platform, externalID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByProduct finds all records for a product
func (r *GormListingRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]listing.Record, error) {
	var records []listing.Record
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("platform").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// FindActiveByProduct finds the product's records believed live
func (r *GormListingRepository) FindActiveByProduct(ctx context.Context, productID uuid.UUID) ([]listing.Record, error) {
	var records []listing.Record
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND status = ?", productID, listing.StatusActive).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// FindNeedingSync finds all non-terminal records flagged for sync
func (r *GormListingRepository) FindNeedingSync(ctx context.Context) ([]listing.Record, error) {
	var records []listing.Record
	if err := r.db.WithContext(ctx).
		Where("needs_sync = ? AND status NOT IN ?", true,
			[]listing.Status{listing.StatusSold, listing.StatusDeleted}).
		Order("updated_at").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// FindActiveByPlatform finds all live records on one platform
func (r *GormListingRepository) FindActiveByPlatform(ctx context.Context, platform listing.Platform) ([]listing.Record, error) {
	var records []listing.Record
	if err := r.db.WithContext(ctx).
		Where("platform = ? AND status = ? AND external_id <> ''", platform, listing.StatusActive).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Save creates or updates a record
func (r *GormListingRepository) Save(ctx context.Context, record *listing.Record) error {
	return r.db.WithContext(ctx).Save(record).Error
}

// DeleteByProduct removes all records for a product
func (r *GormListingRepository) DeleteByProduct(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&listing.Record{}).Error
}

// Ensure GormListingRepository implements listing.Repository
var _ listing.Repository = (*GormListingRepository)(nil)
