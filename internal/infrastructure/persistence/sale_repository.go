package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crosslister/backend/internal/domain/sales"
	"github.com/crosslister/backend/internal/domain/shared"
)

// GormSaleRepository implements sales.Repository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByID finds a sale event by its ID
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.SaleEvent, error) {
	var event sales.SaleEvent
	if err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

// FindByProduct finds all sale events for a product
func (r *GormSaleRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]sales.SaleEvent, error) {
	var events []sales.SaleEvent
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("sold_at DESC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// FindSince finds all sale events sold at or after the given time
func (r *GormSaleRepository) FindSince(ctx context.Context, since time.Time) ([]sales.SaleEvent, error) {
	var events []sales.SaleEvent
	if err := r.db.WithContext(ctx).
		Where("sold_at >= ?", since).
		Order("sold_at DESC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// FindPendingEmission finds events not yet delivered to every consumer
func (r *GormSaleRepository) FindPendingEmission(ctx context.Context) ([]sales.SaleEvent, error) {
	var events []sales.SaleEvent
	if err := r.db.WithContext(ctx).
		Where("ledger_synced = ? OR export_synced = ?", false, false).
		Order("sold_at").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// Save creates or updates a sale event
func (r *GormSaleRepository) Save(ctx context.Context, event *sales.SaleEvent) error {
	return r.db.WithContext(ctx).Save(event).Error
}

// Ensure GormSaleRepository implements sales.Repository
var _ sales.Repository = (*GormSaleRepository)(nil)
