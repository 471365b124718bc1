package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for sale event persistence
type Repository interface {
	// FindByID finds a sale event by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*SaleEvent, error)

	// FindByProduct finds all sale events for a product
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]SaleEvent, error)

	// FindSince finds all sale events sold at or after the given time
	FindSince(ctx context.Context, since time.Time) ([]SaleEvent, error)

	// FindPendingEmission finds events not yet delivered to every consumer
	FindPendingEmission(ctx context.Context) ([]SaleEvent, error)

	// Save creates or updates a sale event
	Save(ctx context.Context, event *SaleEvent) error
}
