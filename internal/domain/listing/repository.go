package listing

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for listing record persistence
type Repository interface {
	// FindByID finds a record by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Record, error)

	// FindByProductAndPlatform finds the record for one (product, platform) pair
	FindByProductAndPlatform(ctx context.Context, productID uuid.UUID, platform Platform) (*Record, error)

	// FindByPlatformExternalID finds a record by its platform identity
	FindByPlatformExternalID(ctx context.Context, platform Platform, externalID string) (*Record, error)

	// FindByProduct finds all records for a product
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]Record, error)

	// FindActiveByProduct finds the product's records believed live
	FindActiveByProduct(ctx context.Context, productID uuid.UUID) ([]Record, error)

	// FindNeedingSync finds all non-terminal records flagged for sync
	FindNeedingSync(ctx context.Context) ([]Record, error)

	// FindActiveByPlatform finds all live records on one platform
	FindActiveByPlatform(ctx context.Context, platform Platform) ([]Record, error)

	// Save creates or updates a record
	Save(ctx context.Context, record *Record) error

	// DeleteByProduct removes all records for a product
	DeleteByProduct(ctx context.Context, productID uuid.UUID) error
}
