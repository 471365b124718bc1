package shared

import (
	"context"
	"time"
)

// IdempotencyStore tracks which outbound deliveries have already been
// acknowledged so that repeated delivery of the same record is a no-op.
type IdempotencyStore interface {
	// MarkProcessed marks a key as processed with a TTL.
	// Returns true if the key was newly marked, false if it was already processed.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a key has already been processed
	IsProcessed(ctx context.Context, key string) (bool, error)
}
