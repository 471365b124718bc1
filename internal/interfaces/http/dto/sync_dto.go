package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/crosslister/backend/internal/domain/listing"
)

// SyncToPlatformRequest represents a request to push one product to a platform
type SyncToPlatformRequest struct {
	Platform string `json:"platform" binding:"required,platform"`
}

// CrossPostRequest represents a request to post a product on many platforms.
// An empty platform list means every registered platform.
type CrossPostRequest struct {
	Platforms []string `json:"platforms" binding:"omitempty,dive,platform"`
}

// MarkSoldRequest represents a request to record a sale and delist everywhere
type MarkSoldRequest struct {
	Platform  string          `json:"platform" binding:"required,platform"`
	SalePrice decimal.Decimal `json:"sale_price"`
	Fees      decimal.Decimal `json:"fees"`
	SoldAt    *time.Time      `json:"sold_at"`
}

// ImportRequest represents a request to import a platform's listings
type ImportRequest struct {
	Platform string `json:"platform" binding:"required,platform"`
}

// SoldCheckRequest represents query parameters for a sold-item check
type SoldCheckRequest struct {
	Since *time.Time `form:"since" time_format:"2006-01-02T15:04:05Z07:00"`
}

// ListingResponse represents a platform listing record in API responses
type ListingResponse struct {
	ID         string     `json:"id"`
	ProductID  string     `json:"product_id"`
	Platform   string     `json:"platform"`
	ExternalID string     `json:"external_id,omitempty"`
	URL        string     `json:"url,omitempty"`
	Status     string     `json:"status"`
	NeedsSync  bool       `json:"needs_sync"`
	LastError  string     `json:"last_error,omitempty"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
}

// ToListingResponse converts a listing record to its API representation
func ToListingResponse(r *listing.Record) ListingResponse {
	return ListingResponse{
		ID:         r.ID.String(),
		ProductID:  r.ProductID.String(),
		Platform:   r.Platform.String(),
		ExternalID: r.ExternalID,
		URL:        r.URL,
		Status:     string(r.Status),
		NeedsSync:  r.NeedsSync,
		LastError:  r.LastError,
		LastSyncAt: r.LastSyncAt,
	}
}

// ToListingResponses converts a slice of listing records
func ToListingResponses(records []listing.Record) []ListingResponse {
	result := make([]ListingResponse, len(records))
	for i := range records {
		result[i] = ToListingResponse(&records[i])
	}
	return result
}

// ParsePlatform validates and converts a platform string
func ParsePlatform(raw string) (listing.Platform, bool) {
	p := listing.Platform(raw)
	return p, p.IsValid()
}
