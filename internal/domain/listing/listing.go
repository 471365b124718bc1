package listing

import (
	"time"

	"github.com/crosslister/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Status represents the local lifecycle state of one (product, platform) listing
type Status string

const (
	// StatusPending means the record exists but nothing was pushed yet
	StatusPending Status = "pending"
	// StatusActive means the listing is live on the platform
	StatusActive Status = "active"
	// StatusSold means the listing sold; terminal
	StatusSold Status = "sold"
	// StatusDeleted means the listing was removed; terminal
	StatusDeleted Status = "deleted"
	// StatusError means the last push attempt failed; retryable
	StatusError Status = "error"
)

// IsValid returns true if the status is a known listing status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusActive, StatusSold, StatusDeleted, StatusError:
		return true
	default:
		return false
	}
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true if no further transitions are allowed from s
func (s Status) IsTerminal() bool {
	return s == StatusSold || s == StatusDeleted
}

// Record tracks one product's presence on one platform. At most one record
// exists per (product, platform) pair; the unique index enforces it.
//
// NeedsSync is orthogonal to the status: it flags that local content changed
// and the platform copy is stale. The sweep clears it after a successful push.
type Record struct {
	shared.BaseEntity
	ProductID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_listing_product_platform;index"`
	Platform   Platform  `gorm:"type:varchar(30);not null;uniqueIndex:idx_listing_product_platform"`
	ExternalID string    `gorm:"type:varchar(255);index"`
	URL        string    `gorm:"type:varchar(500)"`
	Status     Status    `gorm:"type:varchar(20);not null;default:'pending';index"`
	NeedsSync  bool      `gorm:"not null;default:true;index"`
	LastError  string    `gorm:"type:text"`
	LastSyncAt *time.Time
}

// TableName returns the table name for GORM
func (Record) TableName() string {
	return "platform_listings"
}

// NewRecord creates a listing record for a product on a platform. It starts
// pending and flagged for sync; the first successful push activates it.
func NewRecord(productID uuid.UUID, platform Platform) (*Record, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID is required")
	}
	if !platform.IsValid() {
		return nil, shared.NewDomainError("INVALID_PLATFORM", "Unknown platform: "+platform.String())
	}

	return &Record{
		BaseEntity: shared.NewBaseEntity(),
		ProductID:  productID,
		Platform:   platform,
		Status:     StatusPending,
		NeedsSync:  true,
	}, nil
}

// MarkSynced records a successful push. It stores the external identity,
// clears the sync flag and any previous error, and activates the listing.
func (r *Record) MarkSynced(externalID, url string) error {
	if r.Status.IsTerminal() {
		return shared.NewDomainError("TERMINAL_LISTING", "Sold or deleted listings cannot be re-synced")
	}
	if externalID == "" {
		return shared.NewDomainError("INVALID_EXTERNAL_ID", "External ID is required")
	}

	now := time.Now()
	r.ExternalID = externalID
	if url != "" {
		r.URL = url
	}
	r.Status = StatusActive
	r.NeedsSync = false
	r.LastError = ""
	r.LastSyncAt = &now
	r.UpdatedAt = now
	return nil
}

// RecordFailure records a failed push attempt. The record stays flagged for
// sync so a later sweep retries it. Terminal records are left untouched.
func (r *Record) RecordFailure(message string) {
	if r.Status.IsTerminal() {
		return
	}
	r.Status = StatusError
	r.NeedsSync = true
	r.LastError = message
	r.UpdatedAt = time.Now()
}

// MarkSold transitions the listing to sold. Idempotent.
func (r *Record) MarkSold() error {
	if r.Status == StatusSold {
		return nil
	}
	if r.Status == StatusDeleted {
		return shared.NewDomainError("TERMINAL_LISTING", "Deleted listings cannot be marked sold")
	}
	r.Status = StatusSold
	r.NeedsSync = false
	r.LastError = ""
	r.UpdatedAt = time.Now()
	return nil
}

// MarkDeleted transitions the listing to deleted. Idempotent.
func (r *Record) MarkDeleted() error {
	if r.Status == StatusDeleted {
		return nil
	}
	if r.Status == StatusSold {
		return shared.NewDomainError("TERMINAL_LISTING", "Sold listings cannot be marked deleted")
	}
	r.Status = StatusDeleted
	r.NeedsSync = false
	r.UpdatedAt = time.Now()
	return nil
}

// FlagForSync marks the platform copy as stale. No-op on terminal records.
func (r *Record) FlagForSync() {
	if r.Status.IsTerminal() {
		return
	}
	r.NeedsSync = true
	r.UpdatedAt = time.Now()
}

// IsLive returns true if the listing is believed active on the platform
func (r *Record) IsLive() bool {
	return r.Status == StatusActive && r.ExternalID != ""
}

// HasExternal returns true if the record carries a platform identity
func (r *Record) HasExternal() bool {
	return r.ExternalID != ""
}
