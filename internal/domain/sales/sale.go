package sales

import (
	"time"

	"github.com/crosslister/backend/internal/domain/listing"
	"github.com/crosslister/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleEvent records one confirmed sale of a product on a platform.
// It is append-only: once created it is only annotated with downstream
// bookkeeping state, never rewritten.
type SaleEvent struct {
	shared.BaseEntity
	ProductID uuid.UUID        `gorm:"type:uuid;not null;index"`
	Platform  listing.Platform `gorm:"type:varchar(30);not null;index"`
	// ExternalID is the platform listing the sale came from, when known
	ExternalID string          `gorm:"type:varchar(255)"`
	Title      string          `gorm:"type:varchar(255);not null"`
	SalePrice  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Fees       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	NetProfit  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	// PriceApproximate is set when the sale was discovered externally and the
	// price is the last known list price rather than the settled amount.
	PriceApproximate bool      `gorm:"not null;default:false"`
	SoldAt           time.Time `gorm:"not null;index"`
	// LedgerSynced tracks whether the event reached the bookkeeping ledger
	LedgerSynced bool `gorm:"not null;default:false;index"`
	// ExportSynced tracks whether the event was written to the export sheet
	ExportSynced bool   `gorm:"not null;default:false;index"`
	ExportRowRef string `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (SaleEvent) TableName() string {
	return "sale_events"
}

// NewSaleEvent creates a sale event for a product sold on a platform.
// Fees are subtracted from the sale price to derive the net profit.
func NewSaleEvent(productID uuid.UUID, platform listing.Platform, title string, salePrice, fees decimal.Decimal, soldAt time.Time) (*SaleEvent, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID is required")
	}
	if !platform.IsValid() {
		return nil, shared.NewDomainError("INVALID_PLATFORM", "Unknown platform: "+platform.String())
	}
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Title is required")
	}
	if salePrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Sale price cannot be negative")
	}
	if fees.IsNegative() {
		return nil, shared.NewDomainError("INVALID_FEES", "Fees cannot be negative")
	}
	if soldAt.IsZero() {
		soldAt = time.Now()
	}

	return &SaleEvent{
		BaseEntity: shared.NewBaseEntity(),
		ProductID:  productID,
		Platform:   platform,
		Title:      title,
		SalePrice:  salePrice,
		Fees:       fees,
		NetProfit:  salePrice.Sub(fees),
		SoldAt:     soldAt,
	}, nil
}

// MarkApproximate flags the sale price as a last-known list price
func (s *SaleEvent) MarkApproximate() {
	s.PriceApproximate = true
	s.UpdatedAt = time.Now()
}

// MarkLedgerSynced records that the event reached the bookkeeping ledger
func (s *SaleEvent) MarkLedgerSynced() {
	s.LedgerSynced = true
	s.UpdatedAt = time.Now()
}

// MarkExported records that the event was written to the export sheet
func (s *SaleEvent) MarkExported(rowRef string) {
	s.ExportSynced = true
	s.ExportRowRef = rowRef
	s.UpdatedAt = time.Now()
}

// IsFullyEmitted returns true once every downstream consumer has the event
func (s *SaleEvent) IsFullyEmitted() bool {
	return s.LedgerSynced && s.ExportSynced
}
