package catalog

import (
	"time"

	"github.com/crosslister/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductStatus represents the lifecycle status of a catalog item
type ProductStatus string

const (
	// ProductStatusActive means the item is in the catalog and available to list
	ProductStatusActive ProductStatus = "active"
	// ProductStatusPosted means the item has at least one live marketplace listing
	ProductStatusPosted ProductStatus = "posted"
	// ProductStatusSold means the item sold on some marketplace; terminal
	ProductStatusSold ProductStatus = "sold"
	// ProductStatusPending means the item is awaiting review or completion
	ProductStatusPending ProductStatus = "pending"
	// ProductStatusInactive means the item is withdrawn from listing
	ProductStatusInactive ProductStatus = "inactive"
)

// IsValid returns true if the status is a known product status
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusActive, ProductStatusPosted, ProductStatusSold,
		ProductStatusPending, ProductStatusInactive:
		return true
	default:
		return false
	}
}

// String returns the string representation of ProductStatus
func (s ProductStatus) String() string {
	return string(s)
}

// Product represents one item in the reseller's internal catalog.
// It is the aggregate root for catalog operations; the sync engine only
// mutates it for the sale-triggered status transition.
type Product struct {
	shared.BaseEntity
	Title       string          `gorm:"type:varchar(255);not null"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Images      ImageList       `gorm:"type:text;serializer:json"`
	Category    string          `gorm:"type:varchar(100)"`
	Size        string          `gorm:"type:varchar(50)"`
	Condition   string          `gorm:"type:varchar(50)"`
	Brand       string          `gorm:"type:varchar(100)"`
	Color       string          `gorm:"type:varchar(50)"`
	Status      ProductStatus   `gorm:"type:varchar(20);not null;default:'active';index"`
}

// ImageList is a JSON-serialized list of image URLs
type ImageList []string

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new catalog product
func NewProduct(title string, price decimal.Decimal) (*Product, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}

	return &Product{
		BaseEntity: shared.NewBaseEntity(),
		Title:      title,
		Price:      price,
		Images:     ImageList{},
		Status:     ProductStatusActive,
	}, nil
}

// Update updates the product's listing content. Content edits are what make
// existing marketplace listings stale, so callers are expected to flag the
// product's listings for re-sync afterwards.
func (p *Product) Update(title, description string, price decimal.Decimal) error {
	if err := validateTitle(title); err != nil {
		return err
	}
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}

	p.Title = title
	p.Description = description
	p.Price = price
	p.UpdatedAt = time.Now()

	return nil
}

// SetAttributes sets the free-form item attributes
func (p *Product) SetAttributes(category, size, condition, brand, color string) {
	p.Category = category
	p.Size = size
	p.Condition = condition
	p.Brand = brand
	p.Color = color
	p.UpdatedAt = time.Now()
}

// SetImages replaces the product's image references
func (p *Product) SetImages(images []string) {
	p.Images = images
	p.UpdatedAt = time.Now()
}

// MarkPosted records that the product has at least one live listing
func (p *Product) MarkPosted() error {
	if p.Status == ProductStatusSold {
		return shared.NewDomainError("ALREADY_SOLD", "Sold products cannot be re-posted")
	}
	p.Status = ProductStatusPosted
	p.UpdatedAt = time.Now()
	return nil
}

// MarkSold transitions the product to sold. The transition is one-directional:
// a sold product never becomes active again.
func (p *Product) MarkSold() error {
	if p.Status == ProductStatusSold {
		return shared.NewDomainError("ALREADY_SOLD", "Product is already sold")
	}
	p.Status = ProductStatusSold
	p.UpdatedAt = time.Now()
	return nil
}

// Deactivate withdraws the product from listing
func (p *Product) Deactivate() error {
	if p.Status == ProductStatusSold {
		return shared.NewDomainError("ALREADY_SOLD", "Sold products cannot be deactivated")
	}
	p.Status = ProductStatusInactive
	p.UpdatedAt = time.Now()
	return nil
}

// IsSold returns true if the product has been sold
func (p *Product) IsSold() bool {
	return p.Status == ProductStatusSold
}

// IsListable returns true if the product may be pushed to marketplaces
func (p *Product) IsListable() bool {
	return p.Status == ProductStatusActive || p.Status == ProductStatusPosted
}

func validateTitle(title string) error {
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Title cannot be empty")
	}
	if len(title) > 255 {
		return shared.NewDomainError("INVALID_TITLE", "Title cannot exceed 255 characters")
	}
	return nil
}
