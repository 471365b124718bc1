package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/crosslister/backend/internal/domain/catalog"
)

// CreateProductRequest represents a request to add a catalog item
type CreateProductRequest struct {
	Title       string          `json:"title" binding:"required,max=255"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Category    string          `json:"category" binding:"max=100"`
	Size        string          `json:"size" binding:"max=50"`
	Condition   string          `json:"condition" binding:"max=50"`
	Brand       string          `json:"brand" binding:"max=100"`
	Color       string          `json:"color" binding:"max=50"`
	Images      []string        `json:"images"`
}

// UpdateProductRequest represents a request to update listing content
type UpdateProductRequest struct {
	Title       string          `json:"title" binding:"required,max=255"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" binding:"required"`
}

// UpdateProductAttributesRequest represents a request to set item attributes
type UpdateProductAttributesRequest struct {
	Category  string `json:"category" binding:"max=100"`
	Size      string `json:"size" binding:"max=50"`
	Condition string `json:"condition" binding:"max=50"`
	Brand     string `json:"brand" binding:"max=100"`
	Color     string `json:"color" binding:"max=50"`
}

// UpdateProductImagesRequest represents a request to replace product images
type UpdateProductImagesRequest struct {
	Images []string `json:"images" binding:"required"`
}

// ListProductsRequest represents query parameters for listing products
type ListProductsRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=active posted sold pending inactive"`
}

// ProductResponse represents a catalog item in API responses
type ProductResponse struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category,omitempty"`
	Size        string          `json:"size,omitempty"`
	Condition   string          `json:"condition,omitempty"`
	Brand       string          `json:"brand,omitempty"`
	Color       string          `json:"color,omitempty"`
	Images      []string        `json:"images"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ToProductResponse converts a product to its API representation
func ToProductResponse(p *catalog.Product) ProductResponse {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return ProductResponse{
		ID:          p.ID.String(),
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Size:        p.Size,
		Condition:   p.Condition,
		Brand:       p.Brand,
		Color:       p.Color,
		Images:      images,
		Status:      p.Status.String(),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ToProductResponses converts a slice of products
func ToProductResponses(products []catalog.Product) []ProductResponse {
	result := make([]ProductResponse, len(products))
	for i := range products {
		result[i] = ToProductResponse(&products[i])
	}
	return result
}
