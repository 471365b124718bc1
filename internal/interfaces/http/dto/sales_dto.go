package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/crosslister/backend/internal/domain/sales"
)

// ListSalesRequest represents query parameters for listing sale events
type ListSalesRequest struct {
	ProductID string     `form:"product_id" binding:"omitempty,uuid"`
	Since     *time.Time `form:"since" time_format:"2006-01-02T15:04:05Z07:00"`
}

// SaleEventResponse represents a sale event in API responses
type SaleEventResponse struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"product_id"`
	Platform         string          `json:"platform"`
	ExternalID       string          `json:"external_id,omitempty"`
	Title            string          `json:"title"`
	SalePrice        decimal.Decimal `json:"sale_price"`
	Fees             decimal.Decimal `json:"fees"`
	NetProfit        decimal.Decimal `json:"net_profit"`
	PriceApproximate bool            `json:"price_approximate"`
	SoldAt           time.Time       `json:"sold_at"`
	LedgerSynced     bool            `json:"ledger_synced"`
	ExportSynced     bool            `json:"export_synced"`
	ExportRowRef     string          `json:"export_row_ref,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// ToSaleEventResponse converts a sale event to its API representation
func ToSaleEventResponse(e *sales.SaleEvent) SaleEventResponse {
	return SaleEventResponse{
		ID:               e.ID.String(),
		ProductID:        e.ProductID.String(),
		Platform:         e.Platform.String(),
		ExternalID:       e.ExternalID,
		Title:            e.Title,
		SalePrice:        e.SalePrice,
		Fees:             e.Fees,
		NetProfit:        e.NetProfit,
		PriceApproximate: e.PriceApproximate,
		SoldAt:           e.SoldAt,
		LedgerSynced:     e.LedgerSynced,
		ExportSynced:     e.ExportSynced,
		ExportRowRef:     e.ExportRowRef,
		CreatedAt:        e.CreatedAt,
	}
}

// ToSaleEventResponses converts a slice of sale events
func ToSaleEventResponses(events []sales.SaleEvent) []SaleEventResponse {
	result := make([]SaleEventResponse, len(events))
	for i := range events {
		result[i] = ToSaleEventResponse(&events[i])
	}
	return result
}
