package marketplace

import (
	"github.com/shopspring/decimal"

	"github.com/crosslister/backend/internal/domain/listing"
)

// ---------------------------------------------------------------------------
// Wire Types
// ---------------------------------------------------------------------------

// tokenResponse is the OAuth2 client-credentials token envelope
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// priceModel carries the asking price in euro cents
type priceModel struct {
	ModelType   string `json:"modelType"`
	AskingPrice int64  `json:"askingPrice"`
}

// advertAttribute is one key/value attribute on an advertisement
type advertAttribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// advertRequest is the create/update payload for an advertisement
type advertRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	CategoryID  int               `json:"categoryId,omitempty"`
	PriceModel  priceModel        `json:"priceModel"`
	Attributes  []advertAttribute `json:"attributes,omitempty"`
	ImageURLs   []string          `json:"imageUrls,omitempty"`
}

// advertResponse is one advertisement as returned by the API
type advertResponse struct {
	ItemID      string            `json:"itemId"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	PriceModel  priceModel        `json:"priceModel"`
	Status      string            `json:"status"`
	WebsiteURL  string            `json:"websiteUrl"`
	ImageURLs   []string          `json:"imageUrls"`
	Attributes  []advertAttribute `json:"attributes"`
}

// advertListResponse is the paged listing envelope
type advertListResponse struct {
	Adverts []advertResponse `json:"adverts"`
	Paging  struct {
		Offset int `json:"offset"`
		Limit  int `json:"limit"`
		Total  int `json:"total"`
	} `json:"paging"`
}

// apiErrorResponse is the API failure envelope
type apiErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ---------------------------------------------------------------------------
// Mapping Helpers
// ---------------------------------------------------------------------------

// centsToDecimal converts euro cents to a decimal euro amount
func centsToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// decimalToCents converts a decimal euro amount to euro cents
func decimalToCents(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// mapAdvertStatus maps the API status to an external listing status
func mapAdvertStatus(status string) listing.ExternalStatus {
	switch status {
	case "ACTIVE", "PAUSED":
		return listing.ExternalStatusActive
	case "SOLD":
		return listing.ExternalStatusSold
	case "DELETED", "EXPIRED":
		return listing.ExternalStatusDeleted
	default:
		return listing.ExternalStatusUnknown
	}
}

// mapAdvert converts an API advertisement to an external listing
func mapAdvert(adv advertResponse) listing.ExternalListing {
	ext := listing.ExternalListing{
		ExternalID:  adv.ItemID,
		Title:       adv.Title,
		Description: adv.Description,
		Price:       centsToDecimal(adv.PriceModel.AskingPrice),
		URL:         adv.WebsiteURL,
		Images:      adv.ImageURLs,
		Status:      mapAdvertStatus(adv.Status),
	}
	for _, attr := range adv.Attributes {
		switch attr.Key {
		case "size":
			ext.Size = attr.Value
		case "condition":
			ext.Condition = attr.Value
		case "brand":
			ext.Brand = attr.Value
		}
	}
	return ext
}
