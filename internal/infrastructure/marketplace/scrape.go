package marketplace

import (
	"errors"
	"time"

	"github.com/crosslister/backend/internal/domain/listing"
)

// scrapedItem is one listing as extracted from a closet/shop page
type scrapedItem struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Price  string `json:"price"`
	URL    string `json:"url"`
	Image  string `json:"image"`
	Status string `json:"status"`
}

// scrapedSale is one sold order as extracted from a sales/orders page
type scrapedSale struct {
	ItemID string `json:"itemId"`
	Title  string `json:"title"`
	Price  string `json:"price"`
	SoldAt string `json:"soldAt"`
}

// saleTimeLayouts are the timestamp formats seen on order pages
var saleTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02-01-2006",
}

// parseSaleTime parses a scraped order timestamp. An unparseable value
// falls back to the current time so the sale is still recorded.
func parseSaleTime(raw string) time.Time {
	for _, layout := range saleTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Now()
}

// classifyPageError wraps a browser automation failure. Already-classified
// errors pass through; everything else is transient, since scraping failures
// are usually timeouts, layout drift, or network hiccups.
func classifyPageError(platform listing.Platform, op string, err error) error {
	var ae *listing.AdapterError
	if errors.As(err, &ae) {
		return err
	}
	return listing.NewTransientError(platform, op, err)
}

// mapScrapedItem converts a scraped listing into the neutral shape
func mapScrapedItem(item scrapedItem, defaultStatus listing.ExternalStatus) listing.ExternalListing {
	ext := listing.ExternalListing{
		ExternalID: item.ID,
		Title:      item.Title,
		URL:        item.URL,
		Status:     defaultStatus,
	}
	if item.Image != "" {
		ext.Images = []string{item.Image}
	}
	if price, err := parsePrice(item.Price); err == nil {
		ext.Price = price
	}
	switch item.Status {
	case "sold":
		ext.Status = listing.ExternalStatusSold
	case "hidden", "deleted":
		ext.Status = listing.ExternalStatusDeleted
	}
	return ext
}

// mapScrapedSale converts a scraped order into the neutral shape
func mapScrapedSale(sale scrapedSale) listing.ExternalSale {
	ext := listing.ExternalSale{
		ExternalID: sale.ItemID,
		Title:      sale.Title,
		SoldAt:     parseSaleTime(sale.SoldAt),
	}
	if price, err := parsePrice(sale.Price); err == nil {
		ext.Price = price
	}
	return ext
}
