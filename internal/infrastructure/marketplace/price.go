package marketplace

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// parsePrice extracts a decimal amount from a scraped price string.
// Handles currency symbols, trailing text, and both European ("1.234,56")
// and English ("1,234.56") separators.
func parsePrice(raw string) (decimal.Decimal, error) {
	// Take the first run of digits and separators, dropping currency
	// symbols and trailing text like "incl. verzending"
	start := strings.IndexFunc(raw, func(r rune) bool { return r >= '0' && r <= '9' })
	if start == -1 {
		return decimal.Zero, fmt.Errorf("no amount in price string %q", raw)
	}
	end := start
	for end < len(raw) {
		c := raw[end]
		if (c < '0' || c > '9') && c != '.' && c != ',' {
			break
		}
		end++
	}
	cleaned := strings.TrimRight(raw[start:end], ".,")

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")

	switch {
	case lastComma > lastDot:
		// European style: comma is the decimal separator
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	case lastDot > lastComma:
		// English style: commas are thousands separators
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	price, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("cannot parse price %q: %w", raw, err)
	}
	return price, nil
}
