package marketplace

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/crosslister/backend/internal/domain/listing"
	"github.com/crosslister/backend/internal/infrastructure/config"
)

const depopBaseURL = "https://www.depop.com"

// extractDepopItemsJS pulls the product grid from the shop profile page
const extractDepopItemsJS = `
	Array.from(document.querySelectorAll('[data-testid="product__item"]')).map(el => {
		const link = el.querySelector('a[href*="/products/"]');
		const href = link ? link.getAttribute('href') : '';
		const match = href.match(/\/products\/([^/?]+)/);
		return {
			id: match ? match[1] : '',
			title: (el.querySelector('img') || {}).alt || '',
			price: (el.querySelector('[data-testid="price"]') || {}).textContent || '',
			url: href ? new URL(href, location.origin).href : '',
			image: (el.querySelector('img') || {}).src || '',
			status: el.querySelector('[data-testid="soldOverlay"]') ? 'sold' : 'active'
		};
	}).filter(item => item.id !== '')
`

// extractDepopSalesJS pulls completed sales from the seller sold-items view
const extractDepopSalesJS = `
	Array.from(document.querySelectorAll('[data-testid="sales__row"]')).map(el => {
		const link = el.querySelector('a[href*="/products/"]');
		const href = link ? link.getAttribute('href') : '';
		const match = href.match(/\/products\/([^/?]+)/);
		const timeEl = el.querySelector('time');
		return {
			itemId: match ? match[1] : '',
			title: (el.querySelector('[data-testid="sales__title"]') || {}).textContent || '',
			price: (el.querySelector('[data-testid="sales__price"]') || {}).textContent || '',
			soldAt: timeEl ? (timeEl.getAttribute('datetime') || timeEl.textContent) : ''
		};
	}).filter(sale => sale.itemId !== '')
`

// DepopAdapter drives Depop through the shared browser session.
//
// Not safe for concurrent use; wrap with Serialize.
type DepopAdapter struct {
	session  *BrowserSession
	config   *config.DepopConfig
	logger   *zap.Logger
	loggedIn bool
}

// NewDepopAdapter creates a Depop browser-automation adapter
func NewDepopAdapter(session *BrowserSession, cfg *config.DepopConfig, logger *zap.Logger) (*DepopAdapter, error) {
	if session == nil {
		return nil, fmt.Errorf("browser session is required")
	}
	if cfg == nil || cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("depop username and password are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DepopAdapter{session: session, config: cfg, logger: logger}, nil
}

// Platform returns the platform identity
func (a *DepopAdapter) Platform() listing.Platform {
	return listing.PlatformDepop
}

// Authenticate logs in through the login form, reusing a profile session
// when one is still valid.
func (a *DepopAdapter) Authenticate(ctx context.Context) error {
	var currentURL string
	err := a.session.Run(ctx,
		chromedp.Navigate(depopBaseURL+"/login/"),
		chromedp.Sleep(2*time.Second),
		chromedp.Location(&currentURL),
	)
	if err != nil {
		return classifyPageError(a.Platform(), "authenticate", err)
	}

	if !strings.Contains(currentURL, "/login") {
		a.loggedIn = true
		a.logger.Debug("Depop session restored from profile")
		return nil
	}

	err = a.session.Run(ctx,
		chromedp.WaitVisible(`#username`, chromedp.ByQuery),
		chromedp.SendKeys(`#username`, a.config.Username, chromedp.ByQuery),
		chromedp.SendKeys(`#password`, a.config.Password, chromedp.ByQuery),
		chromedp.Click(`button[type="submit"]`, chromedp.ByQuery),
		chromedp.Sleep(3*time.Second),
		chromedp.Location(&currentURL),
	)
	if err != nil {
		return classifyPageError(a.Platform(), "authenticate", err)
	}
	if strings.Contains(currentURL, "/login") {
		return listing.NewAuthError(a.Platform(), "authenticate",
			fmt.Errorf("still on login page after submitting credentials"))
	}

	a.loggedIn = true
	a.logger.Info("Logged in to Depop", zap.String("username", a.config.Username))
	return nil
}

func (a *DepopAdapter) ensureLoggedIn(ctx context.Context) error {
	if a.loggedIn {
		return nil
	}
	return a.Authenticate(ctx)
}

// CreateListing publishes a new product through the listing form
func (a *DepopAdapter) CreateListing(ctx context.Context, draft listing.ListingDraft) (string, error) {
	if err := draft.Validate(); err != nil {
		return "", listing.NewPermanentError(a.Platform(), "create", err)
	}
	if err := a.ensureLoggedIn(ctx); err != nil {
		return "", err
	}

	var finalURL string
	err := a.session.Run(ctx,
		chromedp.Navigate(depopBaseURL+"/products/create"),
		chromedp.WaitVisible(`textarea[name="description"]`, chromedp.ByQuery),
		chromedp.SendKeys(`textarea[name="description"]`, depopDescription(draft), chromedp.ByQuery),
		chromedp.SendKeys(`input[name="price"]`, draft.Price.StringFixed(2), chromedp.ByQuery),
		chromedp.Click(`button[data-testid="listing-submit"]`, chromedp.ByQuery),
		chromedp.Sleep(3*time.Second),
		chromedp.Location(&finalURL),
	)
	if err != nil {
		return "", classifyPageError(a.Platform(), "create", err)
	}

	externalID := extractDepopSlug(finalURL)
	if externalID == "" {
		return "", listing.NewTransientError(a.Platform(), "create",
			fmt.Errorf("no product slug in post-submit url %q", finalURL))
	}

	a.logger.Info("Created Depop listing",
		zap.String("product", externalID),
		zap.String("title", draft.Title))
	return externalID, nil
}

// UpdateListing edits an existing product
func (a *DepopAdapter) UpdateListing(ctx context.Context, externalID string, draft listing.ListingDraft) error {
	if err := draft.Validate(); err != nil {
		return listing.NewPermanentError(a.Platform(), "update", err)
	}
	if err := a.ensureLoggedIn(ctx); err != nil {
		return err
	}

	var currentURL string
	err := a.session.Run(ctx,
		chromedp.Navigate(fmt.Sprintf("%s/products/%s/edit", depopBaseURL, externalID)),
		chromedp.Sleep(2*time.Second),
		chromedp.Location(&currentURL),
	)
	if err != nil {
		return classifyPageError(a.Platform(), "update", err)
	}
	if !strings.Contains(currentURL, "/edit") {
		return listing.NewPermanentError(a.Platform(), "update", listing.ErrListingNotFound)
	}

	err = a.session.Run(ctx,
		chromedp.WaitVisible(`textarea[name="description"]`, chromedp.ByQuery),
		chromedp.SetValue(`textarea[name="description"]`, depopDescription(draft), chromedp.ByQuery),
		chromedp.SetValue(`input[name="price"]`, draft.Price.StringFixed(2), chromedp.ByQuery),
		chromedp.Click(`button[data-testid="listing-submit"]`, chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
	)
	if err != nil {
		return classifyPageError(a.Platform(), "update", err)
	}
	return nil
}

// DeleteListing removes a product via the edit page
func (a *DepopAdapter) DeleteListing(ctx context.Context, externalID string) error {
	if err := a.ensureLoggedIn(ctx); err != nil {
		return err
	}

	err := a.session.Run(ctx,
		chromedp.Navigate(fmt.Sprintf("%s/products/%s/edit", depopBaseURL, externalID)),
		chromedp.Click(`button[data-testid="listing-delete"]`, chromedp.ByQuery),
		chromedp.Click(`button[data-testid="confirm-delete"]`, chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
	)
	if err != nil {
		status, statusErr := a.CheckListingStatus(ctx, externalID)
		if statusErr == nil && status == listing.ExternalStatusDeleted {
			return nil
		}
		return classifyPageError(a.Platform(), "delete", err)
	}
	return nil
}

// MarkAsSold marks a product sold via the edit page toggle
func (a *DepopAdapter) MarkAsSold(ctx context.Context, externalID string) error {
	if err := a.ensureLoggedIn(ctx); err != nil {
		return err
	}

	err := a.session.Run(ctx,
		chromedp.Navigate(fmt.Sprintf("%s/products/%s/edit", depopBaseURL, externalID)),
		chromedp.Click(`button[data-testid="mark-as-sold"]`, chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
	)
	if err != nil {
		return classifyPageError(a.Platform(), "mark_sold", err)
	}
	return nil
}

// ListActiveListings scrapes the seller's shop profile page
func (a *DepopAdapter) ListActiveListings(ctx context.Context) ([]listing.ExternalListing, error) {
	if err := a.ensureLoggedIn(ctx); err != nil {
		return nil, err
	}

	var items []scrapedItem
	err := a.session.Run(ctx,
		chromedp.Navigate(fmt.Sprintf("%s/%s/", depopBaseURL, a.config.Username)),
		chromedp.Sleep(3*time.Second),
		chromedp.Evaluate(extractDepopItemsJS, &items),
	)
	if err != nil {
		return nil, classifyPageError(a.Platform(), "list", err)
	}

	results := make([]listing.ExternalListing, 0, len(items))
	for _, item := range items {
		ext := mapScrapedItem(item, listing.ExternalStatusActive)
		if ext.Status == listing.ExternalStatusActive {
			results = append(results, ext)
		}
	}
	return results, nil
}

// GetSales scrapes the seller sold-items view
func (a *DepopAdapter) GetSales(ctx context.Context, since *time.Time) ([]listing.ExternalSale, error) {
	if err := a.ensureLoggedIn(ctx); err != nil {
		return nil, err
	}

	var sales []scrapedSale
	err := a.session.Run(ctx,
		chromedp.Navigate(depopBaseURL+"/sellinghub/sold-items"),
		chromedp.Sleep(3*time.Second),
		chromedp.Evaluate(extractDepopSalesJS, &sales),
	)
	if err != nil {
		return nil, classifyPageError(a.Platform(), "get_sales", err)
	}

	results := make([]listing.ExternalSale, 0, len(sales))
	for _, sale := range sales {
		ext := mapScrapedSale(sale)
		if since != nil && ext.SoldAt.Before(*since) {
			continue
		}
		results = append(results, ext)
	}
	return results, nil
}

// CheckListingStatus loads the product page and inspects its state markers
func (a *DepopAdapter) CheckListingStatus(ctx context.Context, externalID string) (listing.ExternalStatus, error) {
	if err := a.ensureLoggedIn(ctx); err != nil {
		return listing.ExternalStatusUnknown, err
	}

	var state string
	err := a.session.Run(ctx,
		chromedp.Navigate(fmt.Sprintf("%s/products/%s", depopBaseURL, externalID)),
		chromedp.Sleep(2*time.Second),
		chromedp.Evaluate(`
			(() => {
				if (document.querySelector('[data-testid="soldOverlay"]')) return 'sold';
				if (document.querySelector('[data-testid="product__title"]')) return 'active';
				if (document.title.toLowerCase().includes('not found')) return 'deleted';
				return 'unknown';
			})()
		`, &state),
	)
	if err != nil {
		return listing.ExternalStatusUnknown, classifyPageError(a.Platform(), "check_status", err)
	}

	switch state {
	case "active":
		return listing.ExternalStatusActive, nil
	case "sold":
		return listing.ExternalStatusSold, nil
	case "deleted":
		return listing.ExternalStatusDeleted, nil
	default:
		return listing.ExternalStatusUnknown, nil
	}
}

// Close drops the login flag
func (a *DepopAdapter) Close() error {
	a.loggedIn = false
	return nil
}

// depopDescription joins title and description: Depop has no separate title
// field, the first line of the description serves as one.
func depopDescription(draft listing.ListingDraft) string {
	if draft.Description == "" {
		return draft.Title
	}
	return draft.Title + "\n\n" + draft.Description
}

// extractDepopSlug pulls the product slug out of a product URL
func extractDepopSlug(pageURL string) string {
	idx := strings.Index(pageURL, "/products/")
	if idx == -1 {
		return ""
	}
	rest := pageURL[idx+len("/products/"):]
	if end := strings.IndexAny(rest, "/?#"); end != -1 {
		rest = rest[:end]
	}
	if rest == "create" {
		return ""
	}
	return rest
}

// Ensure DepopAdapter implements Adapter
var _ listing.Adapter = (*DepopAdapter)(nil)
