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

const vintedBaseURL = "https://www.vinted.nl"

// extractVintedItemsJS pulls the item grid from a closet page
const extractVintedItemsJS = `
	Array.from(document.querySelectorAll('[data-testid="grid-item"]')).map(el => {
		const link = el.querySelector('a[href*="/items/"]');
		const href = link ? link.getAttribute('href') : '';
		const match = href.match(/\/items\/(\d+)/);
		return {
			id: match ? match[1] : '',
			title: (el.querySelector('[data-testid="item-title"]') || {}).textContent || '',
			price: (el.querySelector('[data-testid="item-price"]') || {}).textContent || '',
			url: href ? new URL(href, location.origin).href : '',
			image: (el.querySelector('img') || {}).src || '',
			status: el.querySelector('[data-testid="item-sold-badge"]') ? 'sold' : 'active'
		};
	}).filter(item => item.id !== '')
`

// extractVintedSalesJS pulls completed orders from the sold-items page
const extractVintedSalesJS = `
	Array.from(document.querySelectorAll('[data-testid="order-item"]')).map(el => {
		const link = el.querySelector('a[href*="/items/"]');
		const href = link ? link.getAttribute('href') : '';
		const match = href.match(/\/items\/(\d+)/);
		const timeEl = el.querySelector('time');
		return {
			itemId: match ? match[1] : '',
			title: (el.querySelector('[data-testid="order-title"]') || {}).textContent || '',
			price: (el.querySelector('[data-testid="order-price"]') || {}).textContent || '',
			soldAt: timeEl ? (timeEl.getAttribute('datetime') || timeEl.textContent) : ''
		};
	}).filter(sale => sale.itemId !== '')
`

// VintedAdapter drives Vinted through the shared browser session. Vinted has
// no public API, so every operation is page automation against the member
// closet and order pages.
//
// Not safe for concurrent use; wrap with Serialize.
type VintedAdapter struct {
	session  *BrowserSession
	config   *config.VintedConfig
	logger   *zap.Logger
	loggedIn bool
}

// NewVintedAdapter creates a Vinted browser-automation adapter
func NewVintedAdapter(session *BrowserSession, cfg *config.VintedConfig, logger *zap.Logger) (*VintedAdapter, error) {
	if session == nil {
		return nil, fmt.Errorf("browser session is required")
	}
	if cfg == nil || cfg.Email == "" || cfg.Password == "" {
		return nil, fmt.Errorf("vinted email and password are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VintedAdapter{session: session, config: cfg, logger: logger}, nil
}

// Platform returns the platform identity
func (a *VintedAdapter) Platform() listing.Platform {
	return listing.PlatformVinted
}

// Authenticate logs in through the login form. A profile restored from the
// persistent user data dir may already carry a session; in that case the
// login page redirects straight to the feed and no form is filled.
func (a *VintedAdapter) Authenticate(ctx context.Context) error {
	var currentURL string
	err := a.session.Run(ctx,
		chromedp.Navigate(vintedBaseURL+"/member/signup/select_type?ref_url=%2F"),
		chromedp.Sleep(2*time.Second),
		chromedp.Location(&currentURL),
	)
	if err != nil {
		return classifyPageError(a.Platform(), "authenticate", err)
	}

	if !strings.Contains(currentURL, "signup") && !strings.Contains(currentURL, "login") {
		a.loggedIn = true
		a.logger.Debug("Vinted session restored from profile")
		return nil
	}

	err = a.session.Run(ctx,
		chromedp.Navigate(vintedBaseURL+"/member/signup/select_type?ref_url=%2F"),
		chromedp.Click(`[data-testid="auth-select-type--login-email"]`, chromedp.ByQuery),
		chromedp.WaitVisible(`#username`, chromedp.ByQuery),
		chromedp.SendKeys(`#username`, a.config.Email, chromedp.ByQuery),
		chromedp.SendKeys(`#password`, a.config.Password, chromedp.ByQuery),
		chromedp.Click(`button[type="submit"]`, chromedp.ByQuery),
		chromedp.Sleep(3*time.Second),
		chromedp.Location(&currentURL),
	)
	if err != nil {
		return classifyPageError(a.Platform(), "authenticate", err)
	}

	if strings.Contains(currentURL, "login") || strings.Contains(currentURL, "signup") {
		return listing.NewAuthError(a.Platform(), "authenticate",
			fmt.Errorf("still on login page after submitting credentials"))
	}

	a.loggedIn = true
	a.logger.Info("Logged in to Vinted", zap.String("email", a.config.Email))
	return nil
}

// ensureLoggedIn authenticates on first use
func (a *VintedAdapter) ensureLoggedIn(ctx context.Context) error {
	if a.loggedIn {
		return nil
	}
	return a.Authenticate(ctx)
}

// CreateListing publishes a new item through the upload form
func (a *VintedAdapter) CreateListing(ctx context.Context, draft listing.ListingDraft) (string, error) {
	if err := draft.Validate(); err != nil {
		return "", listing.NewPermanentError(a.Platform(), "create", err)
	}
	if err := a.ensureLoggedIn(ctx); err != nil {
		return "", err
	}

	var finalURL string
	err := a.session.Run(ctx,
		chromedp.Navigate(vintedBaseURL+"/items/new"),
		chromedp.WaitVisible(`#title`, chromedp.ByQuery),
		chromedp.SendKeys(`#title`, draft.Title, chromedp.ByQuery),
		chromedp.SendKeys(`#description`, draft.Description, chromedp.ByQuery),
		chromedp.SendKeys(`#price`, draft.Price.StringFixed(2), chromedp.ByQuery),
		chromedp.Click(`button[data-testid="upload-form-submit"]`, chromedp.ByQuery),
		chromedp.Sleep(3*time.Second),
		chromedp.Location(&finalURL),
	)
	if err != nil {
		return "", classifyPageError(a.Platform(), "create", err)
	}

	externalID := extractItemID(finalURL)
	if externalID == "" {
		// The form was submitted but we never landed on the item page, so
		// the outcome is ambiguous. Report transient and let the next sweep
		// reconcile against the closet.
		return "", listing.NewTransientError(a.Platform(), "create",
			fmt.Errorf("no item id in post-submit url %q", finalURL))
	}

	a.logger.Info("Created Vinted listing",
		zap.String("item_id", externalID),
		zap.String("title", draft.Title))
	return externalID, nil
}

// UpdateListing edits an existing item through the edit form
func (a *VintedAdapter) UpdateListing(ctx context.Context, externalID string, draft listing.ListingDraft) error {
	if err := draft.Validate(); err != nil {
		return listing.NewPermanentError(a.Platform(), "update", err)
	}
	if err := a.ensureLoggedIn(ctx); err != nil {
		return err
	}

	var currentURL string
	err := a.session.Run(ctx,
		chromedp.Navigate(fmt.Sprintf("%s/items/%s/edit", vintedBaseURL, externalID)),
		chromedp.Sleep(2*time.Second),
		chromedp.Location(&currentURL),
	)
	if err != nil {
		return classifyPageError(a.Platform(), "update", err)
	}
	if !strings.Contains(currentURL, "/edit") {
		// Vinted redirects away from the edit form when the item is gone
		return listing.NewPermanentError(a.Platform(), "update", listing.ErrListingNotFound)
	}

	err = a.session.Run(ctx,
		chromedp.Navigate(fmt.Sprintf("%s/items/%s/edit", vintedBaseURL, externalID)),
		chromedp.WaitVisible(`#title`, chromedp.ByQuery),
		clearAndType(`#title`, draft.Title),
		clearAndType(`#description`, draft.Description),
		clearAndType(`#price`, draft.Price.StringFixed(2)),
		chromedp.Click(`button[data-testid="upload-form-submit"]`, chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
	)
	if err != nil {
		return classifyPageError(a.Platform(), "update", err)
	}
	return nil
}

// DeleteListing removes an item via the item page menu
func (a *VintedAdapter) DeleteListing(ctx context.Context, externalID string) error {
	if err := a.ensureLoggedIn(ctx); err != nil {
		return err
	}

	err := a.session.Run(ctx,
		chromedp.Navigate(fmt.Sprintf("%s/items/%s", vintedBaseURL, externalID)),
		chromedp.Click(`[data-testid="item-menu-button"]`, chromedp.ByQuery),
		chromedp.Click(`[data-testid="item-delete-button"]`, chromedp.ByQuery),
		chromedp.Click(`[data-testid="confirm-delete"]`, chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
	)
	if err != nil {
		// An already-deleted item has no menu; verify before giving up
		status, statusErr := a.CheckListingStatus(ctx, externalID)
		if statusErr == nil && status == listing.ExternalStatusDeleted {
			return nil
		}
		return classifyPageError(a.Platform(), "delete", err)
	}
	return nil
}

// MarkAsSold hides the item so it cannot sell twice. Vinted only settles
// sales through its own checkout, so an external sale is represented by
// taking the listing down.
func (a *VintedAdapter) MarkAsSold(ctx context.Context, externalID string) error {
	if err := a.ensureLoggedIn(ctx); err != nil {
		return err
	}

	err := a.session.Run(ctx,
		chromedp.Navigate(fmt.Sprintf("%s/items/%s", vintedBaseURL, externalID)),
		chromedp.Click(`[data-testid="item-menu-button"]`, chromedp.ByQuery),
		chromedp.Click(`[data-testid="item-hide-button"]`, chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
	)
	if err != nil {
		return classifyPageError(a.Platform(), "mark_sold", err)
	}
	return nil
}

// ListActiveListings scrapes the member closet page
func (a *VintedAdapter) ListActiveListings(ctx context.Context) ([]listing.ExternalListing, error) {
	if err := a.ensureLoggedIn(ctx); err != nil {
		return nil, err
	}

	var items []scrapedItem
	err := a.session.Run(ctx,
		chromedp.Navigate(vintedBaseURL+"/member/items"),
		chromedp.Sleep(3*time.Second),
		chromedp.Evaluate(extractVintedItemsJS, &items),
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

// GetSales scrapes the sold-items page. Vinted shows settled orders there,
// so sweeps can pick up sales the seller never entered manually.
func (a *VintedAdapter) GetSales(ctx context.Context, since *time.Time) ([]listing.ExternalSale, error) {
	if err := a.ensureLoggedIn(ctx); err != nil {
		return nil, err
	}

	var sales []scrapedSale
	err := a.session.Run(ctx,
		chromedp.Navigate(vintedBaseURL+"/member/items/sold"),
		chromedp.Sleep(3*time.Second),
		chromedp.Evaluate(extractVintedSalesJS, &sales),
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

// CheckListingStatus loads the item page and inspects its state markers
func (a *VintedAdapter) CheckListingStatus(ctx context.Context, externalID string) (listing.ExternalStatus, error) {
	if err := a.ensureLoggedIn(ctx); err != nil {
		return listing.ExternalStatusUnknown, err
	}

	var state string
	err := a.session.Run(ctx,
		chromedp.Navigate(fmt.Sprintf("%s/items/%s", vintedBaseURL, externalID)),
		chromedp.Sleep(2*time.Second),
		chromedp.Evaluate(`
			(() => {
				if (document.querySelector('[data-testid="item-sold-badge"]')) return 'sold';
				if (document.querySelector('[data-testid="item-hidden-badge"]')) return 'deleted';
				if (document.querySelector('[data-testid="item-page-title"]')) return 'active';
				if (document.title.toLowerCase().includes('niet gevonden') ||
					document.title.toLowerCase().includes('not found')) return 'deleted';
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

// Close drops the login flag. The shared browser session is owned by the
// caller and closed separately.
func (a *VintedAdapter) Close() error {
	a.loggedIn = false
	return nil
}

// extractItemID pulls the numeric item id out of an item URL
func extractItemID(pageURL string) string {
	idx := strings.Index(pageURL, "/items/")
	if idx == -1 {
		return ""
	}
	rest := pageURL[idx+len("/items/"):]
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	return rest[:end]
}

// clearAndType empties a field before typing the new value
func clearAndType(selector, value string) chromedp.Tasks {
	return chromedp.Tasks{
		chromedp.SetValue(selector, "", chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	}
}

// Ensure VintedAdapter implements Adapter
var _ listing.Adapter = (*VintedAdapter)(nil)
