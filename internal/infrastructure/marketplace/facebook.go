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

const facebookBaseURL = "https://www.facebook.com"

// extractFacebookItemsJS pulls the selling overview grid
const extractFacebookItemsJS = `
	Array.from(document.querySelectorAll('a[href*="/marketplace/item/"]')).map(el => {
		const href = el.getAttribute('href') || '';
		const match = href.match(/\/marketplace\/item\/(\d+)/);
		const spans = el.querySelectorAll('span');
		return {
			id: match ? match[1] : '',
			title: spans.length > 1 ? spans[1].textContent : '',
			price: spans.length > 0 ? spans[0].textContent : '',
			url: href ? new URL(href, location.origin).href : '',
			image: (el.querySelector('img') || {}).src || '',
			status: 'active'
		};
	}).filter(item => item.id !== '')
`

// FacebookAdapter drives Facebook Marketplace through the shared browser
// session. Marketplace exposes neither an API nor a reliable sold feed, so
// sales are never reported; sold items only surface through status checks.
//
// Not safe for concurrent use; wrap with Serialize.
type FacebookAdapter struct {
	session  *BrowserSession
	config   *config.FacebookConfig
	logger   *zap.Logger
	loggedIn bool
}

// NewFacebookAdapter creates a Facebook Marketplace browser-automation adapter
func NewFacebookAdapter(session *BrowserSession, cfg *config.FacebookConfig, logger *zap.Logger) (*FacebookAdapter, error) {
	if session == nil {
		return nil, fmt.Errorf("browser session is required")
	}
	if cfg == nil || cfg.Email == "" || cfg.Password == "" {
		return nil, fmt.Errorf("facebook email and password are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FacebookAdapter{session: session, config: cfg, logger: logger}, nil
}

// Platform returns the platform identity
func (a *FacebookAdapter) Platform() listing.Platform {
	return listing.PlatformFacebook
}

// Authenticate logs in through the login form, reusing a profile session
// when one is still valid. A checkpoint (2FA, captcha) cannot be solved
// here and surfaces as an auth failure for the operator.
func (a *FacebookAdapter) Authenticate(ctx context.Context) error {
	var currentURL string
	err := a.session.Run(ctx,
		chromedp.Navigate(facebookBaseURL+"/marketplace/you/selling"),
		chromedp.Sleep(3*time.Second),
		chromedp.Location(&currentURL),
	)
	if err != nil {
		return classifyPageError(a.Platform(), "authenticate", err)
	}

	if strings.Contains(currentURL, "/marketplace/") {
		a.loggedIn = true
		a.logger.Debug("Facebook session restored from profile")
		return nil
	}

	err = a.session.Run(ctx,
		chromedp.Navigate(facebookBaseURL+"/login"),
		chromedp.WaitVisible(`#email`, chromedp.ByQuery),
		chromedp.SendKeys(`#email`, a.config.Email, chromedp.ByQuery),
		chromedp.SendKeys(`#pass`, a.config.Password, chromedp.ByQuery),
		chromedp.Click(`button[name="login"]`, chromedp.ByQuery),
		chromedp.Sleep(4*time.Second),
		chromedp.Location(&currentURL),
	)
	if err != nil {
		return classifyPageError(a.Platform(), "authenticate", err)
	}

	if strings.Contains(currentURL, "/login") || strings.Contains(currentURL, "checkpoint") {
		return listing.NewAuthError(a.Platform(), "authenticate",
			fmt.Errorf("login blocked, manual sign-in in the profile dir is required"))
	}

	a.loggedIn = true
	a.logger.Info("Logged in to Facebook", zap.String("email", a.config.Email))
	return nil
}

func (a *FacebookAdapter) ensureLoggedIn(ctx context.Context) error {
	if a.loggedIn {
		return nil
	}
	return a.Authenticate(ctx)
}

// CreateListing publishes a new Marketplace item
func (a *FacebookAdapter) CreateListing(ctx context.Context, draft listing.ListingDraft) (string, error) {
	if err := draft.Validate(); err != nil {
		return "", listing.NewPermanentError(a.Platform(), "create", err)
	}
	if err := a.ensureLoggedIn(ctx); err != nil {
		return "", err
	}

	err := a.session.Run(ctx,
		chromedp.Navigate(facebookBaseURL+"/marketplace/create/item"),
		chromedp.WaitVisible(`input[aria-label="Title"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[aria-label="Title"]`, draft.Title, chromedp.ByQuery),
		chromedp.SendKeys(`input[aria-label="Price"]`, draft.Price.StringFixed(2), chromedp.ByQuery),
		chromedp.SendKeys(`textarea[aria-label="Description"]`, draft.Description, chromedp.ByQuery),
		chromedp.Click(`div[aria-label="Publish"]`, chromedp.ByQuery),
		chromedp.Sleep(4*time.Second),
	)
	if err != nil {
		return "", classifyPageError(a.Platform(), "create", err)
	}

	// Publishing does not land on the item page; find the new item in the
	// selling overview by title instead.
	items, err := a.ListActiveListings(ctx)
	if err != nil {
		return "", listing.NewTransientError(a.Platform(), "create",
			fmt.Errorf("published but could not resolve item id: %w", err))
	}
	for _, item := range items {
		if item.Title == draft.Title {
			a.logger.Info("Created Facebook Marketplace listing",
				zap.String("item_id", item.ExternalID),
				zap.String("title", draft.Title))
			return item.ExternalID, nil
		}
	}
	return "", listing.NewTransientError(a.Platform(), "create",
		fmt.Errorf("published item %q not found in selling overview", draft.Title))
}

// UpdateListing edits an existing Marketplace item
func (a *FacebookAdapter) UpdateListing(ctx context.Context, externalID string, draft listing.ListingDraft) error {
	if err := draft.Validate(); err != nil {
		return listing.NewPermanentError(a.Platform(), "update", err)
	}
	if err := a.ensureLoggedIn(ctx); err != nil {
		return err
	}

	var currentURL string
	err := a.session.Run(ctx,
		chromedp.Navigate(fmt.Sprintf("%s/marketplace/edit/%s", facebookBaseURL, externalID)),
		chromedp.Sleep(3*time.Second),
		chromedp.Location(&currentURL),
	)
	if err != nil {
		return classifyPageError(a.Platform(), "update", err)
	}
	if !strings.Contains(currentURL, "/edit/") {
		return listing.NewPermanentError(a.Platform(), "update", listing.ErrListingNotFound)
	}

	err = a.session.Run(ctx,
		chromedp.WaitVisible(`input[aria-label="Title"]`, chromedp.ByQuery),
		chromedp.SetValue(`input[aria-label="Title"]`, draft.Title, chromedp.ByQuery),
		chromedp.SetValue(`input[aria-label="Price"]`, draft.Price.StringFixed(2), chromedp.ByQuery),
		chromedp.SetValue(`textarea[aria-label="Description"]`, draft.Description, chromedp.ByQuery),
		chromedp.Click(`div[aria-label="Update"]`, chromedp.ByQuery),
		chromedp.Sleep(3*time.Second),
	)
	if err != nil {
		return classifyPageError(a.Platform(), "update", err)
	}
	return nil
}

// DeleteListing removes a Marketplace item from the selling overview
func (a *FacebookAdapter) DeleteListing(ctx context.Context, externalID string) error {
	if err := a.ensureLoggedIn(ctx); err != nil {
		return err
	}

	err := a.session.Run(ctx,
		chromedp.Navigate(fmt.Sprintf("%s/marketplace/item/%s", facebookBaseURL, externalID)),
		chromedp.Click(`div[aria-label="More"]`, chromedp.ByQuery),
		chromedp.Click(`div[role="menuitem"][aria-label="Delete listing"]`, chromedp.ByQuery),
		chromedp.Click(`div[aria-label="Delete"]`, chromedp.ByQuery),
		chromedp.Sleep(3*time.Second),
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

// MarkAsSold marks the item as sold via the listing menu
func (a *FacebookAdapter) MarkAsSold(ctx context.Context, externalID string) error {
	if err := a.ensureLoggedIn(ctx); err != nil {
		return err
	}

	err := a.session.Run(ctx,
		chromedp.Navigate(fmt.Sprintf("%s/marketplace/item/%s", facebookBaseURL, externalID)),
		chromedp.Click(`div[aria-label="More"]`, chromedp.ByQuery),
		chromedp.Click(`div[role="menuitem"][aria-label="Mark as sold"]`, chromedp.ByQuery),
		chromedp.Sleep(3*time.Second),
	)
	if err != nil {
		return classifyPageError(a.Platform(), "mark_sold", err)
	}
	return nil
}

// ListActiveListings scrapes the selling overview
func (a *FacebookAdapter) ListActiveListings(ctx context.Context) ([]listing.ExternalListing, error) {
	if err := a.ensureLoggedIn(ctx); err != nil {
		return nil, err
	}

	var items []scrapedItem
	err := a.session.Run(ctx,
		chromedp.Navigate(facebookBaseURL+"/marketplace/you/selling"),
		chromedp.Sleep(4*time.Second),
		chromedp.Evaluate(extractFacebookItemsJS, &items),
	)
	if err != nil {
		return nil, classifyPageError(a.Platform(), "list", err)
	}

	results := make([]listing.ExternalListing, 0, len(items))
	for _, item := range items {
		results = append(results, mapScrapedItem(item, listing.ExternalStatusActive))
	}
	return results, nil
}

// GetSales returns an empty slice: Marketplace transactions settle outside
// the platform, so there is no order feed to read.
func (a *FacebookAdapter) GetSales(ctx context.Context, since *time.Time) ([]listing.ExternalSale, error) {
	return []listing.ExternalSale{}, nil
}

// CheckListingStatus loads the item page and inspects its state markers
func (a *FacebookAdapter) CheckListingStatus(ctx context.Context, externalID string) (listing.ExternalStatus, error) {
	if err := a.ensureLoggedIn(ctx); err != nil {
		return listing.ExternalStatusUnknown, err
	}

	var state string
	err := a.session.Run(ctx,
		chromedp.Navigate(fmt.Sprintf("%s/marketplace/item/%s", facebookBaseURL, externalID)),
		chromedp.Sleep(3*time.Second),
		chromedp.Evaluate(`
			(() => {
				const text = document.body ? document.body.innerText : '';
				if (text.includes('Sold')) return 'sold';
				if (text.includes('This listing is no longer available') ||
					text.includes('content isn\'t available')) return 'deleted';
				if (document.querySelector('div[aria-label="More"]')) return 'active';
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
func (a *FacebookAdapter) Close() error {
	a.loggedIn = false
	return nil
}

// Ensure FacebookAdapter implements Adapter
var _ listing.Adapter = (*FacebookAdapter)(nil)
