package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/crosslister/backend/internal/domain/listing"
)

const (
	// maxResponseSize limits response body size to prevent memory exhaustion (10MB)
	maxResponseSize = 10 * 1024 * 1024

	tokenPath   = "/oauth/token"
	advertsPath = "/v1/advertisements"

	// tokenExpiryMargin renews the token slightly before the server does
	tokenExpiryMargin = time.Minute

	// advertPageSize is the page size for listing queries
	advertPageSize = 100
)

// MarktplaatsAdapter talks to the official Marktplaats advertisement API.
// It holds a bearer token obtained via the client-credentials grant; the
// token is refreshed transparently when it expires.
//
// Not safe for concurrent use; wrap with Serialize.
type MarktplaatsAdapter struct {
	config      *MarktplaatsConfig
	httpClient  *http.Client
	logger      *zap.Logger
	token       string
	tokenExpiry time.Time
}

// NewMarktplaatsAdapter creates a new Marktplaats API adapter
func NewMarktplaatsAdapter(config *MarktplaatsConfig, logger *zap.Logger) (*MarktplaatsAdapter, error) {
	if config == nil {
		return nil, fmt.Errorf("marktplaats config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &MarktplaatsAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}, nil
}

// Platform returns the platform identity
func (a *MarktplaatsAdapter) Platform() listing.Platform {
	return listing.PlatformMarktplaats
}

// Authenticate obtains a fresh bearer token via the client-credentials grant
func (a *MarktplaatsAdapter) Authenticate(ctx context.Context) error {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", a.config.ClientID)
	form.Set("client_secret", a.config.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.config.BaseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return listing.NewPermanentError(a.Platform(), "authenticate", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return listing.NewTransientError(a.Platform(), "authenticate", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return listing.NewTransientError(a.Platform(), "authenticate", err)
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("token request returned status %d", resp.StatusCode)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return listing.NewAuthError(a.Platform(), "authenticate", err)
		}
		return listing.NewTransientError(a.Platform(), "authenticate", err)
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return listing.NewTransientError(a.Platform(), "authenticate", fmt.Errorf("failed to parse token response: %w", err))
	}
	if token.AccessToken == "" {
		return listing.NewAuthError(a.Platform(), "authenticate", fmt.Errorf("token response carried no access token"))
	}

	a.token = token.AccessToken
	a.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - tokenExpiryMargin)

	a.logger.Debug("Marktplaats token refreshed",
		zap.Int("expires_in", token.ExpiresIn))
	return nil
}

// ensureToken authenticates when no valid token is held
func (a *MarktplaatsAdapter) ensureToken(ctx context.Context) error {
	if a.token != "" && time.Now().Before(a.tokenExpiry) {
		return nil
	}
	return a.Authenticate(ctx)
}

// CreateListing publishes a new advertisement and returns its item ID
func (a *MarktplaatsAdapter) CreateListing(ctx context.Context, draft listing.ListingDraft) (string, error) {
	if err := draft.Validate(); err != nil {
		return "", listing.NewPermanentError(a.Platform(), "create", err)
	}

	body, err := a.doRequest(ctx, http.MethodPost, advertsPath, advertFromDraft(draft), "create")
	if err != nil {
		return "", err
	}

	var adv advertResponse
	if err := json.Unmarshal(body, &adv); err != nil {
		return "", listing.NewTransientError(a.Platform(), "create", fmt.Errorf("failed to parse advert response: %w", err))
	}
	if adv.ItemID == "" {
		return "", listing.NewTransientError(a.Platform(), "create", fmt.Errorf("advert response carried no item id"))
	}

	a.logger.Info("Created Marktplaats advertisement",
		zap.String("item_id", adv.ItemID),
		zap.String("title", draft.Title))
	return adv.ItemID, nil
}

// UpdateListing updates an existing advertisement
func (a *MarktplaatsAdapter) UpdateListing(ctx context.Context, externalID string, draft listing.ListingDraft) error {
	if err := draft.Validate(); err != nil {
		return listing.NewPermanentError(a.Platform(), "update", err)
	}

	_, err := a.doRequest(ctx, http.MethodPut,
		advertsPath+"/"+url.PathEscape(externalID), advertFromDraft(draft), "update")
	return err
}

// DeleteListing removes an advertisement. A listing already gone counts
// as deleted.
func (a *MarktplaatsAdapter) DeleteListing(ctx context.Context, externalID string) error {
	_, err := a.doRequest(ctx, http.MethodDelete,
		advertsPath+"/"+url.PathEscape(externalID), nil, "delete")
	if err != nil && isNotFound(err) {
		return nil
	}
	return err
}

// MarkAsSold marks an advertisement as sold
func (a *MarktplaatsAdapter) MarkAsSold(ctx context.Context, externalID string) error {
	payload := map[string]string{"status": "SOLD"}
	_, err := a.doRequest(ctx, http.MethodPut,
		advertsPath+"/"+url.PathEscape(externalID)+"/status", payload, "mark_sold")
	return err
}

// ListActiveListings returns all active advertisements, following paging
func (a *MarktplaatsAdapter) ListActiveListings(ctx context.Context) ([]listing.ExternalListing, error) {
	var results []listing.ExternalListing

	for offset := 0; ; offset += advertPageSize {
		path := fmt.Sprintf("%s?offset=%d&limit=%d", advertsPath, offset, advertPageSize)
		body, err := a.doRequest(ctx, http.MethodGet, path, nil, "list")
		if err != nil {
			// Return what was collected so far rather than failing everything
			if len(results) > 0 {
				a.logger.Warn("Marktplaats listing page failed, returning partial results",
					zap.Int("collected", len(results)),
					zap.Error(err))
				return results, nil
			}
			return nil, err
		}

		var page advertListResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, listing.NewTransientError(a.Platform(), "list", fmt.Errorf("failed to parse advert list: %w", err))
		}

		for _, adv := range page.Adverts {
			ext := mapAdvert(adv)
			if ext.Status == listing.ExternalStatusActive {
				results = append(results, ext)
			}
		}

		if len(page.Adverts) < advertPageSize || offset+advertPageSize >= page.Paging.Total {
			break
		}
	}

	return results, nil
}

// CheckListingStatus reports the external state of one advertisement
func (a *MarktplaatsAdapter) CheckListingStatus(ctx context.Context, externalID string) (listing.ExternalStatus, error) {
	body, err := a.doRequest(ctx, http.MethodGet,
		advertsPath+"/"+url.PathEscape(externalID), nil, "check_status")
	if err != nil {
		if isNotFound(err) {
			return listing.ExternalStatusDeleted, nil
		}
		return listing.ExternalStatusUnknown, err
	}

	var adv advertResponse
	if err := json.Unmarshal(body, &adv); err != nil {
		return listing.ExternalStatusUnknown, listing.NewTransientError(a.Platform(), "check_status",
			fmt.Errorf("failed to parse advert response: %w", err))
	}
	return mapAdvertStatus(adv.Status), nil
}

// GetSales returns an empty slice: the advertisement API has no settled-sale
// endpoint, so sold items surface through status reconciliation instead.
func (a *MarktplaatsAdapter) GetSales(ctx context.Context, since *time.Time) ([]listing.ExternalSale, error) {
	return []listing.ExternalSale{}, nil
}

// Close discards the held token
func (a *MarktplaatsAdapter) Close() error {
	a.token = ""
	a.tokenExpiry = time.Time{}
	return nil
}

// doRequest performs an authenticated JSON request and returns the response
// body. Failures are classified by HTTP status.
func (a *MarktplaatsAdapter) doRequest(ctx context.Context, method, path string, payload any, op string) ([]byte, error) {
	if err := a.ensureToken(ctx); err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, listing.NewPermanentError(a.Platform(), op, fmt.Errorf("failed to marshal request: %w", err))
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.BaseURL+path, reqBody)
	if err != nil {
		return nil, listing.NewPermanentError(a.Platform(), op, err)
	}
	req.Header.Set("Authorization", "Bearer "+a.token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, listing.NewTransientError(a.Platform(), op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, listing.NewTransientError(a.Platform(), op, fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode >= 400 {
		return nil, a.classifyStatus(op, resp.StatusCode, body)
	}
	return body, nil
}

// classifyStatus turns an HTTP error status into an adapter error
func (a *MarktplaatsAdapter) classifyStatus(op string, status int, body []byte) error {
	var apiErr apiErrorResponse
	_ = json.Unmarshal(body, &apiErr)

	message := apiErr.Message
	if message == "" {
		message = http.StatusText(status)
	}
	cause := fmt.Errorf("request failed with status %d: %s", status, message)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		// Token may have been revoked server-side; drop it so the next
		// attempt re-authenticates.
		a.token = ""
		return listing.NewAuthError(a.Platform(), op, cause)
	case status == http.StatusNotFound:
		return listing.NewPermanentError(a.Platform(), op, listing.ErrListingNotFound)
	case status == http.StatusConflict:
		return listing.NewConflictError(a.Platform(), op, cause)
	case status == http.StatusTooManyRequests || status >= 500:
		return listing.NewTransientError(a.Platform(), op, cause)
	default:
		return listing.NewPermanentError(a.Platform(), op, cause)
	}
}

// advertFromDraft maps the neutral draft to the advertisement payload
func advertFromDraft(draft listing.ListingDraft) advertRequest {
	req := advertRequest{
		Title:       draft.Title,
		Description: draft.Description,
		PriceModel: priceModel{
			ModelType:   "fixed",
			AskingPrice: decimalToCents(draft.Price),
		},
		ImageURLs: draft.Images,
	}
	attrs := []advertAttribute{
		{Key: "size", Value: draft.Size},
		{Key: "condition", Value: draft.Condition},
		{Key: "brand", Value: draft.Brand},
		{Key: "color", Value: draft.Color},
	}
	for _, attr := range attrs {
		if attr.Value != "" {
			req.Attributes = append(req.Attributes, attr)
		}
	}
	return req
}

// isNotFound reports whether the failure means the listing is gone
func isNotFound(err error) bool {
	return errors.Is(err, listing.ErrListingNotFound)
}

// Ensure MarktplaatsAdapter implements Adapter
var _ listing.Adapter = (*MarktplaatsAdapter)(nil)
