package bookkeeping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/crosslister/backend/internal/application/sync"
	"github.com/crosslister/backend/internal/domain/sales"
	"github.com/crosslister/backend/internal/infrastructure/config"
)

const (
	// maxResponseSize limits response body size to prevent memory exhaustion (1MB)
	maxResponseSize = 1 * 1024 * 1024

	transactionsPath = "/api/v1/transactions"
)

// saleTransaction is the wire shape the ledger expects for one sale
type saleTransaction struct {
	Reference   string `json:"reference"`
	Description string `json:"description"`
	Platform    string `json:"platform"`
	Amount      string `json:"amount"`
	Fees        string `json:"fees"`
	NetAmount   string `json:"net_amount"`
	Approximate bool   `json:"approximate"`
	BookedAt    string `json:"booked_at"`
}

// LedgerClient posts sale events to the external bookkeeping service.
// Each sale is sent with the event ID as its reference, so a retried
// delivery can be deduplicated server-side.
type LedgerClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewLedgerClient creates a bookkeeping client from the ledger configuration
func NewLedgerClient(cfg *config.LedgerConfig, logger *zap.Logger) (*LedgerClient, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("ledger base URL is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &LedgerClient{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// RecordSale posts one sale to the ledger
func (c *LedgerClient) RecordSale(ctx context.Context, event *sales.SaleEvent) error {
	payload := saleTransaction{
		Reference:   event.ID.String(),
		Description: event.Title,
		Platform:    event.Platform.String(),
		Amount:      event.SalePrice.StringFixed(2),
		Fees:        event.Fees.StringFixed(2),
		NetAmount:   event.NetProfit.StringFixed(2),
		Approximate: event.PriceApproximate,
		BookedAt:    event.SoldAt.UTC().Format(time.RFC3339),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+transactionsPath, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ledger request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read ledger response: %w", err)
	}

	// The ledger dedupes by reference; a conflict means the sale is
	// already booked and delivery can be considered done.
	if resp.StatusCode == http.StatusConflict {
		c.logger.Debug("Sale already booked in ledger",
			zap.String("reference", payload.Reference))
		return nil
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("ledger returned status %d: %s", resp.StatusCode, string(body))
	}

	c.logger.Info("Sale booked in ledger",
		zap.String("reference", payload.Reference),
		zap.String("net_amount", payload.NetAmount))
	return nil
}

// Ensure LedgerClient implements Ledger
var _ sync.Ledger = (*LedgerClient)(nil)
