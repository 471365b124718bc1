package marketplace

import (
	"errors"
	"time"
)

const (
	// MarktplaatsProductionURL is the production API endpoint
	MarktplaatsProductionURL = "https://api.marktplaats.nl"

	// defaultMarktplaatsTimeout is the default HTTP request timeout
	defaultMarktplaatsTimeout = 30 * time.Second
)

var (
	// ErrMarktplaatsConfigMissingClientID indicates client ID is not configured
	ErrMarktplaatsConfigMissingClientID = errors.New("marktplaats config: client_id is required")
	// ErrMarktplaatsConfigMissingClientSecret indicates client secret is not configured
	ErrMarktplaatsConfigMissingClientSecret = errors.New("marktplaats config: client_secret is required")
)

// MarktplaatsConfig contains the credentials and endpoint for the
// Marktplaats advertisement API.
type MarktplaatsConfig struct {
	// ClientID issued with the API application
	ClientID string
	// ClientSecret issued with the API application
	ClientSecret string
	// BaseURL is the API base URL. Defaults to production.
	BaseURL string
	// Timeout for HTTP requests
	Timeout time.Duration
}

// Validate checks required fields and fills in defaults
func (c *MarktplaatsConfig) Validate() error {
	if c.ClientID == "" {
		return ErrMarktplaatsConfigMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrMarktplaatsConfigMissingClientSecret
	}
	if c.BaseURL == "" {
		c.BaseURL = MarktplaatsProductionURL
	}
	if c.Timeout == 0 {
		c.Timeout = defaultMarktplaatsTimeout
	}
	return nil
}
