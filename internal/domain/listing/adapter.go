package listing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Adapter Errors
// ---------------------------------------------------------------------------

var (
	// ErrPlatformUnknown indicates no adapter is registered for a platform.
	// This is a programmer/configuration error, not an ordinary adapter failure.
	ErrPlatformUnknown = errors.New("listing: unknown platform")
	// ErrListingNotFound indicates the external listing no longer exists
	ErrListingNotFound = errors.New("listing: external listing not found")
	// ErrNotAuthenticated indicates the adapter has no valid session
	ErrNotAuthenticated = errors.New("listing: adapter not authenticated")
)

// ErrorKind classifies an adapter failure so the coordinator can decide
// between retrying on a later sweep and giving up.
type ErrorKind string

const (
	// ErrorKindTransient covers network faults, rate limiting, and page
	// timeouts. A later sweep should retry.
	ErrorKindTransient ErrorKind = "transient"
	// ErrorKindPermanent covers invalid input and items genuinely gone.
	// Retrying will not help; the failure is surfaced to the operator.
	ErrorKindPermanent ErrorKind = "permanent"
	// ErrorKindAuth covers invalid or expired sessions. The caller may
	// re-authenticate once and retry before surfacing.
	ErrorKindAuth ErrorKind = "auth"
	// ErrorKindConflict covers disagreement between local and external state,
	// e.g. local says no listing exists but the platform reports one.
	ErrorKindConflict ErrorKind = "conflict"
)

// AdapterError is the failure report for any adapter operation. It carries
// the platform, the failed operation, and a retryability classification.
type AdapterError struct {
	Platform Platform
	Op       string
	Kind     ErrorKind
	Err      error
}

// Error implements the error interface
func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s: %s: %s: %v", e.Platform, e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying cause
func (e *AdapterError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps a retryable failure
func NewTransientError(platform Platform, op string, err error) *AdapterError {
	return &AdapterError{Platform: platform, Op: op, Kind: ErrorKindTransient, Err: err}
}

// NewPermanentError wraps a non-retryable failure
func NewPermanentError(platform Platform, op string, err error) *AdapterError {
	return &AdapterError{Platform: platform, Op: op, Kind: ErrorKindPermanent, Err: err}
}

// NewAuthError wraps a session failure
func NewAuthError(platform Platform, op string, err error) *AdapterError {
	return &AdapterError{Platform: platform, Op: op, Kind: ErrorKindAuth, Err: err}
}

// NewConflictError wraps a local/external state disagreement
func NewConflictError(platform Platform, op string, err error) *AdapterError {
	return &AdapterError{Platform: platform, Op: op, Kind: ErrorKindConflict, Err: err}
}

// IsRetryable returns true if a later sweep should retry the failed operation
func IsRetryable(err error) bool {
	var ae *AdapterError
	if errors.As(err, &ae) {
		return ae.Kind == ErrorKindTransient
	}
	return false
}

// IsAuthError returns true if the failure was caused by an invalid session
func IsAuthError(err error) bool {
	var ae *AdapterError
	if errors.As(err, &ae) {
		return ae.Kind == ErrorKindAuth
	}
	return false
}

// IsConflict returns true if local and external state disagree
func IsConflict(err error) bool {
	var ae *AdapterError
	if errors.As(err, &ae) {
		return ae.Kind == ErrorKindConflict
	}
	return false
}

// ---------------------------------------------------------------------------
// Value Objects
// ---------------------------------------------------------------------------

// ExternalStatus is the state of a listing as reported by the platform
type ExternalStatus string

const (
	ExternalStatusActive  ExternalStatus = "active"
	ExternalStatusSold    ExternalStatus = "sold"
	ExternalStatusDeleted ExternalStatus = "deleted"
	// ExternalStatusUnknown means the platform could not determine the state,
	// e.g. a page failed to render. Callers must not treat it as a sale.
	ExternalStatusUnknown ExternalStatus = "unknown"
)

// ListingDraft is the platform-neutral input shape for create/update calls.
// Adapters translate it to their own wire or page format.
type ListingDraft struct {
	Title       string
	Description string
	Price       decimal.Decimal
	Images      []string
	Category    string
	Size        string
	Condition   string
	Brand       string
	Color       string
}

// Validate checks the draft carries the minimum any platform needs
func (d *ListingDraft) Validate() error {
	if d.Title == "" {
		return errors.New("listing: draft title is required")
	}
	if d.Price.IsNegative() {
		return errors.New("listing: draft price cannot be negative")
	}
	return nil
}

// ExternalListing is a summary of one listing as seen on the platform,
// used for import and reconciliation.
type ExternalListing struct {
	ExternalID  string
	Title       string
	Description string
	Price       decimal.Decimal
	URL         string
	Images      []string
	Category    string
	Size        string
	Condition   string
	Brand       string
	Status      ExternalStatus
}

// ExternalSale is a sale as reported by the platform. Platforms without sale
// visibility simply never produce these.
type ExternalSale struct {
	ExternalID string
	Title      string
	Price      decimal.Decimal
	SoldAt     time.Time
}

// ---------------------------------------------------------------------------
// Adapter Port Interface
// ---------------------------------------------------------------------------

// Adapter is the capability contract every marketplace integration implements.
// Implementations are stateful (they hold a session or browser context) and
// are not safe for concurrent use; the registry serializes calls per instance.
//
// Operations other than Authenticate and Close self-authenticate on first use
// and surface authentication failure as an AdapterError of kind auth.
// Every operation bounds its own wait and resolves to a failure rather than
// hanging.
type Adapter interface {
	// Platform returns the platform this adapter handles
	Platform() Platform

	// Authenticate establishes or refreshes the session. Idempotent.
	Authenticate(ctx context.Context) error

	// ListActiveListings returns the platform's current active listings.
	// Partially-loaded pages return what was collected rather than failing
	// the whole call.
	ListActiveListings(ctx context.Context) ([]ExternalListing, error)

	// CreateListing publishes a new listing and returns its external ID.
	// On an ambiguous outcome (timeout after submission) it returns a
	// transient failure rather than a possibly-wrong ID.
	CreateListing(ctx context.Context, draft ListingDraft) (string, error)

	// UpdateListing updates an existing listing
	UpdateListing(ctx context.Context, externalID string, draft ListingDraft) error

	// DeleteListing removes a listing from the platform
	DeleteListing(ctx context.Context, externalID string) error

	// MarkAsSold marks a listing as sold on the platform
	MarkAsSold(ctx context.Context, externalID string) error

	// GetSales returns sales since the given time. Platforms without sale
	// visibility return an empty slice, not an error. A nil since returns
	// everything available.
	GetSales(ctx context.Context, since *time.Time) ([]ExternalSale, error)

	// CheckListingStatus reports the external state of one listing
	CheckListingStatus(ctx context.Context, externalID string) (ExternalStatus, error)

	// Close releases the held session or browser context. Safe to call
	// multiple times and after partial failure.
	Close() error
}

// Registry provides access to the configured marketplace adapters,
// selected by platform identity.
type Registry interface {
	// Get returns the adapter for the platform, or ErrPlatformUnknown
	Get(platform Platform) (Adapter, error)

	// List returns all registered adapters
	List() []Adapter

	// Platforms returns the platform codes with a registered adapter
	Platforms() []Platform
}
