package sync

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/crosslister/backend/internal/domain/catalog"
	"github.com/crosslister/backend/internal/domain/listing"
	"github.com/crosslister/backend/internal/domain/sales"
	"github.com/crosslister/backend/internal/domain/shared"
)

// Coordinator pushes catalog products to marketplaces and keeps the local
// listing records in agreement with what each platform holds.
//
// Ordinary adapter failures are absorbed: they are written to the listing
// record, logged, and reported as a nil result. Returned errors mean the
// coordinator itself could not do its job (unknown platform, persistence
// failure, invalid input).
type Coordinator struct {
	products catalog.ProductRepository
	listings listing.Repository
	sales    sales.Repository
	registry listing.Registry
	emitter  SaleEmitter
	logger   *zap.Logger
}

// NewCoordinator creates a sync coordinator
func NewCoordinator(
	products catalog.ProductRepository,
	listings listing.Repository,
	saleEvents sales.Repository,
	registry listing.Registry,
	emitter SaleEmitter,
	logger *zap.Logger,
) *Coordinator {
	return &Coordinator{
		products: products,
		listings: listings,
		sales:    saleEvents,
		registry: registry,
		emitter:  emitter,
		logger:   logger,
	}
}

// ---------------------------------------------------------------------------
// Single-platform sync
// ---------------------------------------------------------------------------

// SyncProductToPlatform pushes one product to one platform. A record with an
// external ID gets an update; one without gets a fresh create. The updated
// record is returned on success; a nil record with a nil error means the
// adapter failed and the failure was written to the record for a later sweep.
func (c *Coordinator) SyncProductToPlatform(ctx context.Context, productID uuid.UUID, platform listing.Platform) (*listing.Record, error) {
	product, err := c.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsListable() {
		return nil, shared.NewDomainError("NOT_LISTABLE", "Product is not in a listable state: "+product.Status.String())
	}

	adapter, err := c.registry.Get(platform)
	if err != nil {
		return nil, err
	}

	record, err := c.listings.FindByProductAndPlatform(ctx, productID, platform)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		record, err = listing.NewRecord(productID, platform)
		if err != nil {
			return nil, err
		}
	}
	if record.Status.IsTerminal() {
		c.logger.Debug("Skipping terminal listing",
			zap.String("product_id", productID.String()),
			zap.String("platform", platform.String()),
			zap.String("status", record.Status.String()),
		)
		return record, nil
	}

	draft := draftFromProduct(product)
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	externalID, pushErr := c.push(ctx, adapter, record, draft)
	if pushErr != nil {
		record.RecordFailure(pushErr.Error())
		if err := c.listings.Save(ctx, record); err != nil {
			return nil, err
		}
		c.logger.Warn("Listing push failed",
			zap.String("product_id", productID.String()),
			zap.String("platform", platform.String()),
			zap.Bool("retryable", listing.IsRetryable(pushErr)),
			zap.Error(pushErr),
		)
		return nil, nil
	}

	if err := record.MarkSynced(externalID, ""); err != nil {
		return nil, err
	}
	if err := c.listings.Save(ctx, record); err != nil {
		return nil, err
	}

	if product.Status == catalog.ProductStatusActive {
		if err := product.MarkPosted(); err == nil {
			if err := c.products.Save(ctx, product); err != nil {
				return nil, err
			}
		}
	}

	c.logger.Info("Listing synced",
		zap.String("product_id", productID.String()),
		zap.String("platform", platform.String()),
		zap.String("external_id", externalID),
	)
	return record, nil
}

// push performs the create-or-update against the platform, retrying once
// after a re-authentication when the session turns out to be stale. An
// update against a listing the platform no longer has falls back to a
// fresh create.
func (c *Coordinator) push(ctx context.Context, adapter listing.Adapter, record *listing.Record, draft listing.ListingDraft) (string, error) {
	if record.HasExternal() {
		err := c.withAuthRetry(ctx, adapter, func() error {
			return adapter.UpdateListing(ctx, record.ExternalID, draft)
		})
		if err == nil {
			return record.ExternalID, nil
		}
		if !errors.Is(err, listing.ErrListingNotFound) {
			return "", err
		}
		c.logger.Info("Listing gone on platform, recreating",
			zap.String("platform", adapter.Platform().String()),
			zap.String("external_id", record.ExternalID),
		)
	}

	var externalID string
	err := c.withAuthRetry(ctx, adapter, func() error {
		var createErr error
		externalID, createErr = adapter.CreateListing(ctx, draft)
		return createErr
	})
	if err != nil {
		return "", err
	}
	return externalID, nil
}

// withAuthRetry runs op, and on an auth-kind failure re-authenticates once
// and retries before surfacing the error.
func (c *Coordinator) withAuthRetry(ctx context.Context, adapter listing.Adapter, op func() error) error {
	err := op()
	if err == nil || !listing.IsAuthError(err) {
		return err
	}

	c.logger.Info("Session rejected, re-authenticating",
		zap.String("platform", adapter.Platform().String()),
	)
	if authErr := adapter.Authenticate(ctx); authErr != nil {
		return authErr
	}
	return op()
}

// ---------------------------------------------------------------------------
// Cross-posting
// ---------------------------------------------------------------------------

// CrossPost pushes one product to several platforms concurrently. An empty
// platform list means every registered platform. Each platform succeeds or
// fails on its own; one failure never cancels the others.
func (c *Coordinator) CrossPost(ctx context.Context, productID uuid.UUID, platforms []listing.Platform) (*CrossPostReport, error) {
	if len(platforms) == 0 {
		platforms = c.registry.Platforms()
	}
	for _, p := range platforms {
		if !p.IsValid() {
			return nil, shared.NewDomainError("INVALID_PLATFORM", "Unknown platform: "+p.String())
		}
	}

	report := &CrossPostReport{
		ProductID: productID,
		Outcomes:  make([]PlatformOutcome, len(platforms)),
	}

	var wg gosync.WaitGroup
	for i, platform := range platforms {
		wg.Add(1)
		go func(i int, platform listing.Platform) {
			defer wg.Done()

			outcome := PlatformOutcome{Platform: platform}
			record, err := c.SyncProductToPlatform(ctx, productID, platform)
			switch {
			case err != nil:
				outcome.Error = err.Error()
			case record == nil:
				outcome.Error = "push failed, flagged for retry"
			default:
				outcome.Success = true
				outcome.Record = record
			}
			report.Outcomes[i] = outcome
		}(i, platform)
	}
	wg.Wait()

	c.logger.Info("Cross-post finished",
		zap.String("product_id", productID.String()),
		zap.Int("platforms", len(platforms)),
		zap.Int("succeeded", report.Succeeded()),
	)
	return report, nil
}

// ---------------------------------------------------------------------------
// Sale handling
// ---------------------------------------------------------------------------

// MarkProductSold records that a product sold on one platform: the product
// turns sold, a sale event is created and emitted, and the remaining live
// listings are delisted best-effort. Calling it again for a product already
// sold is reported as AlreadySold; a sold product found without its sale
// event gets the event recreated rather than skipped.
//
// A zero salePrice falls back to the product's list price and flags the
// event's price as approximate.
func (c *Coordinator) MarkProductSold(
	ctx context.Context,
	productID uuid.UUID,
	soldOn listing.Platform,
	salePrice, fees decimal.Decimal,
	soldAt time.Time,
) (*MarkSoldReport, error) {
	if !soldOn.IsValid() {
		return nil, shared.NewDomainError("INVALID_PLATFORM", "Unknown platform: "+soldOn.String())
	}

	product, err := c.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	approximate := salePrice.IsZero()
	if approximate {
		salePrice = product.Price
		fees = decimal.Zero
	}

	// The event is persisted before the status flips: a sold product always
	// has a sale on record, and a retry after a failed product save reuses
	// the event instead of duplicating it.
	event, created, err := c.ensureSaleEvent(ctx, product, soldOn, salePrice, fees, soldAt, approximate)
	if err != nil {
		return nil, err
	}

	if product.IsSold() {
		report := &MarkSoldReport{ProductID: productID, SaleEventID: event.ID, AlreadySold: true}
		if created {
			c.emitSale(ctx, event)
		}
		return report, nil
	}

	if err := product.MarkSold(); err != nil {
		return nil, err
	}
	if err := c.products.Save(ctx, product); err != nil {
		return nil, err
	}

	report := &MarkSoldReport{
		ProductID:   productID,
		SaleEventID: event.ID,
		SoldAt:      &event.SoldAt,
	}

	c.delistEverywhere(ctx, productID, soldOn, report)
	c.emitSale(ctx, event)

	c.logger.Info("Product marked sold",
		zap.String("product_id", productID.String()),
		zap.String("sold_on", soldOn.String()),
		zap.Bool("price_approximate", approximate),
		zap.Strings("delisted_on", report.MarkedOn),
	)
	return report, nil
}

// ensureSaleEvent returns the product's sale event, creating and persisting
// one when none exists yet. The bool reports whether the event is new.
func (c *Coordinator) ensureSaleEvent(
	ctx context.Context,
	product *catalog.Product,
	soldOn listing.Platform,
	salePrice, fees decimal.Decimal,
	soldAt time.Time,
	approximate bool,
) (*sales.SaleEvent, bool, error) {
	existing, err := c.sales.FindByProduct(ctx, product.ID)
	if err != nil {
		return nil, false, err
	}
	if len(existing) > 0 {
		return &existing[0], false, nil
	}

	event, err := sales.NewSaleEvent(product.ID, soldOn, product.Title, salePrice, fees, soldAt)
	if err != nil {
		return nil, false, err
	}
	if approximate {
		event.MarkApproximate()
	}
	if record, err := c.listings.FindByProductAndPlatform(ctx, product.ID, soldOn); err == nil {
		event.ExternalID = record.ExternalID
	}
	if err := c.sales.Save(ctx, event); err != nil {
		return nil, false, err
	}
	return event, true, nil
}

// emitSale pushes the event to the downstream consumers. Delivery failures
// are picked up again by the sweep's emission retry pass.
func (c *Coordinator) emitSale(ctx context.Context, event *sales.SaleEvent) {
	if c.emitter == nil {
		return
	}
	if err := c.emitter.Emit(ctx, event); err != nil {
		c.logger.Warn("Sale emission incomplete, will retry on next sweep",
			zap.String("sale_event_id", event.ID.String()),
			zap.Error(err),
		)
	}
}

// delistEverywhere marks the product's remaining listings sold, locally and
// on each platform. Platform failures are logged and reported but not
// retried: the local record is already terminal, so nothing re-lists it.
func (c *Coordinator) delistEverywhere(ctx context.Context, productID uuid.UUID, soldOn listing.Platform, report *MarkSoldReport) {
	records, err := c.listings.FindByProduct(ctx, productID)
	if err != nil {
		c.logger.Warn("Could not load listings for delisting",
			zap.String("product_id", productID.String()),
			zap.Error(err),
		)
		return
	}

	for i := range records {
		record := &records[i]
		if record.Status.IsTerminal() {
			continue
		}

		if record.IsLive() && record.Platform != soldOn {
			if err := c.markSoldRemote(ctx, record); err != nil {
				report.FailedOn = append(report.FailedOn, record.Platform.String())
				c.logger.Warn("Could not mark listing sold on platform",
					zap.String("platform", record.Platform.String()),
					zap.String("external_id", record.ExternalID),
					zap.Error(err),
				)
			} else {
				report.MarkedOn = append(report.MarkedOn, record.Platform.String())
			}
		}

		if err := record.MarkSold(); err != nil {
			continue
		}
		if err := c.listings.Save(ctx, record); err != nil {
			c.logger.Warn("Could not persist sold listing",
				zap.String("listing_id", record.ID.String()),
				zap.Error(err),
			)
		}
	}
}

func (c *Coordinator) markSoldRemote(ctx context.Context, record *listing.Record) error {
	adapter, err := c.registry.Get(record.Platform)
	if err != nil {
		return err
	}
	return c.withAuthRetry(ctx, adapter, func() error {
		return adapter.MarkAsSold(ctx, record.ExternalID)
	})
}

// ---------------------------------------------------------------------------
// Staleness flagging
// ---------------------------------------------------------------------------

// FlagForSync marks all of a product's non-terminal listings stale so the
// next sweep pushes the current content. Called after catalog edits.
func (c *Coordinator) FlagForSync(ctx context.Context, productID uuid.UUID) (int, error) {
	records, err := c.listings.FindByProduct(ctx, productID)
	if err != nil {
		return 0, err
	}

	flagged := 0
	for i := range records {
		record := &records[i]
		if record.Status.IsTerminal() {
			continue
		}
		record.FlagForSync()
		if err := c.listings.Save(ctx, record); err != nil {
			return flagged, err
		}
		flagged++
	}
	return flagged, nil
}

// DeleteProductEverywhere removes the product's listings from every platform
// it is live on, then marks the local records deleted. Platform failures are
// collected rather than aborting the pass.
func (c *Coordinator) DeleteProductEverywhere(ctx context.Context, productID uuid.UUID) error {
	records, err := c.listings.FindByProduct(ctx, productID)
	if err != nil {
		return err
	}

	var failures []string
	for i := range records {
		record := &records[i]
		if record.Status.IsTerminal() {
			continue
		}

		if record.IsLive() {
			adapter, err := c.registry.Get(record.Platform)
			if err != nil {
				failures = append(failures, fmt.Sprintf("%s: %v", record.Platform, err))
				continue
			}
			err = c.withAuthRetry(ctx, adapter, func() error {
				return adapter.DeleteListing(ctx, record.ExternalID)
			})
			if err != nil && !errors.Is(err, listing.ErrListingNotFound) {
				failures = append(failures, fmt.Sprintf("%s: %v", record.Platform, err))
				record.RecordFailure(err.Error())
				_ = c.listings.Save(ctx, record)
				continue
			}
		}

		if err := record.MarkDeleted(); err != nil {
			continue
		}
		if err := c.listings.Save(ctx, record); err != nil {
			return err
		}
	}

	if len(failures) > 0 {
		return shared.NewDomainError("DELIST_INCOMPLETE", "Some platforms could not be delisted: "+fmt.Sprint(failures))
	}
	return nil
}

func draftFromProduct(p *catalog.Product) listing.ListingDraft {
	return listing.ListingDraft{
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Images:      p.Images,
		Category:    p.Category,
		Size:        p.Size,
		Condition:   p.Condition,
		Brand:       p.Brand,
		Color:       p.Color,
	}
}
