package sync

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/crosslister/backend/internal/domain/catalog"
	"github.com/crosslister/backend/internal/domain/listing"
	"github.com/crosslister/backend/internal/domain/shared"
)

// soldKeyTTL bounds how long a processed external sale key is remembered.
// Platforms only report recent sales, so a month is ample.
const soldKeyTTL = 30 * 24 * time.Hour

// Sweeper runs the periodic reconciliation passes: re-pushing stale
// listings, discovering sales that happened on the platforms, and importing
// listings created outside the system.
type Sweeper struct {
	coordinator *Coordinator
	products    catalog.ProductRepository
	listings    listing.Repository
	registry    listing.Registry
	processed   shared.IdempotencyStore
	logger      *zap.Logger
}

// NewSweeper creates a reconciliation sweeper
func NewSweeper(
	coordinator *Coordinator,
	products catalog.ProductRepository,
	listings listing.Repository,
	registry listing.Registry,
	processed shared.IdempotencyStore,
	logger *zap.Logger,
) *Sweeper {
	return &Sweeper{
		coordinator: coordinator,
		products:    products,
		listings:    listings,
		registry:    registry,
		processed:   processed,
		logger:      logger,
	}
}

// ---------------------------------------------------------------------------
// Stale listing sweep
// ---------------------------------------------------------------------------

// SyncAllNeeded pushes every record flagged for sync. Records whose product
// turned unlistable in the meantime are skipped; per-record failures are
// counted and left flagged for the next pass.
func (s *Sweeper) SyncAllNeeded(ctx context.Context) (*SweepReport, error) {
	report := &SweepReport{StartedAt: time.Now()}

	records, err := s.listings.FindNeedingSync(ctx)
	if err != nil {
		return nil, err
	}
	report.Attempted = len(records)

	for i := range records {
		select {
		case <-ctx.Done():
			report.FinishedAt = time.Now()
			return report, ctx.Err()
		default:
		}

		record := &records[i]
		synced, err := s.coordinator.SyncProductToPlatform(ctx, record.ProductID, record.Platform)
		switch {
		case err != nil:
			var de *shared.DomainError
			if errors.As(err, &de) && de.Code == "NOT_LISTABLE" {
				report.Skipped++
				continue
			}
			report.Failed++
			s.logger.Error("Sweep could not sync record",
				zap.String("product_id", record.ProductID.String()),
				zap.String("platform", record.Platform.String()),
				zap.Error(err),
			)
		case synced == nil:
			report.Failed++
		default:
			report.Synced++
		}
	}

	report.FinishedAt = time.Now()
	s.logger.Info("Stale listing sweep finished",
		zap.Int("attempted", report.Attempted),
		zap.Int("synced", report.Synced),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}

// ---------------------------------------------------------------------------
// Sold item discovery
// ---------------------------------------------------------------------------

// CheckForSoldItems asks every platform for its recent sales and records the
// ones that match a live local listing. Each external sale is processed at
// most once; a platform that fails to report is logged and skipped so the
// others still run.
func (s *Sweeper) CheckForSoldItems(ctx context.Context, since *time.Time) (*SoldCheckReport, error) {
	report := &SoldCheckReport{StartedAt: time.Now()}

	for _, adapter := range s.registry.List() {
		platform := adapter.Platform()
		report.Checked = append(report.Checked, platform.String())

		extSales, err := adapter.GetSales(ctx, since)
		if err != nil {
			s.logger.Warn("Could not fetch sales from platform",
				zap.String("platform", platform.String()),
				zap.Error(err),
			)
			continue
		}

		for _, sale := range extSales {
			saleID, err := s.processExternalSale(ctx, platform, sale)
			if err != nil {
				s.logger.Warn("Could not process external sale",
					zap.String("platform", platform.String()),
					zap.String("external_id", sale.ExternalID),
					zap.Error(err),
				)
				continue
			}
			if saleID != uuid.Nil {
				report.SalesFound++
				report.SaleIDs = append(report.SaleIDs, saleID)
			}
		}
	}

	report.FinishedAt = time.Now()
	s.logger.Info("Sold item check finished",
		zap.Strings("platforms", report.Checked),
		zap.Int("sales_found", report.SalesFound),
	)
	return report, nil
}

// processExternalSale records one platform-reported sale. The idempotency
// store suppresses re-processing when platforms re-report the same sale on
// consecutive sweeps; the key is claimed only once the sale is safely
// recorded, so a failed attempt is retried with the platform's true price
// and time on the next sweep. Returns uuid.Nil when nothing new was recorded.
func (s *Sweeper) processExternalSale(ctx context.Context, platform listing.Platform, sale listing.ExternalSale) (uuid.UUID, error) {
	key := "sold:" + platform.String() + ":" + sale.ExternalID
	if s.processed != nil {
		done, err := s.processed.IsProcessed(ctx, key)
		if err != nil {
			return uuid.Nil, err
		}
		if done {
			return uuid.Nil, nil
		}
	}

	record, err := s.listings.FindByPlatformExternalID(ctx, platform, sale.ExternalID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			// A sale for something we never tracked is not ours to record
			return uuid.Nil, nil
		}
		return uuid.Nil, err
	}
	if record.Status == listing.StatusSold {
		s.markProcessed(ctx, key)
		return uuid.Nil, nil
	}

	result, err := s.coordinator.MarkProductSold(ctx, record.ProductID, platform, sale.Price, decimal.Zero, sale.SoldAt)
	if err != nil {
		return uuid.Nil, err
	}
	s.markProcessed(ctx, key)
	if result.AlreadySold {
		return uuid.Nil, nil
	}
	return result.SaleEventID, nil
}

// markProcessed claims a processed-sale key. Failures only cost a redundant
// re-check on the next sweep, which MarkProductSold absorbs.
func (s *Sweeper) markProcessed(ctx context.Context, key string) {
	if s.processed == nil {
		return
	}
	if _, err := s.processed.MarkProcessed(ctx, key, soldKeyTTL); err != nil {
		s.logger.Warn("Could not persist processed sale key",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// ---------------------------------------------------------------------------
// Status reconciliation
// ---------------------------------------------------------------------------

// ReconcileStatuses compares each live local record against the platform's
// reported state. Listings gone on the platform are marked deleted locally;
// listings the platform reports sold are treated as discovered sales with
// the list price as an approximate amount. Unknown states change nothing.
func (s *Sweeper) ReconcileStatuses(ctx context.Context) (int, error) {
	changed := 0
	for _, adapter := range s.registry.List() {
		platform := adapter.Platform()

		records, err := s.listings.FindActiveByPlatform(ctx, platform)
		if err != nil {
			return changed, err
		}

		for i := range records {
			record := &records[i]

			status, err := adapter.CheckListingStatus(ctx, record.ExternalID)
			if err != nil {
				s.logger.Warn("Could not check listing status",
					zap.String("platform", platform.String()),
					zap.String("external_id", record.ExternalID),
					zap.Error(err),
				)
				continue
			}

			switch status {
			case listing.ExternalStatusDeleted:
				if err := record.MarkDeleted(); err != nil {
					continue
				}
				if err := s.listings.Save(ctx, record); err != nil {
					return changed, err
				}
				changed++
			case listing.ExternalStatusSold:
				// No sale detail here: zero price makes the coordinator fall
				// back to the list price flagged as approximate.
				result, err := s.coordinator.MarkProductSold(ctx, record.ProductID, platform, decimal.Zero, decimal.Zero, time.Now())
				if err != nil {
					s.logger.Warn("Could not record discovered sale",
						zap.String("product_id", record.ProductID.String()),
						zap.String("platform", platform.String()),
						zap.Error(err),
					)
					continue
				}
				if !result.AlreadySold {
					changed++
				}
			}
		}
	}
	return changed, nil
}

// ---------------------------------------------------------------------------
// Import
// ---------------------------------------------------------------------------

// ImportFromPlatform pulls the platform's active listings and creates
// catalog products for the ones not tracked yet. Already-tracked external
// IDs are skipped, so re-running the import is safe.
func (s *Sweeper) ImportFromPlatform(ctx context.Context, platform listing.Platform) (*ImportReport, error) {
	adapter, err := s.registry.Get(platform)
	if err != nil {
		return nil, err
	}

	external, err := adapter.ListActiveListings(ctx)
	if err != nil {
		return nil, err
	}

	report := &ImportReport{Platform: platform, Found: len(external)}
	for _, ext := range external {
		imported, err := s.importListing(ctx, platform, ext)
		if err != nil {
			s.logger.Warn("Could not import listing",
				zap.String("platform", platform.String()),
				zap.String("external_id", ext.ExternalID),
				zap.Error(err),
			)
			report.Skipped++
			continue
		}
		if imported {
			report.Imported++
		} else {
			report.Skipped++
		}
	}

	s.logger.Info("Platform import finished",
		zap.String("platform", platform.String()),
		zap.Int("found", report.Found),
		zap.Int("imported", report.Imported),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}

func (s *Sweeper) importListing(ctx context.Context, platform listing.Platform, ext listing.ExternalListing) (bool, error) {
	if ext.ExternalID == "" {
		return false, nil
	}

	_, err := s.listings.FindByPlatformExternalID(ctx, platform, ext.ExternalID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return false, err
	}

	product, err := catalog.NewProduct(ext.Title, ext.Price)
	if err != nil {
		return false, err
	}
	product.Description = ext.Description
	product.SetAttributes(ext.Category, ext.Size, ext.Condition, ext.Brand, "")
	product.SetImages(ext.Images)
	if err := product.MarkPosted(); err != nil {
		return false, err
	}
	if err := s.products.Save(ctx, product); err != nil {
		return false, err
	}

	record, err := listing.NewRecord(product.ID, platform)
	if err != nil {
		return false, err
	}
	if err := record.MarkSynced(ext.ExternalID, ext.URL); err != nil {
		return false, err
	}
	if err := s.listings.Save(ctx, record); err != nil {
		return false, err
	}
	return true, nil
}
