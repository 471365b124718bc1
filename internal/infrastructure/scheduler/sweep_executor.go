package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appsync "github.com/crosslister/backend/internal/application/sync"
)

// SweepRunner executes the full reconciliation cycle: re-pushing records
// flagged for sync, discovering platform sales, reconciling listing states,
// and retrying pending sale emissions. Each stage runs even when an earlier
// one fails, so a broken platform cannot stall the rest of the cycle.
type SweepRunner struct {
	sweeper *appsync.Sweeper
	emitter appsync.SaleEmitter
	logger  *zap.Logger

	// soldCheck enables polling platforms for settled sales
	soldCheck bool
	// soldCheckSince bounds how far back the sold check asks for sales
	soldCheckSince time.Duration
}

// NewSweepRunner creates a sweep executor
func NewSweepRunner(
	sweeper *appsync.Sweeper,
	emitter appsync.SaleEmitter,
	soldCheck bool,
	soldCheckSince time.Duration,
	logger *zap.Logger,
) *SweepRunner {
	if soldCheckSince <= 0 {
		soldCheckSince = 48 * time.Hour
	}
	return &SweepRunner{
		sweeper:        sweeper,
		emitter:        emitter,
		logger:         logger,
		soldCheck:      soldCheck,
		soldCheckSince: soldCheckSince,
	}
}

// Execute runs one reconciliation cycle and fills in the run's counters
func (r *SweepRunner) Execute(ctx context.Context, run *SweepRun) error {
	var errs []error

	report, err := r.sweeper.SyncAllNeeded(ctx)
	if report != nil {
		run.Attempted = report.Attempted
		run.Synced = report.Synced
		run.Failed = report.Failed
		run.Skipped = report.Skipped
	}
	if err != nil {
		errs = append(errs, err)
		if ctx.Err() != nil {
			// The sweep deadline hit; nothing later would finish either
			return errors.Join(errs...)
		}
	}

	if r.soldCheck {
		since := time.Now().Add(-r.soldCheckSince)
		soldReport, err := r.sweeper.CheckForSoldItems(ctx, &since)
		if soldReport != nil {
			run.SalesFound = soldReport.SalesFound
		}
		if err != nil {
			errs = append(errs, err)
		}

		reconciled, err := r.sweeper.ReconcileStatuses(ctx)
		run.Reconciled = reconciled
		if err != nil {
			errs = append(errs, err)
		}
	}

	completed, err := r.emitter.RetryPending(ctx)
	run.EmissionsCompleted = completed
	if err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Ensure SweepRunner implements SweepExecutor
var _ SweepExecutor = (*SweepRunner)(nil)
