package sync

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/crosslister/backend/internal/domain/sales"
)

// Ledger is the bookkeeping system sales are pushed into
type Ledger interface {
	// RecordSale posts one sale to the ledger
	RecordSale(ctx context.Context, event *sales.SaleEvent) error
}

// RowExporter appends sale rows to the operator's export sheet
type RowExporter interface {
	// AppendSaleRow writes one sale row and returns a reference to it
	AppendSaleRow(ctx context.Context, event *sales.SaleEvent) (string, error)
}

// SaleEmitter delivers sale events to the downstream consumers
type SaleEmitter interface {
	// Emit pushes one event to every consumer that has not received it yet
	Emit(ctx context.Context, event *sales.SaleEvent) error

	// RetryPending re-emits all events with an incomplete delivery
	RetryPending(ctx context.Context) (int, error)
}

// Emitter pushes sale events to the bookkeeping ledger and the export sheet.
// Delivery state lives on the event itself, so a consumer that already has
// the event is never sent it again and partial deliveries resume where they
// stopped.
type Emitter struct {
	sales    sales.Repository
	ledger   Ledger
	exporter RowExporter
	logger   *zap.Logger
}

// NewEmitter creates a sale emitter. Either consumer may be nil, in which
// case its leg is treated as already delivered.
func NewEmitter(saleEvents sales.Repository, ledger Ledger, exporter RowExporter, logger *zap.Logger) *Emitter {
	return &Emitter{
		sales:    saleEvents,
		ledger:   ledger,
		exporter: exporter,
		logger:   logger,
	}
}

// Emit delivers the event to each consumer it has not reached yet. The event
// is saved after every successful leg so progress survives a crash between
// legs. All legs are attempted even when an earlier one fails.
func (e *Emitter) Emit(ctx context.Context, event *sales.SaleEvent) error {
	var errs []error

	if !event.LedgerSynced {
		if e.ledger == nil {
			event.MarkLedgerSynced()
		} else if err := e.ledger.RecordSale(ctx, event); err != nil {
			errs = append(errs, err)
			e.logger.Warn("Ledger rejected sale",
				zap.String("sale_event_id", event.ID.String()),
				zap.Error(err),
			)
		} else {
			event.MarkLedgerSynced()
		}
	}

	if !event.ExportSynced {
		if e.exporter == nil {
			event.MarkExported("")
		} else if rowRef, err := e.exporter.AppendSaleRow(ctx, event); err != nil {
			errs = append(errs, err)
			e.logger.Warn("Export sheet rejected sale row",
				zap.String("sale_event_id", event.ID.String()),
				zap.Error(err),
			)
		} else {
			event.MarkExported(rowRef)
		}
	}

	if err := e.sales.Save(ctx, event); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// RetryPending re-emits every event still missing a consumer. It returns the
// number of events that became fully delivered during the pass.
func (e *Emitter) RetryPending(ctx context.Context) (int, error) {
	pending, err := e.sales.FindPendingEmission(ctx)
	if err != nil {
		return 0, err
	}

	completed := 0
	for i := range pending {
		event := &pending[i]
		if err := e.Emit(ctx, event); err != nil {
			continue
		}
		if event.IsFullyEmitted() {
			completed++
		}
	}

	if len(pending) > 0 {
		e.logger.Info("Retried pending sale emissions",
			zap.Int("pending", len(pending)),
			zap.Int("completed", completed),
		)
	}
	return completed, nil
}

// Ensure Emitter implements SaleEmitter
var _ SaleEmitter = (*Emitter)(nil)
