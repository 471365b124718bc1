package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/crosslister/backend/internal/domain/listing"
	"github.com/crosslister/backend/internal/domain/sales"
)

func newTestSaleEvent(t *testing.T) *sales.SaleEvent {
	t.Helper()
	event, err := sales.NewSaleEvent(uuid.New(), listing.PlatformVinted, "Wool Jacket",
		decimal.NewFromInt(38), decimal.NewFromInt(2), time.Now())
	assert.NoError(t, err)
	return event
}

func TestEmitter_DeliversBothLegs(t *testing.T) {
	saleRepo := new(MockSaleRepository)
	ledger := new(MockLedger)
	exporter := new(MockRowExporter)
	emitter := NewEmitter(saleRepo, ledger, exporter, zap.NewNop())

	event := newTestSaleEvent(t)
	ledger.On("RecordSale", mock.Anything, event).Return(nil)
	exporter.On("AppendSaleRow", mock.Anything, event).Return("row-3", nil)
	saleRepo.On("Save", mock.Anything, event).Return(nil)

	err := emitter.Emit(context.Background(), event)

	assert.NoError(t, err)
	assert.True(t, event.LedgerSynced)
	assert.True(t, event.ExportSynced)
	assert.Equal(t, "row-3", event.ExportRowRef)
	assert.True(t, event.IsFullyEmitted())
}

func TestEmitter_PartialFailureKeepsProgress(t *testing.T) {
	saleRepo := new(MockSaleRepository)
	ledger := new(MockLedger)
	exporter := new(MockRowExporter)
	emitter := NewEmitter(saleRepo, ledger, exporter, zap.NewNop())

	event := newTestSaleEvent(t)
	ledger.On("RecordSale", mock.Anything, event).Return(errors.New("ledger unavailable"))
	exporter.On("AppendSaleRow", mock.Anything, event).Return("row-9", nil)
	saleRepo.On("Save", mock.Anything, event).Return(nil)

	err := emitter.Emit(context.Background(), event)

	assert.Error(t, err)
	assert.False(t, event.LedgerSynced)
	assert.True(t, event.ExportSynced)
	assert.Equal(t, "row-9", event.ExportRowRef)
}

func TestEmitter_DeliveredLegNotRepeated(t *testing.T) {
	saleRepo := new(MockSaleRepository)
	ledger := new(MockLedger)
	exporter := new(MockRowExporter)
	emitter := NewEmitter(saleRepo, ledger, exporter, zap.NewNop())

	event := newTestSaleEvent(t)
	event.MarkExported("row-1")

	ledger.On("RecordSale", mock.Anything, event).Return(nil)
	saleRepo.On("Save", mock.Anything, event).Return(nil)

	err := emitter.Emit(context.Background(), event)

	assert.NoError(t, err)
	assert.True(t, event.IsFullyEmitted())
	exporter.AssertNotCalled(t, "AppendSaleRow", mock.Anything, mock.Anything)
}

func TestEmitter_NilConsumersCountAsDelivered(t *testing.T) {
	saleRepo := new(MockSaleRepository)
	emitter := NewEmitter(saleRepo, nil, nil, zap.NewNop())

	event := newTestSaleEvent(t)
	saleRepo.On("Save", mock.Anything, event).Return(nil)

	err := emitter.Emit(context.Background(), event)

	assert.NoError(t, err)
	assert.True(t, event.IsFullyEmitted())
}

func TestEmitter_RetryPending(t *testing.T) {
	saleRepo := new(MockSaleRepository)
	ledger := new(MockLedger)
	exporter := new(MockRowExporter)
	emitter := NewEmitter(saleRepo, ledger, exporter, zap.NewNop())

	stuck := newTestSaleEvent(t)
	stuck.MarkExported("row-2")
	hopeless := newTestSaleEvent(t)

	saleRepo.On("FindPendingEmission", mock.Anything).
		Return([]sales.SaleEvent{*stuck, *hopeless}, nil)
	ledger.On("RecordSale", mock.Anything, mock.MatchedBy(func(e *sales.SaleEvent) bool {
		return e.ID == stuck.ID
	})).Return(nil)
	ledger.On("RecordSale", mock.Anything, mock.MatchedBy(func(e *sales.SaleEvent) bool {
		return e.ID == hopeless.ID
	})).Return(errors.New("ledger unavailable"))
	exporter.On("AppendSaleRow", mock.Anything, mock.MatchedBy(func(e *sales.SaleEvent) bool {
		return e.ID == hopeless.ID
	})).Return("row-5", nil)
	saleRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	completed, err := emitter.RetryPending(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1, completed)
}
