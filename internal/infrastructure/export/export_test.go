package export

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosslister/backend/internal/domain/listing"
	"github.com/crosslister/backend/internal/domain/sales"
	infraconfig "github.com/crosslister/backend/internal/infrastructure/config"
)

func testSaleEvent(t *testing.T) *sales.SaleEvent {
	t.Helper()
	soldAt := time.Date(2026, 8, 20, 14, 30, 0, 0, time.UTC)
	event, err := sales.NewSaleEvent(uuid.New(), listing.PlatformVinted, "Wool Jacket",
		decimal.RequireFromString("42.50"), decimal.RequireFromString("2.50"), soldAt)
	require.NoError(t, err)
	return event
}

func TestSaleRow(t *testing.T) {
	event := testSaleEvent(t)
	event.MarkApproximate()

	row := saleRow(event)
	require.Len(t, row, len(csvHeader))
	assert.Equal(t, event.ID.String(), row[0])
	assert.Equal(t, "2026-08-20T14:30:00Z", row[1])
	assert.Equal(t, "vinted", row[2])
	assert.Equal(t, "Wool Jacket", row[3])
	assert.Equal(t, "42.50", row[4])
	assert.Equal(t, "2.50", row[5])
	assert.Equal(t, "40.00", row[6])
	assert.Equal(t, "true", row[7])
}

func TestS3RowExporter_ObjectKey(t *testing.T) {
	exporter := &S3RowExporter{bucket: "exports", objectPrefix: "sales"}
	soldAt := time.Date(2026, 8, 20, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, "sales/sales-2026-08.csv", exporter.objectKey(soldAt))

	bare := &S3RowExporter{bucket: "exports"}
	assert.Equal(t, "sales-2026-08.csv", bare.objectKey(soldAt))
}

func TestNewS3RowExporter_RequiresBucket(t *testing.T) {
	_, err := NewS3RowExporter(&infraconfig.ExportConfig{}, nil)
	assert.Error(t, err)

	_, err = NewS3RowExporter(nil, nil)
	assert.Error(t, err)
}

func TestStubRowExporter_AppendSaleRow(t *testing.T) {
	exporter := NewStubRowExporter()
	ctx := context.Background()

	ref1, err := exporter.AppendSaleRow(ctx, testSaleEvent(t))
	require.NoError(t, err)
	assert.Equal(t, "stub:1", ref1)

	ref2, err := exporter.AppendSaleRow(ctx, testSaleEvent(t))
	require.NoError(t, err)
	assert.Equal(t, "stub:2", ref2)

	rows := exporter.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "Wool Jacket", rows[0][3])
}
