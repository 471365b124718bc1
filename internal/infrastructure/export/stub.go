package export

import (
	"context"
	"fmt"
	"sync"

	appsync "github.com/crosslister/backend/internal/application/sync"
	"github.com/crosslister/backend/internal/domain/sales"
)

// StubRowExporter keeps sale rows in memory. Use it for development when no
// export bucket is configured; rows are lost on restart.
type StubRowExporter struct {
	mu   sync.Mutex
	rows [][]string
}

// NewStubRowExporter creates a new in-memory exporter
func NewStubRowExporter() *StubRowExporter {
	return &StubRowExporter{}
}

// Ensure StubRowExporter implements RowExporter
var _ appsync.RowExporter = (*StubRowExporter)(nil)

// AppendSaleRow stores the row and returns a stub reference
func (s *StubRowExporter) AppendSaleRow(ctx context.Context, event *sales.SaleEvent) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows = append(s.rows, saleRow(event))
	return fmt.Sprintf("stub:%d", len(s.rows)), nil
}

// Rows returns a copy of the stored rows (for testing/inspection)
func (s *StubRowExporter) Rows() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([][]string, len(s.rows))
	copy(out, s.rows)
	return out
}
