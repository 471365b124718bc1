package sync

import (
	"time"

	"github.com/crosslister/backend/internal/domain/listing"
	"github.com/google/uuid"
)

// PlatformOutcome is the per-platform result of a cross-post run
type PlatformOutcome struct {
	Platform listing.Platform `json:"platform"`
	Success  bool             `json:"success"`
	Record   *listing.Record  `json:"record,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// CrossPostReport aggregates the outcomes of posting one product everywhere
type CrossPostReport struct {
	ProductID uuid.UUID         `json:"product_id"`
	Outcomes  []PlatformOutcome `json:"outcomes"`
}

// Succeeded counts the platforms that accepted the listing
func (r *CrossPostReport) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Success {
			n++
		}
	}
	return n
}

// SweepReport summarizes one pass over the records flagged for sync
type SweepReport struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Attempted  int       `json:"attempted"`
	Synced     int       `json:"synced"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
}

// SoldCheckReport summarizes one reconciliation pass over external sales
type SoldCheckReport struct {
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Checked    []string    `json:"checked_platforms"`
	SalesFound int         `json:"sales_found"`
	SaleIDs    []uuid.UUID `json:"sale_ids,omitempty"`
}

// ImportReport summarizes importing a platform's listings into the catalog
type ImportReport struct {
	Platform listing.Platform `json:"platform"`
	Found    int              `json:"found"`
	Imported int              `json:"imported"`
	Skipped  int              `json:"skipped"`
}

// MarkSoldReport summarizes marking a product sold across platforms
type MarkSoldReport struct {
	ProductID    uuid.UUID  `json:"product_id"`
	SaleEventID  uuid.UUID  `json:"sale_event_id,omitempty"`
	AlreadySold  bool       `json:"already_sold"`
	MarkedOn     []string   `json:"marked_on"`
	FailedOn     []string   `json:"failed_on,omitempty"`
	SoldAt       *time.Time `json:"sold_at,omitempty"`
}
