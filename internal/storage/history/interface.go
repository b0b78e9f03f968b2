// Package history persists analysis reports for later retrieval.
package history

import (
	"context"
	"time"

	"github.com/newthinker/macrolens/internal/core"
	"github.com/newthinker/macrolens/internal/report"
)

// Store defines the interface for report persistence.
type Store interface {
	// Save persists a report. The report must carry an ID.
	Save(ctx context.Context, r *report.Report) error

	// Get retrieves a report by ID or returns core.ErrReportNotFound.
	Get(ctx context.Context, id string) (*report.Report, error)

	// List returns reports matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]*report.Report, error)

	// Count returns the number of reports matching the filter.
	Count(ctx context.Context, filter ListFilter) (int, error)

	// Close releases the store's resources.
	Close() error
}

// ListFilter defines criteria for listing reports.
type ListFilter struct {
	GlobalRegime core.GlobalRegime
	From         time.Time
	To           time.Time
	Limit        int
	Offset       int
}

func (f ListFilter) matches(r *report.Report) bool {
	if f.GlobalRegime != "" && r.Fusion.GlobalRegime != f.GlobalRegime {
		return false
	}
	if !f.From.IsZero() && r.GeneratedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && r.GeneratedAt.After(f.To) {
		return false
	}
	return true
}

// Open returns the store named by dsn: "" or "memory" keeps up to
// memoryCapacity reports in process, anything else is a SQLite path.
func Open(dsn string, memoryCapacity int) (Store, error) {
	if dsn == "" || dsn == "memory" {
		return NewMemoryStore(memoryCapacity), nil
	}
	return OpenSQLite(dsn)
}
