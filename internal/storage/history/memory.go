package history

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/newthinker/macrolens/internal/core"
	"github.com/newthinker/macrolens/internal/report"
)

// MemoryStore is an in-memory report store bounded to maxSize entries.
type MemoryStore struct {
	reports []*report.Report
	maxSize int
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory store with max capacity.
func NewMemoryStore(maxSize int) *MemoryStore {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &MemoryStore{
		reports: make([]*report.Report, 0, min(maxSize, 64)),
		maxSize: maxSize,
	}
}

// Save adds a report to the store, replacing any report with the same ID.
func (m *MemoryStore) Save(ctx context.Context, r *report.Report) error {
	if r == nil || r.ID == "" {
		return core.WrapError(core.ErrInputInvalid, fmt.Errorf("report ID is required"))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *r
	for i := range m.reports {
		if m.reports[i].ID == r.ID {
			m.reports[i] = &cp
			return nil
		}
	}
	m.reports = append(m.reports, &cp)

	// Trim if over capacity (remove oldest)
	if len(m.reports) > m.maxSize {
		m.reports = m.reports[len(m.reports)-m.maxSize:]
	}

	return nil
}

// Get retrieves a report by ID.
func (m *MemoryStore) Get(ctx context.Context, id string) (*report.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.reports {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, core.WrapError(core.ErrReportNotFound, fmt.Errorf("id %s", id))
}

// List returns reports matching the filter, newest first.
func (m *MemoryStore) List(ctx context.Context, filter ListFilter) ([]*report.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*report.Report, 0, len(m.reports))
	// Walk backwards so equal timestamps keep newest-saved first.
	for i := len(m.reports) - 1; i >= 0; i-- {
		if filter.matches(m.reports[i]) {
			cp := *m.reports[i]
			result = append(result, &cp)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].GeneratedAt.After(result[j].GeneratedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*report.Report{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

// Count returns the count of matching reports.
func (m *MemoryStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, r := range m.reports {
		if filter.matches(r) {
			count++
		}
	}
	return count, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
