package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/newthinker/macrolens/internal/report"
)

// ReportsPrefix is the root of archived reports.
const ReportsPrefix = "reports"

// ReportKey returns reports/YYYY/MM/DD/<id>.json for the UTC day of at.
func ReportKey(id string, at time.Time) string {
	return path.Join(ReportsPrefix, at.UTC().Format("2006/01/02"), id+".json")
}

// PutReport writes the report as indented JSON and returns its key.
func PutReport(ctx context.Context, s Storage, r *report.Report) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report %s: %w", r.ID, err)
	}
	key := ReportKey(r.ID, r.GeneratedAt)
	if err := s.Write(ctx, key, data); err != nil {
		return "", fmt.Errorf("archiving report %s: %w", r.ID, err)
	}
	return key, nil
}

// GetReport reads an archived report back.
func GetReport(ctx context.Context, s Storage, key string) (*report.Report, error) {
	data, err := s.Read(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	var r report.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}
	return &r, nil
}

// ReportsOn lists the keys archived for the UTC day of day.
func ReportsOn(ctx context.Context, s Storage, day time.Time) ([]string, error) {
	return s.List(ctx, path.Join(ReportsPrefix, day.UTC().Format("2006/01/02")))
}
