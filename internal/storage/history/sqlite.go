package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/newthinker/macrolens/internal/core"
	"github.com/newthinker/macrolens/internal/report"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	id            TEXT PRIMARY KEY,
	generated_at  INTEGER NOT NULL,
	global_regime TEXT NOT NULL,
	confidence    REAL NOT NULL,
	payload       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_generated_at ON reports(generated_at);
`

// SQLiteStore keeps reports as JSON documents in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path. ":memory:" gives a
// private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection serialises writers and keeps :memory: databases alive.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Save upserts a report.
func (s *SQLiteStore) Save(ctx context.Context, r *report.Report) error {
	if r == nil || r.ID == "" {
		return core.WrapError(core.ErrInputInvalid, fmt.Errorf("report ID is required"))
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (id, generated_at, global_regime, confidence, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			generated_at = excluded.generated_at,
			global_regime = excluded.global_regime,
			confidence = excluded.confidence,
			payload = excluded.payload`,
		r.ID, r.GeneratedAt.UnixNano(), string(r.Fusion.GlobalRegime),
		r.Fusion.IntegrationConfidence, string(payload))
	if err != nil {
		return fmt.Errorf("saving report %s: %w", r.ID, err)
	}
	return nil
}

// Get retrieves a report by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*report.Report, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM reports WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.WrapError(core.ErrReportNotFound, fmt.Errorf("id %s", id))
	}
	if err != nil {
		return nil, fmt.Errorf("loading report %s: %w", id, err)
	}
	return decode(payload)
}

// List returns reports matching the filter, newest first.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]*report.Report, error) {
	where, args := whereClause(filter)
	limit := -1
	if filter.Limit > 0 {
		limit = filter.Limit
	}
	args = append(args, limit, max(filter.Offset, 0))

	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM reports`+where+` ORDER BY generated_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	result := []*report.Report{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}
		r, err := decode(payload)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// Count returns the number of reports matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := whereClause(filter)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting reports: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func whereClause(f ListFilter) (string, []any) {
	var conds []string
	var args []any
	if f.GlobalRegime != "" {
		conds = append(conds, "global_regime = ?")
		args = append(args, string(f.GlobalRegime))
	}
	if !f.From.IsZero() {
		conds = append(conds, "generated_at >= ?")
		args = append(args, f.From.UnixNano())
	}
	if !f.To.IsZero() {
		conds = append(conds, "generated_at <= ?")
		args = append(args, f.To.UnixNano())
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func decode(payload string) (*report.Report, error) {
	var r report.Report
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}
	r.GeneratedAt = r.GeneratedAt.UTC()
	return &r, nil
}

