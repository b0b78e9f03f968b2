// Package dataset loads analysis inputs from CSV and JSON files.
package dataset

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/macrolens/internal/core"
	"github.com/newthinker/macrolens/internal/source"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01",
	"2006/01/02",
}

// Files names the input files of one analysis. Any of them may be empty.
type Files struct {
	Observations string `mapstructure:"observations" json:"observations,omitempty"`
	Bars         string `mapstructure:"bars" json:"bars,omitempty"`
	Snapshot     string `mapstructure:"snapshot" json:"snapshot,omitempty"`
}

// Empty reports whether no file is named.
func (f Files) Empty() bool {
	return f.Observations == "" && f.Bars == "" && f.Snapshot == ""
}

// Load reads every named file into one snapshot. CSV rows are appended to
// whatever the snapshot file provides.
func (f Files) Load() (source.Snapshot, error) {
	var snap source.Snapshot
	if f.Empty() {
		return snap, core.WrapError(core.ErrNoData, errors.New("no input files configured"))
	}
	if f.Snapshot != "" {
		s, err := LoadSnapshotJSON(f.Snapshot)
		if err != nil {
			return snap, err
		}
		snap = s
	}
	if f.Observations != "" {
		obs, err := LoadObservationsCSV(f.Observations)
		if err != nil {
			return snap, err
		}
		snap.Observations = append(snap.Observations, obs...)
	}
	if f.Bars != "" {
		bars, err := LoadBarsCSV(f.Bars)
		if err != nil {
			return snap, err
		}
		snap.Bars = append(snap.Bars, bars...)
	}
	return snap, nil
}

// LoadObservationsCSV reads date,indicator,value[,unit,frequency] rows.
func LoadObservationsCSV(path string) ([]core.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	obs, err := ReadObservations(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return obs, nil
}

// ReadObservations parses observation CSV with a header row. Rows with an
// empty value are gaps and are skipped.
func ReadObservations(r io.Reader) ([]core.Observation, error) {
	t, err := readTable(r, "date", "indicator", "value")
	if err != nil {
		return nil, err
	}

	var out []core.Observation
	for t.next() {
		raw := t.get("value")
		if isGap(raw) {
			continue
		}
		date, err := parseDate(t.get("date"))
		if err != nil {
			return nil, t.errorf("date: %v", err)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, t.errorf("value %q: %v", raw, err)
		}
		out = append(out, core.Observation{
			Date:      date,
			Indicator: t.get("indicator"),
			Value:     v,
			Unit:      t.get("unit"),
			Frequency: t.get("frequency"),
		})
	}
	return out, t.err
}

// LoadBarsCSV reads date,symbol,close[,open,high,low,volume] rows.
func LoadBarsCSV(path string) ([]core.OHLCV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	bars, err := ReadBars(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bars, nil
}

// ReadBars parses daily bar CSV with a header row. Rows without a close are
// skipped.
func ReadBars(r io.Reader) ([]core.OHLCV, error) {
	t, err := readTable(r, "date", "symbol", "close")
	if err != nil {
		return nil, err
	}

	var out []core.OHLCV
	for t.next() {
		raw := t.get("close")
		if isGap(raw) {
			continue
		}
		date, err := parseDate(t.get("date"))
		if err != nil {
			return nil, t.errorf("date: %v", err)
		}
		bar := core.OHLCV{Symbol: t.get("symbol"), Interval: "1d", Time: date}
		if bar.Close, err = strconv.ParseFloat(raw, 64); err != nil {
			return nil, t.errorf("close %q: %v", raw, err)
		}
		for _, field := range []struct {
			name string
			dst  *float64
		}{{"open", &bar.Open}, {"high", &bar.High}, {"low", &bar.Low}} {
			if s := t.get(field.name); !isGap(s) {
				if *field.dst, err = strconv.ParseFloat(s, 64); err != nil {
					return nil, t.errorf("%s %q: %v", field.name, s, err)
				}
			}
		}
		if s := t.get("volume"); !isGap(s) {
			vol, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, t.errorf("volume %q: %v", s, err)
			}
			bar.Volume = int64(vol)
		}
		out = append(out, bar)
	}
	return out, t.err
}

// LoadSnapshotJSON reads a {"observations": [...], "bars": [...]} document.
func LoadSnapshotJSON(path string) (source.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return source.Snapshot{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	snap, err := DecodeSnapshot(f)
	if err != nil {
		return source.Snapshot{}, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// DecodeSnapshot decodes a JSON snapshot.
func DecodeSnapshot(r io.Reader) (source.Snapshot, error) {
	var snap source.Snapshot
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		return source.Snapshot{}, core.WrapError(core.ErrInputInvalid, fmt.Errorf("decoding snapshot: %w", err))
	}
	return snap, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func isGap(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "na", "null", ".":
		return true
	}
	return false
}

// table walks the rows of a CSV file addressed by header name.
type table struct {
	r    *csv.Reader
	cols map[string]int
	row  []string
	line int
	err  error
}

func readTable(r io.Reader, required ...string) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, core.WrapError(core.ErrInputInvalid, errors.New("missing header row"))
	}
	if err != nil {
		return nil, core.WrapError(core.ErrInputInvalid, err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, core.WrapError(core.ErrInputInvalid, fmt.Errorf("missing column %q", name))
		}
	}
	return &table{r: cr, cols: cols, line: 1}, nil
}

func (t *table) next() bool {
	for {
		row, err := t.r.Read()
		if err == io.EOF {
			return false
		}
		t.line++
		if err != nil {
			t.err = core.WrapError(core.ErrInputInvalid, err)
			return false
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		t.row = row
		return true
	}
}

func (t *table) get(name string) string {
	i, ok := t.cols[name]
	if !ok || i >= len(t.row) {
		return ""
	}
	return strings.TrimSpace(t.row[i])
}

func (t *table) errorf(format string, args ...any) error {
	return core.WrapError(core.ErrInputInvalid,
		fmt.Errorf("line %d: %s", t.line, fmt.Sprintf(format, args...)))
}
