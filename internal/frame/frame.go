// Package frame holds the wide, date-indexed indicator table the
// classifiers read from.
package frame

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/newthinker/macrolens/internal/core"
)

// Frame is an immutable table indexed by date with one float column per
// indicator. NaN marks an undefined value. Dates are strictly ascending.
type Frame struct {
	dates   []time.Time
	columns map[string][]float64
}

// FromColumns builds a frame from pre-computed columns.
// Every column must have one value per date and dates must be strictly ascending.
func FromColumns(dates []time.Time, columns map[string][]float64) (*Frame, error) {
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return nil, core.WrapError(core.ErrInputInvalid,
				fmt.Errorf("dates not strictly ascending at row %d", i))
		}
	}
	f := &Frame{
		dates:   append([]time.Time(nil), dates...),
		columns: make(map[string][]float64, len(columns)),
	}
	for name, values := range columns {
		if len(values) != len(dates) {
			return nil, core.WrapError(core.ErrInputInvalid,
				fmt.Errorf("column %s has %d values for %d dates", name, len(values), len(dates)))
		}
		f.columns[name] = append([]float64(nil), values...)
	}
	return f, nil
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.dates)
}

// Empty reports whether the frame has no rows.
func (f *Frame) Empty() bool { return f.Len() == 0 }

// Dates returns a copy of the row dates.
func (f *Frame) Dates() []time.Time {
	if f == nil {
		return nil
	}
	return append([]time.Time(nil), f.dates...)
}

// FirstDate returns the first row date, or the zero time for an empty frame.
func (f *Frame) FirstDate() time.Time {
	if f.Empty() {
		return time.Time{}
	}
	return f.dates[0]
}

// LastDate returns the last row date, or the zero time for an empty frame.
func (f *Frame) LastDate() time.Time {
	if f.Empty() {
		return time.Time{}
	}
	return f.dates[len(f.dates)-1]
}

// Columns returns the column names in lexical order.
func (f *Frame) Columns() []string {
	if f == nil {
		return nil
	}
	names := make([]string, 0, len(f.columns))
	for name := range f.columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether the column exists.
func (f *Frame) Has(name string) bool {
	if f == nil {
		return false
	}
	_, ok := f.columns[name]
	return ok
}

// Column returns a copy of the column values.
func (f *Frame) Column(name string) ([]float64, bool) {
	if f == nil {
		return nil, false
	}
	values, ok := f.columns[name]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), values...), true
}

// Value returns the value at row. ok is false for an unknown column,
// a row out of range or an undefined value.
func (f *Frame) Value(name string, row int) (float64, bool) {
	if f == nil || row < 0 || row >= len(f.dates) {
		return 0, false
	}
	values, ok := f.columns[name]
	if !ok {
		return 0, false
	}
	v := values[row]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Latest returns the value in the last row.
func (f *Frame) Latest(name string) (float64, bool) {
	return f.Value(name, f.Len()-1)
}

// Tail returns a frame with the last n rows. The result shares storage
// with f, which is safe because frames are never mutated.
func (f *Frame) Tail(n int) *Frame {
	if f == nil {
		return nil
	}
	if n >= len(f.dates) {
		return f
	}
	if n < 0 {
		n = 0
	}
	start := len(f.dates) - n
	out := &Frame{
		dates:   f.dates[start:],
		columns: make(map[string][]float64, len(f.columns)),
	}
	for name, values := range f.columns {
		out.columns[name] = values[start:]
	}
	return out
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func nanColumn(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
