package frame

import (
	"sort"
	"time"

	"github.com/newthinker/macrolens/internal/core"
	"github.com/newthinker/macrolens/internal/indicator"
)

// Derived column suffixes.
const (
	SuffixMoM  = "_mom"
	SuffixYoY  = "_yoy"
	SuffixDiff = "_diff"
)

// YoYPeriods is the row distance used for year-over-year change on monthly data.
const YoYPeriods = 12

// Build pivots observations into a frame with one row per UTC calendar day
// and one column per indicator, then adds the _mom, _yoy and _diff columns
// for every indicator.
//
// Input may be unsorted and interleaved. For a repeated (day, indicator) pair
// the first observation wins. Invalid observations are ignored.
func Build(observations []core.Observation) *Frame {
	type cell struct {
		day       time.Time
		indicator string
	}

	values := make(map[cell]float64)
	days := make(map[time.Time]struct{})
	indicators := make(map[string]struct{})

	for _, o := range observations {
		if !o.IsValid() {
			continue
		}
		key := cell{day: Day(o.Date), indicator: o.Indicator}
		if _, seen := values[key]; seen {
			continue
		}
		values[key] = o.Value
		days[key.day] = struct{}{}
		indicators[o.Indicator] = struct{}{}
	}

	dates := make([]time.Time, 0, len(days))
	for d := range days {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	names := make([]string, 0, len(indicators))
	for name := range indicators {
		names = append(names, name)
	}
	sort.Strings(names)

	f := &Frame{
		dates:   dates,
		columns: make(map[string][]float64, len(names)*4),
	}
	for _, name := range names {
		col := nanColumn(len(dates))
		for i, d := range dates {
			if v, ok := values[cell{day: d, indicator: name}]; ok {
				col[i] = v
			}
		}
		f.columns[name] = col
	}

	for _, name := range names {
		col := f.columns[name]
		f.derive(name+SuffixMoM, indicator.PctChange(col, 1))
		f.derive(name+SuffixYoY, indicator.PctChange(col, YoYPeriods))
		f.derive(name+SuffixDiff, indicator.Diff(col, 1))
	}

	return f
}

// derive adds a computed column unless a raw indicator already uses the name.
func (f *Frame) derive(name string, values []float64) {
	if _, exists := f.columns[name]; exists {
		return
	}
	f.columns[name] = values
}
