package frame

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/newthinker/macrolens/internal/core"
)

func month(i int) time.Time {
	return time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, i, 0)
}

func monthly(indicator string, values ...float64) []core.Observation {
	obs := make([]core.Observation, len(values))
	for i, v := range values {
		obs[i] = core.Observation{Date: month(i), Indicator: indicator, Value: v}
	}
	return obs
}

func TestBuild_DatesStrictlyIncreasing(t *testing.T) {
	obs := []core.Observation{
		{Date: month(3), Indicator: "gdp", Value: 4},
		{Date: month(1), Indicator: "cpi", Value: 2},
		{Date: month(1), Indicator: "gdp", Value: 2},
		{Date: month(3).Add(5 * time.Hour), Indicator: "cpi", Value: 3},
		{Date: month(0), Indicator: "gdp", Value: 1},
	}

	f := Build(obs)

	if f.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", f.Len())
	}
	dates := f.Dates()
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			t.Errorf("dates not strictly increasing at %d: %v <= %v", i, dates[i], dates[i-1])
		}
	}
}

func TestBuild_FirstDuplicateWins(t *testing.T) {
	obs := []core.Observation{
		{Date: month(0), Indicator: "gdp", Value: 1.5},
		{Date: month(0), Indicator: "gdp", Value: 9.9},
	}

	f := Build(obs)

	v, ok := f.Latest("gdp")
	if !ok || v != 1.5 {
		t.Errorf("expected first value 1.5, got %v (ok=%v)", v, ok)
	}
}

func TestBuild_NonFiniteDuplicateSkipped(t *testing.T) {
	obs := []core.Observation{
		{Date: month(0), Indicator: "gdp", Value: math.NaN()},
		{Date: month(0), Indicator: "gdp", Value: math.Inf(1)},
		{Date: month(0), Indicator: "gdp", Value: 2.4},
	}

	f := Build(obs)

	v, ok := f.Latest("gdp")
	if !ok || v != 2.4 {
		t.Errorf("expected finite value 2.4, got %v (ok=%v)", v, ok)
	}
}

func TestBuild_YoYUndefinedBeforeTwelveRows(t *testing.T) {
	values := make([]float64, 15)
	for i := range values {
		values[i] = 100 + float64(i)
	}

	f := Build(monthly("gdp", values...))

	for row := 0; row < YoYPeriods; row++ {
		if _, ok := f.Value("gdp"+SuffixYoY, row); ok {
			t.Errorf("gdp_yoy at row %d should be undefined", row)
		}
	}
	v, ok := f.Value("gdp"+SuffixYoY, 12)
	if !ok {
		t.Fatal("gdp_yoy at row 12 should be defined")
	}
	if math.Abs(v-12) > 1e-9 {
		t.Errorf("expected yoy 12, got %f", v)
	}
}

func TestBuild_DerivedColumns(t *testing.T) {
	f := Build(monthly("base_rate", 3.5, 3.25, 0, 1))

	if v, _ := f.Value("base_rate"+SuffixDiff, 1); math.Abs(v+0.25) > 1e-12 {
		t.Errorf("expected diff -0.25, got %f", v)
	}
	if v, _ := f.Value("base_rate"+SuffixMoM, 1); math.Abs(v-(3.25/3.5-1)*100) > 1e-9 {
		t.Errorf("unexpected mom %f", v)
	}
	if _, ok := f.Value("base_rate"+SuffixMoM, 3); ok {
		t.Error("mom with zero base should be undefined")
	}
	if _, ok := f.Value("base_rate"+SuffixMoM, 0); ok {
		t.Error("first mom should be undefined")
	}
}

func TestBuild_GapsStayUndefined(t *testing.T) {
	obs := append(monthly("gdp", 1, 2, 3), core.Observation{Date: month(1), Indicator: "cpi", Value: 2})

	f := Build(obs)

	if _, ok := f.Value("cpi", 0); ok {
		t.Error("cpi at row 0 should be undefined")
	}
	if _, ok := f.Value("cpi", 2); ok {
		t.Error("cpi at row 2 should be undefined")
	}
	if v, ok := f.Value("cpi", 1); !ok || v != 2 {
		t.Errorf("expected cpi 2 at row 1, got %v", v)
	}
}

func TestBuild_Empty(t *testing.T) {
	f := Build(nil)
	if !f.Empty() {
		t.Error("expected empty frame")
	}
	if _, ok := f.Latest("gdp"); ok {
		t.Error("latest on empty frame should not be ok")
	}
	if !f.LastDate().IsZero() {
		t.Error("expected zero last date")
	}
}

func TestFromColumns_RejectsUnsortedDates(t *testing.T) {
	_, err := FromColumns([]time.Time{month(1), month(0)}, nil)
	if !errors.Is(err, core.ErrInputInvalid) {
		t.Errorf("expected ErrInputInvalid, got %v", err)
	}
}

func TestFromColumns_RejectsLengthMismatch(t *testing.T) {
	_, err := FromColumns([]time.Time{month(0), month(1)}, map[string][]float64{"x": {1}})
	if !errors.Is(err, core.ErrInputInvalid) {
		t.Errorf("expected ErrInputInvalid, got %v", err)
	}
}

func TestFrame_Tail(t *testing.T) {
	f, err := FromColumns(
		[]time.Time{month(0), month(1), month(2)},
		map[string][]float64{"x": {1, 2, 3}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tail := f.Tail(2)
	if tail.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", tail.Len())
	}
	if v, _ := tail.Value("x", 0); v != 2 {
		t.Errorf("expected 2, got %f", v)
	}
	if f.Tail(10).Len() != 3 {
		t.Error("tail larger than frame should return whole frame")
	}
}

func TestFrame_ColumnIsCopy(t *testing.T) {
	f, _ := FromColumns([]time.Time{month(0)}, map[string][]float64{"x": {1}})

	col, _ := f.Column("x")
	col[0] = 42

	if v, _ := f.Latest("x"); v != 1 {
		t.Error("frame mutated through Column")
	}
}
