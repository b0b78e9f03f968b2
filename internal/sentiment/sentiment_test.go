package sentiment

import (
	"math"
	"testing"
	"time"

	"github.com/newthinker/macrolens/internal/core"
	"github.com/newthinker/macrolens/internal/frame"
)

func flat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func ramp(n int, from, to float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + (to-from)*float64(i)/float64(n-1)
	}
	return out
}

func series(values []float64) frame.Series {
	s := frame.Series{Values: values, Dates: make([]time.Time, len(values))}
	for i := range s.Dates {
		s.Dates[i] = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
	}
	return s
}

func newClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

func TestClassify_NoData(t *testing.T) {
	c := newClassifier(t)

	r := c.Classify(nil)

	if r.Sentiment != core.SentimentNeutral || r.Confidence != 0 {
		t.Errorf("expected NEUTRAL/0, got %s/%f", r.Sentiment, r.Confidence)
	}
	if c.HasData(nil) {
		t.Error("expected no data")
	}
}

func TestClassify_Fear(t *testing.T) {
	vix := append(flat(62, 15), 40)

	r := newClassifier(t).Classify(map[string]frame.Series{"vix": series(vix)})

	if r.Sentiment != core.SentimentVeryBearish {
		t.Errorf("expected VERY_BEARISH, got %s", r.Sentiment)
	}
	if math.Abs(r.Score+0.8) > 1e-9 {
		t.Errorf("expected score -0.8, got %f", r.Score)
	}
	if math.Abs(r.Confidence-0.95) > 1e-9 {
		t.Errorf("expected confidence capped at 0.95, got %f", r.Confidence)
	}
}

func TestClassify_CalmVIXIsNeutral(t *testing.T) {
	r := newClassifier(t).Classify(map[string]frame.Series{"vix": series(flat(30, 18))})

	if r.Sentiment != core.SentimentNeutral {
		t.Errorf("expected NEUTRAL, got %s", r.Sentiment)
	}
	if math.Abs(r.Confidence-0.3) > 1e-9 {
		t.Errorf("expected confidence 0.3, got %f", r.Confidence)
	}
	if len(r.Indicators) != 1 || r.Indicators[0].Label != MoodCalm {
		t.Errorf("expected a single calm indicator, got %+v", r.Indicators)
	}
}

func TestClassify_BullishMomentum(t *testing.T) {
	closes := map[string]frame.Series{
		"sp500":  series(ramp(40, 100, 112)),
		"nasdaq": series(ramp(40, 100, 115)),
		"gold":   series(flat(40, 2000)),
		"vix":    series(flat(40, 14)),
	}

	r := newClassifier(t).Classify(closes)

	// neutral vix 0.5, two bullish 0.6, risk seeking 0.6
	want := (0.6*0.6*2 + 0.4*0.6) / (0.5 + 0.6*3)
	if math.Abs(r.Score-want) > 1e-9 {
		t.Errorf("expected score %f, got %f", want, r.Score)
	}
	if r.Sentiment != core.SentimentVeryBullish {
		t.Errorf("expected VERY_BULLISH, got %s", r.Sentiment)
	}
}

func TestClassify_MomentumNeedsHistory(t *testing.T) {
	r := newClassifier(t).Classify(map[string]frame.Series{"sp500": series(ramp(20, 100, 150))})

	if len(r.Indicators) != 0 {
		t.Errorf("20 closes are not enough for a 20 bar return, got %+v", r.Indicators)
	}
}

func TestClassify_UsesLookbackWindow(t *testing.T) {
	// an old spike outside the lookback must not lift the VIX mean
	vix := append([]float64{500}, flat(63, 20)...)

	r := newClassifier(t).Classify(map[string]frame.Series{"vix": series(vix)})

	if r.Indicators[0].Label != MoodCalm {
		t.Errorf("expected calm VIX within window, got %s", r.Indicators[0].Label)
	}
}

func TestBand(t *testing.T) {
	tests := []struct {
		score    float64
		expected core.Sentiment
	}{
		{0.5, core.SentimentVeryBullish},
		{0.3, core.SentimentBullish},
		{0.2, core.SentimentNeutral},
		{-0.2, core.SentimentBearish},
		{-0.4, core.SentimentVeryBearish},
	}
	for _, tt := range tests {
		if got := band(tt.score); got != tt.expected {
			t.Errorf("band(%f) = %s, want %s", tt.score, got, tt.expected)
		}
	}
}

func TestClassifyBars(t *testing.T) {
	bars := []core.OHLCV{
		{Symbol: "VIX", Close: 10, Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Symbol: "VIX", Close: 30, Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
	}

	r := newClassifier(t).ClassifyBars(bars)

	// mean 20, latest 30 -> not above 1.5x
	if len(r.Indicators) != 1 || r.Indicators[0].Label != MoodCalm {
		t.Errorf("unexpected indicators %+v", r.Indicators)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Thresholds.Lookback = 10
	if err := cfg.Validate(); err == nil {
		t.Error("expected lookback shorter than momentum periods to fail")
	}
}
