package market

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/newthinker/macrolens/internal/core"
	"github.com/newthinker/macrolens/internal/frame"
)

func day(i int) time.Time {
	return time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

func bars(symbol string, n int, price func(i int) float64) []core.OHLCV {
	out := make([]core.OHLCV, n)
	for i := range out {
		out[i] = core.OHLCV{Symbol: symbol, Close: price(i), Time: day(i)}
	}
	return out
}

// latestFrame builds n rows with each column defined only on the last row.
func latestFrame(t *testing.T, n int, latest map[string]float64) *frame.Frame {
	t.Helper()
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = day(i)
	}
	cols := make(map[string][]float64)
	for name, v := range latest {
		col := make([]float64, n)
		for i := range col {
			col[i] = math.NaN()
		}
		col[n-1] = v
		cols[name] = col
	}
	f, err := frame.FromColumns(dates, cols)
	if err != nil {
		t.Fatalf("building frame: %v", err)
	}
	return f
}

func newClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

func TestClassifier_InsufficientData(t *testing.T) {
	c := newClassifier(t)
	f := frame.BuildMarket(bars("sp500", 59, func(i int) float64 { return 100 + float64(i) }), c.Config().FrameOptions())

	r := c.Classify(f)

	if r.Regime != core.MarketInsufficientData || r.Confidence != 0 {
		t.Errorf("expected INSUFFICIENT_DATA/0, got %s/%f", r.Regime, r.Confidence)
	}
}

func TestClassifier_BullMarket(t *testing.T) {
	c := newClassifier(t)
	rising := func(i int) float64 { return 100 + float64(i) }
	input := append(bars("sp500", 80, rising), bars("nasdaq", 80, rising)...)
	input = append(input, bars("vix", 80, func(int) float64 { return 15 })...)

	r := c.Classify(frame.BuildMarket(input, c.Config().FrameOptions()))

	if r.Regime != core.MarketBull {
		t.Fatalf("expected BULL_MARKET, got %s", r.Regime)
	}
	if math.Abs(r.Confidence-1) > 1e-9 {
		t.Errorf("expected confidence 1, got %f", r.Confidence)
	}
	// trend, low volatility (informational), moving averages, breadth
	if r.SignalsCount != 4 {
		t.Errorf("expected 4 signals, got %d: %+v", r.SignalsCount, r.Signals)
	}
}

func TestClassifier_IgnoresTrailingOtherSymbol(t *testing.T) {
	c := newClassifier(t)
	rising := func(i int) float64 { return 100 + float64(i) }
	input := append(bars("sp500", 80, rising), bars("nasdaq", 80, rising)...)
	input = append(input, bars("vix", 80, func(int) float64 { return 15 })...)
	input = append(input, bars("gold", 81, func(int) float64 { return 2000 })...)

	r := c.Classify(frame.BuildMarket(input, c.Config().FrameOptions()))

	if r.Regime != core.MarketBull {
		t.Fatalf("expected BULL_MARKET, got %s", r.Regime)
	}
	if math.Abs(r.Confidence-1) > 1e-9 {
		t.Errorf("expected confidence 1, got %f", r.Confidence)
	}
}

func TestClassifier_OtherSymbolDoesNotPadHistory(t *testing.T) {
	c := newClassifier(t)
	input := append(
		bars("sp500", 30, func(i int) float64 { return 100 + float64(i) }),
		bars("gold", 70, func(int) float64 { return 2000 })...,
	)

	r := c.Classify(frame.BuildMarket(input, c.Config().FrameOptions()))

	if r.Regime != core.MarketInsufficientData || r.Confidence != 0 {
		t.Errorf("expected INSUFFICIENT_DATA/0, got %s/%f", r.Regime, r.Confidence)
	}
}

func TestClassifier_BearMarket(t *testing.T) {
	c := newClassifier(t)
	input := bars("sp500", 80, func(i int) float64 { return 300 - 2*float64(i) })

	r := c.Classify(frame.BuildMarket(input, c.Config().FrameOptions()))

	if r.Regime != core.MarketBear {
		t.Errorf("expected BEAR_MARKET, got %s", r.Regime)
	}
}

func TestClassifier_Rules(t *testing.T) {
	tests := []struct {
		name     string
		latest   map[string]float64
		expected core.MarketRegime
		conf     float64
	}{
		{
			"high volatility beats sideways",
			map[string]float64{"sp500_momentum_60": 0, "vix_close": 35},
			core.MarketHighVolatility, 0.7 / 1.2,
		},
		{
			"elevated vix",
			map[string]float64{"vix_close": 25},
			core.MarketHighVolatility, 1,
		},
		{
			"tech led",
			map[string]float64{"sp500_momentum_60": 2, "nasdaq_momentum_60": 12},
			core.MarketTechLed, 0.6 / 1.1,
		},
		{
			"broad leadership is informational",
			map[string]float64{"sp500_momentum_60": 8, "nasdaq_momentum_60": 1},
			core.MarketSideways, 1,
		},
		{
			"mixed averages are sideways",
			map[string]float64{"sp500_close": 105, "sp500_ma20": 100, "sp500_ma60": 110},
			core.MarketSideways, 1,
		},
		{
			"weak breadth",
			map[string]float64{"sp500_up_days_ratio": 30},
			core.MarketBear, 1,
		},
	}

	c := newClassifier(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := c.Classify(latestFrame(t, 60, tt.latest))
			if r.Regime != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, r.Regime)
			}
			if math.Abs(r.Confidence-tt.conf) > 1e-9 {
				t.Errorf("expected confidence %f, got %f", tt.conf, r.Confidence)
			}
		})
	}
}

func TestClassifier_OnlyInformational(t *testing.T) {
	r := newClassifier(t).Classify(latestFrame(t, 60, map[string]float64{"vix_close": 12}))

	if r.Regime != core.MarketSideways || r.Confidence != 0 {
		t.Errorf("expected SIDEWAYS/0, got %s/%f", r.Regime, r.Confidence)
	}
	if r.SignalsCount != 1 {
		t.Errorf("expected the informational vote to count, got %d", r.SignalsCount)
	}
}

func TestClassifier_MovingAveragesNeedAllValues(t *testing.T) {
	r := newClassifier(t).Classify(latestFrame(t, 60, map[string]float64{
		"sp500_close": 105,
		"sp500_ma20":  100,
	}))

	if r.SignalsCount != 0 {
		t.Errorf("expected no signals, got %+v", r.Signals)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Thresholds.MomentumBear = 20

	if err := cfg.Validate(); !errors.Is(err, core.ErrConfigInvalid) {
		t.Errorf("expected ErrConfigInvalid, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.Thresholds.VIXHigh = math.NaN()
	if _, err := NewClassifier(cfg); err == nil {
		t.Error("expected NaN threshold to be rejected")
	}
}
