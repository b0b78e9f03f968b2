package core

import (
	"math"
	"time"
)

// Observation is a single value of a macroeconomic indicator.
type Observation struct {
	Date      time.Time `json:"date"`
	Indicator string    `json:"indicator"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit,omitempty"`
	Frequency string    `json:"frequency,omitempty"` // "M", "Q", "D"
}

// IsValid checks if the observation has required fields and a finite value
func (o Observation) IsValid() bool {
	return o.Indicator != "" && !o.Date.IsZero() && isFinite(o.Value)
}

// OHLCV represents a candlestick/bar
type OHLCV struct {
	Symbol   string    `json:"symbol"`
	Interval string    `json:"interval,omitempty"` // "1d"
	Open     float64   `json:"open,omitempty"`
	High     float64   `json:"high,omitempty"`
	Low      float64   `json:"low,omitempty"`
	Close    float64   `json:"close"`
	Volume   int64     `json:"volume,omitempty"`
	Time     time.Time `json:"time"`
}

// IsValid checks if the bar has required fields
func (b OHLCV) IsValid() bool {
	return b.Symbol != "" && !b.Time.IsZero() && b.Close > 0 && isFinite(b.Close)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// SignalVector is a directional exposure preference per asset class.
// Each signal is -1, 0 or 1.
type SignalVector struct {
	Equity     int     `json:"equity_signal"`
	Bond       int     `json:"bond_signal"`
	Cash       int     `json:"cash_signal"`
	Defensive  int     `json:"defensive_signal"`
	Strength   float64 `json:"signal_strength"`
	Confidence float64 `json:"confidence"`
}
