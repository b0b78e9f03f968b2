package indicator

import (
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

// All functions return slices of the same length as their input.
// Positions without a complete window are NaN.

// PctChange returns (v[i]/v[i-periods] - 1) * 100.
// Undefined when either operand is NaN or the base is zero.
func PctChange(values []float64, periods int) []float64 {
	out := nanSlice(len(values))
	if periods <= 0 {
		return out
	}
	for i := periods; i < len(values); i++ {
		base, cur := values[i-periods], values[i]
		if math.IsNaN(base) || math.IsNaN(cur) || base == 0 {
			continue
		}
		out[i] = (cur/base - 1) * 100
	}
	return out
}

// Diff returns v[i] - v[i-periods].
func Diff(values []float64, periods int) []float64 {
	out := nanSlice(len(values))
	if periods <= 0 {
		return out
	}
	for i := periods; i < len(values); i++ {
		out[i] = values[i] - values[i-periods]
	}
	return out
}

// SMA calculates the Simple Moving Average.
// The input must not contain NaN.
func SMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return nanSlice(len(prices))
	}
	out := talib.Sma(prices, period)
	for i := 0; i < period-1; i++ {
		out[i] = math.NaN()
	}
	return out
}

// RSI calculates Wilder's Relative Strength Index.
// The input must not contain NaN.
func RSI(prices []float64, period int) []float64 {
	if period < 2 || len(prices) <= period {
		return nanSlice(len(prices))
	}
	out := talib.Rsi(prices, period)
	for i := 0; i < period; i++ {
		out[i] = math.NaN()
	}
	return out
}

// RollingMean is the mean of each full window. A window holding NaN yields NaN.
func RollingMean(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	for i := window - 1; i >= 0 && i < len(values); i++ {
		w := values[i-window+1 : i+1]
		if hasNaN(w) {
			continue
		}
		out[i] = stat.Mean(w, nil)
	}
	return out
}

// RollingStd is the sample standard deviation of each full window.
func RollingStd(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window < 2 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		w := values[i-window+1 : i+1]
		if hasNaN(w) {
			continue
		}
		out[i] = stat.StdDev(w, nil)
	}
	return out
}

// RollingCorr is the Pearson correlation of a and b over each full window.
func RollingCorr(a, b []float64, window int) []float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	out := nanSlice(n)
	if window < 2 {
		return out
	}
	for i := window - 1; i < n; i++ {
		wa, wb := a[i-window+1:i+1], b[i-window+1:i+1]
		if hasNaN(wa) || hasNaN(wb) {
			continue
		}
		out[i] = stat.Correlation(wa, wb, nil)
	}
	return out
}

// StdDev is the sample standard deviation of the defined values.
// Fewer than two defined values yield NaN.
func StdDev(values []float64) float64 {
	d := Defined(values)
	if len(d) < 2 {
		return math.NaN()
	}
	return stat.StdDev(d, nil)
}

// Mean is the mean of the defined values, NaN if there are none.
func Mean(values []float64) float64 {
	d := Defined(values)
	if len(d) == 0 {
		return math.NaN()
	}
	return stat.Mean(d, nil)
}

// Defined returns the non-NaN values in order.
func Defined(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func hasNaN(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
