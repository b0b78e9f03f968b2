// Package macro classifies a domestic economy from its indicator history
// and turns the classification into an asset-class signal.
package macro

import (
	"fmt"
	"math"

	"github.com/newthinker/macrolens/internal/core"
	"github.com/newthinker/macrolens/internal/frame"
)

// Indicators names the raw indicator keys the rules read.
type Indicators struct {
	GDP                  string `mapstructure:"gdp" json:"gdp"`
	ConsumerPrice        string `mapstructure:"consumer_price" json:"consumer_price"`
	BaseRate             string `mapstructure:"base_rate" json:"base_rate"`
	IndustrialProduction string `mapstructure:"industrial_production" json:"industrial_production"`
	FX                   string `mapstructure:"fx" json:"fx"`
}

// Keys returns the configured indicator keys in a fixed order.
func (i Indicators) Keys() []string {
	return []string{i.BaseRate, i.FX, i.ConsumerPrice, i.GDP, i.IndustrialProduction}
}

// Thresholds are the numeric cut-offs used by the regime and risk rules.
// Percent values are in percentage points.
type Thresholds struct {
	GDPContraction        float64 `mapstructure:"gdp_contraction" json:"gdp_contraction"`
	GDPGrowthLow          float64 `mapstructure:"gdp_growth_low" json:"gdp_growth_low"`
	InflationTarget       float64 `mapstructure:"inflation_target" json:"inflation_target"`
	InflationHigh         float64 `mapstructure:"inflation_high" json:"inflation_high"`
	RateChangeSignificant float64 `mapstructure:"rate_change_significant" json:"rate_change_significant"`
	IndustrialDecline     float64 `mapstructure:"industrial_decline" json:"industrial_decline"`
	IndustrialExpansion   float64 `mapstructure:"industrial_expansion" json:"industrial_expansion"`
	RateVolatilityHigh    float64 `mapstructure:"rate_volatility_high" json:"rate_volatility_high"`
	FXVolatilityHigh      float64 `mapstructure:"fx_volatility_high" json:"fx_volatility_high"`
	FXDepreciation        float64 `mapstructure:"fx_depreciation" json:"fx_depreciation"`
	LookbackPeriods       int     `mapstructure:"lookback_periods" json:"lookback_periods"`
	RateShockPeriods      int     `mapstructure:"rate_shock_periods" json:"rate_shock_periods"`
}

// Config configures the regime classifier, the risk assessor and the analyzer.
type Config struct {
	Indicators Indicators `mapstructure:"indicators" json:"indicators"`
	Thresholds Thresholds `mapstructure:"thresholds" json:"thresholds"`
}

// DefaultConfig returns the standard indicator keys and thresholds.
func DefaultConfig() Config {
	return Config{
		Indicators: Indicators{
			GDP:                  "gdp",
			ConsumerPrice:        "consumer_price",
			BaseRate:             "base_rate",
			IndustrialProduction: "industrial_production",
			FX:                   "usd_krw",
		},
		Thresholds: Thresholds{
			GDPContraction:        0.0,
			GDPGrowthLow:          1.0,
			InflationTarget:       2.0,
			InflationHigh:         4.0,
			RateChangeSignificant: 1.0,
			IndustrialDecline:     -2.0,
			IndustrialExpansion:   3.0,
			RateVolatilityHigh:    0.5,
			FXVolatilityHigh:      5.0,
			FXDepreciation:        10.0,
			LookbackPeriods:       6,
			RateShockPeriods:      3,
		},
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	keys := []struct{ name, key string }{
		{"gdp", c.Indicators.GDP},
		{"consumer_price", c.Indicators.ConsumerPrice},
		{"base_rate", c.Indicators.BaseRate},
		{"industrial_production", c.Indicators.IndustrialProduction},
		{"fx", c.Indicators.FX},
	}
	for _, k := range keys {
		if k.key == "" {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("indicator key %s cannot be empty", k.name))
		}
	}

	t := c.Thresholds
	values := []struct {
		name        string
		value       float64
		nonNegative bool
	}{
		{"gdp_contraction", t.GDPContraction, false},
		{"gdp_growth_low", t.GDPGrowthLow, false},
		{"inflation_target", t.InflationTarget, true},
		{"inflation_high", t.InflationHigh, true},
		{"rate_change_significant", t.RateChangeSignificant, true},
		{"industrial_decline", t.IndustrialDecline, false},
		{"industrial_expansion", t.IndustrialExpansion, false},
		{"rate_volatility_high", t.RateVolatilityHigh, true},
		{"fx_volatility_high", t.FXVolatilityHigh, true},
		{"fx_depreciation", t.FXDepreciation, true},
	}
	for _, v := range values {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("%s must be finite, got %f", v.name, v.value))
		}
		if v.nonNegative && v.value < 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("%s cannot be negative, got %f", v.name, v.value))
		}
	}

	if t.GDPGrowthLow < t.GDPContraction {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("gdp_growth_low (%f) must not be below gdp_contraction (%f)", t.GDPGrowthLow, t.GDPContraction))
	}
	if t.InflationHigh < t.InflationTarget {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("inflation_high (%f) must not be below inflation_target (%f)", t.InflationHigh, t.InflationTarget))
	}
	if t.IndustrialDecline > t.IndustrialExpansion {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("industrial_decline (%f) must not exceed industrial_expansion (%f)", t.IndustrialDecline, t.IndustrialExpansion))
	}
	if t.LookbackPeriods < 2 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("lookback_periods must be at least 2, got %d", t.LookbackPeriods))
	}
	if t.RateShockPeriods < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("rate_shock_periods must be at least 1, got %d", t.RateShockPeriods))
	}
	return nil
}

func yoy(key string) string  { return key + frame.SuffixYoY }
func diff(key string) string { return key + frame.SuffixDiff }
