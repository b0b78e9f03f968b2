package macro

import (
	"math"

	"github.com/newthinker/macrolens/internal/core"
	"github.com/newthinker/macrolens/internal/frame"
	"github.com/newthinker/macrolens/internal/indicator"
	"github.com/newthinker/macrolens/internal/rules"
	"go.uber.org/zap"
)

// RiskFactor is a fired risk rule. Factors carry no label; only their
// weights are averaged.
type RiskFactor = rules.Vote[string]

// RiskResult is the risk level assessed over the lookback window.
type RiskResult struct {
	Level           core.RiskLevel `json:"risk_level"`
	Confidence      float64        `json:"confidence"`
	Score           float64        `json:"risk_score"`
	Factors         []RiskFactor   `json:"risk_factors"`
	LookbackPeriods int            `json:"lookback_periods"`
}

// riskInput is what risk rules see: the trailing window and the full frame.
type riskInput struct {
	window *frame.Frame
	full   *frame.Frame
}

// RiskAssessor maps a trailing window of a frame to a risk level.
type RiskAssessor struct {
	cfg    Config
	rules  []rules.Rule[riskInput, string]
	logger *zap.Logger
}

// NewRiskAssessor creates an assessor with validated configuration.
func NewRiskAssessor(cfg Config, logger ...*zap.Logger) (*RiskAssessor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &RiskAssessor{cfg: cfg, logger: zap.NewNop()}
	if len(logger) > 0 && logger[0] != nil {
		a.logger = logger[0]
	}
	a.rules = riskRules(cfg)
	return a, nil
}

// Assess returns MODERATE with confidence 0 when the frame is shorter than
// the lookback, and LOW with confidence 0.3 when no risk rule fires.
func (a *RiskAssessor) Assess(f *frame.Frame) RiskResult {
	lookback := a.cfg.Thresholds.LookbackPeriods
	if f.Len() < lookback {
		a.logger.Debug("risk lookback not met",
			zap.Int("rows", f.Len()),
			zap.Int("lookback", lookback),
		)
		return RiskResult{Level: core.RiskModerate, LookbackPeriods: lookback}
	}

	factors := rules.Evaluate(a.rules, riskInput{window: f.Tail(lookback), full: f})
	result := RiskResult{
		Level:           core.RiskLow,
		Confidence:      0.3,
		Factors:         factors,
		LookbackPeriods: lookback,
	}
	if len(factors) == 0 {
		return result
	}

	sum, mean := rules.Weights(factors)
	result.Score = sum
	result.Level = riskBand(mean)
	result.Confidence = math.Min(0.95, 0.5+0.1*float64(len(factors)))

	a.logger.Debug("risk assessed",
		zap.String("level", string(result.Level)),
		zap.Float64("score", result.Score),
		zap.Int("factors", len(factors)),
	)
	return result
}

func riskBand(mean float64) core.RiskLevel {
	switch {
	case mean >= 0.8:
		return core.RiskVeryHigh
	case mean >= 0.6:
		return core.RiskHigh
	case mean >= 0.4:
		return core.RiskModerate
	case mean >= 0.2:
		return core.RiskLow
	default:
		return core.RiskVeryLow
	}
}

func riskRules(cfg Config) []rules.Rule[riskInput, string] {
	keys, t := cfg.Indicators, cfg.Thresholds
	factor := func(reason string, w float64) (RiskFactor, bool) {
		return RiskFactor{Reason: reason, Weight: w}, true
	}

	return []rules.Rule[riskInput, string]{
		{
			Name: "rate_volatility",
			Eval: func(in riskInput) (RiskFactor, bool) {
				rates, ok := in.window.Column(keys.BaseRate)
				if !ok {
					return RiskFactor{}, false
				}
				std := indicator.StdDev(rates)
				switch {
				case math.IsNaN(std):
					return RiskFactor{}, false
				case std > t.RateVolatilityHigh:
					return factor("high_volatility", 0.7)
				case std > t.RateVolatilityHigh/2:
					return factor("moderate_volatility", 0.4)
				default:
					return RiskFactor{}, false
				}
			},
		},
		{
			Name: "fx_volatility",
			Eval: func(in riskInput) (RiskFactor, bool) {
				fx, ok := in.window.Column(keys.FX)
				if !ok {
					return RiskFactor{}, false
				}
				// PctChange is already in percent
				std := indicator.StdDev(indicator.PctChange(fx, 1))
				if math.IsNaN(std) || std <= t.FXVolatilityHigh {
					return RiskFactor{}, false
				}
				return factor("fx_volatility", 0.6)
			},
		},
		{
			Name: "fx_trend",
			Eval: func(in riskInput) (RiskFactor, bool) {
				fx, ok := in.window.Column(keys.FX)
				if !ok || len(fx) < 2 {
					return RiskFactor{}, false
				}
				change := indicator.PctChange(fx, len(fx)-1)[len(fx)-1]
				if math.IsNaN(change) || change <= t.FXDepreciation {
					return RiskFactor{}, false
				}
				return factor("currency_weakness", 0.8)
			},
		},
		{
			Name: "inflation_level",
			Eval: func(in riskInput) (RiskFactor, bool) {
				p, ok := in.full.Latest(yoy(keys.ConsumerPrice))
				switch {
				case !ok:
					return RiskFactor{}, false
				case p > t.InflationHigh:
					return factor("high_inflation", 0.9)
				case p > t.InflationTarget*1.5:
					return factor("rising_inflation", 0.5)
				default:
					return RiskFactor{}, false
				}
			},
		},
		{
			Name: "growth_level",
			Eval: func(in riskInput) (RiskFactor, bool) {
				g, ok := in.full.Latest(yoy(keys.GDP))
				switch {
				case !ok:
					return RiskFactor{}, false
				case g < t.GDPContraction:
					return factor("recession_risk", 1.0)
				case g < t.GDPGrowthLow:
					return factor("slow_growth", 0.6)
				default:
					return RiskFactor{}, false
				}
			},
		},
		{
			Name: "rate_shock",
			Eval: func(in riskInput) (RiskFactor, bool) {
				recent := in.full.Tail(t.RateShockPeriods)
				for row := 0; row < recent.Len(); row++ {
					if d, ok := recent.Value(diff(keys.BaseRate), row); ok && d > t.RateChangeSignificant {
						return factor("rate_shock", 0.7)
					}
				}
				return RiskFactor{}, false
			},
		},
	}
}
