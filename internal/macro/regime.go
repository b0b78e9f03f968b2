package macro

import (
	"math"

	"github.com/newthinker/macrolens/internal/core"
	"github.com/newthinker/macrolens/internal/frame"
	"github.com/newthinker/macrolens/internal/rules"
	"go.uber.org/zap"
)

// RegimeVote is a fired regime rule.
type RegimeVote = rules.Vote[core.EconomicRegime]

// RegimeResult is the economic regime read from the latest frame row.
type RegimeResult struct {
	Regime       core.EconomicRegime             `json:"regime"`
	Confidence   float64                         `json:"confidence"`
	Scores       map[core.EconomicRegime]float64 `json:"scores"`
	SignalsCount int                             `json:"signals_count"`
	Signals      []RegimeVote                    `json:"signals"`
}

// RegimeClassifier maps the latest row of a frame to an economic regime.
type RegimeClassifier struct {
	cfg    Config
	rules  []rules.Rule[*frame.Frame, core.EconomicRegime]
	logger *zap.Logger
}

// NewRegimeClassifier creates a classifier with validated configuration.
func NewRegimeClassifier(cfg Config, logger ...*zap.Logger) (*RegimeClassifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &RegimeClassifier{cfg: cfg, logger: zap.NewNop()}
	if len(logger) > 0 && logger[0] != nil {
		c.logger = logger[0]
	}
	c.rules = regimeRules(cfg)
	return c, nil
}

// Classify scores the latest row. Missing or undefined columns skip their
// rule; with no rule fired the result is NEUTRAL with confidence 0.
func (c *RegimeClassifier) Classify(f *frame.Frame) RegimeResult {
	votes := rules.Evaluate(c.rules, f)
	tally := rules.Aggregate(votes, core.EconomicRegimes, core.RegimeNeutral)

	c.logger.Debug("regime classified",
		zap.String("regime", string(tally.Winner)),
		zap.Float64("confidence", tally.Confidence),
		zap.Int("signals", tally.Fired),
	)

	return RegimeResult{
		Regime:       tally.Winner,
		Confidence:   tally.Confidence,
		Scores:       tally.Scores,
		SignalsCount: tally.Fired,
		Signals:      votes,
	}
}

func regimeRules(cfg Config) []rules.Rule[*frame.Frame, core.EconomicRegime] {
	keys, t := cfg.Indicators, cfg.Thresholds
	vote := func(reason string, regime core.EconomicRegime, w float64) (RegimeVote, bool) {
		return RegimeVote{Reason: reason, Label: regime, Weight: w}, true
	}

	return []rules.Rule[*frame.Frame, core.EconomicRegime]{
		{
			Name: "gdp_growth",
			Eval: func(f *frame.Frame) (RegimeVote, bool) {
				g, ok := f.Latest(yoy(keys.GDP))
				switch {
				case !ok:
					return RegimeVote{}, false
				case g < t.GDPContraction:
					return vote("contraction", core.RegimeRecession, 0.8)
				case g < t.GDPGrowthLow:
					return vote("low_growth", core.RegimeRecession, 0.4)
				default:
					return vote("growth", core.RegimeGrowth, 0.6)
				}
			},
		},
		{
			Name: "inflation",
			Eval: func(f *frame.Frame) (RegimeVote, bool) {
				p, ok := f.Latest(yoy(keys.ConsumerPrice))
				switch {
				case !ok:
					return RegimeVote{}, false
				case p > t.InflationHigh:
					return vote("high_inflation", core.RegimeStagflation, 0.7)
				case p > t.InflationTarget:
					return vote("above_target", core.RegimeNeutral, 0.3)
				default:
					return vote("contained", core.RegimeRecovery, 0.4)
				}
			},
		},
		{
			Name: "policy_rate",
			Eval: func(f *frame.Frame) (RegimeVote, bool) {
				d, ok := f.Latest(diff(keys.BaseRate))
				if !ok || math.Abs(d) <= t.RateChangeSignificant {
					return RegimeVote{}, false
				}
				if d > 0 {
					return vote("tightening", core.RegimeNeutral, 0.5)
				}
				return vote("easing", core.RegimeRecovery, 0.6)
			},
		},
		{
			Name: "industrial_production",
			Eval: func(f *frame.Frame) (RegimeVote, bool) {
				ip, ok := f.Latest(yoy(keys.IndustrialProduction))
				switch {
				case !ok:
					return RegimeVote{}, false
				case ip < t.IndustrialDecline:
					return vote("decline", core.RegimeRecession, 0.6)
				case ip > t.IndustrialExpansion:
					return vote("expansion", core.RegimeGrowth, 0.7)
				default:
					return RegimeVote{}, false
				}
			},
		},
	}
}
