// Package market classifies an equity market from its derived price columns.
package market

import (
	"fmt"
	"math"

	"github.com/newthinker/macrolens/internal/core"
	"github.com/newthinker/macrolens/internal/frame"
	"github.com/newthinker/macrolens/internal/rules"
	"go.uber.org/zap"
)

// Vote is a fired market rule.
type Vote = rules.Vote[core.MarketRegime]

// Symbols names the market series the rules read.
type Symbols struct {
	Index      string `mapstructure:"index" json:"index"`
	Tech       string `mapstructure:"tech" json:"tech"`
	Volatility string `mapstructure:"volatility" json:"volatility"`
}

// Thresholds for the market rules. Momentum and ratios are in percent.
type Thresholds struct {
	MinObservations int     `mapstructure:"min_observations" json:"min_observations"`
	MomentumBull    float64 `mapstructure:"momentum_bull" json:"momentum_bull"`
	MomentumBear    float64 `mapstructure:"momentum_bear" json:"momentum_bear"`
	VIXHigh         float64 `mapstructure:"vix_high" json:"vix_high"`
	VIXElevated     float64 `mapstructure:"vix_elevated" json:"vix_elevated"`
	LeadershipGap   float64 `mapstructure:"leadership_gap" json:"leadership_gap"`
	UpDaysStrong    float64 `mapstructure:"up_days_strong" json:"up_days_strong"`
	UpDaysWeak      float64 `mapstructure:"up_days_weak" json:"up_days_weak"`
}

// Config configures the market classifier.
type Config struct {
	Symbols    Symbols    `mapstructure:"symbols" json:"symbols"`
	Thresholds Thresholds `mapstructure:"thresholds" json:"thresholds"`
}

// DefaultConfig reads the S&P 500, the NASDAQ composite and the VIX.
func DefaultConfig() Config {
	return Config{
		Symbols: Symbols{Index: "sp500", Tech: "nasdaq", Volatility: "vix"},
		Thresholds: Thresholds{
			MinObservations: 60,
			MomentumBull:    10,
			MomentumBear:    -10,
			VIXHigh:         30,
			VIXElevated:     20,
			LeadershipGap:   5,
			UpDaysStrong:    60,
			UpDaysWeak:      40,
		},
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.Symbols.Index == "" || c.Symbols.Tech == "" || c.Symbols.Volatility == "" {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("market symbols cannot be empty"))
	}
	t := c.Thresholds
	for name, v := range map[string]float64{
		"momentum_bull":  t.MomentumBull,
		"momentum_bear":  t.MomentumBear,
		"vix_high":       t.VIXHigh,
		"vix_elevated":   t.VIXElevated,
		"leadership_gap": t.LeadershipGap,
		"up_days_strong": t.UpDaysStrong,
		"up_days_weak":   t.UpDaysWeak,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("%s must be finite", name))
		}
	}
	if t.MinObservations < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("min_observations must be positive, got %d", t.MinObservations))
	}
	if t.MomentumBear > t.MomentumBull {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("momentum_bear (%f) must not exceed momentum_bull (%f)", t.MomentumBear, t.MomentumBull))
	}
	if t.VIXElevated < 0 || t.VIXElevated > t.VIXHigh {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("vix_elevated must be in [0, vix_high], got %f", t.VIXElevated))
	}
	if t.LeadershipGap < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("leadership_gap cannot be negative, got %f", t.LeadershipGap))
	}
	if t.UpDaysWeak < 0 || t.UpDaysWeak > t.UpDaysStrong || t.UpDaysStrong > 100 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("up days thresholds must satisfy 0 <= weak <= strong <= 100"))
	}
	return nil
}

// FrameOptions returns the options for building a market frame this
// classifier can read. Only the configured symbols are joined.
func (c Config) FrameOptions() frame.MarketOptions {
	return frame.MarketOptions{
		Symbols:     []string{c.Symbols.Index, c.Symbols.Tech, c.Symbols.Volatility},
		IndexSymbol: c.Symbols.Index,
		TechSymbol:  c.Symbols.Tech,
	}
}

// Result is the market regime read from the latest frame row.
type Result struct {
	Regime       core.MarketRegime             `json:"regime"`
	Confidence   float64                       `json:"confidence"`
	Scores       map[core.MarketRegime]float64 `json:"regime_scores,omitempty"`
	SignalsCount int                           `json:"signals_count"`
	Signals      []Vote                        `json:"signals,omitempty"`
}

// Classifier maps a market frame to a market regime.
type Classifier struct {
	cfg    Config
	rules  []rules.Rule[*frame.Frame, core.MarketRegime]
	logger *zap.Logger
}

// NewClassifier creates a classifier with validated configuration.
func NewClassifier(cfg Config, logger ...*zap.Logger) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Classifier{cfg: cfg, logger: zap.NewNop()}
	if len(logger) > 0 && logger[0] != nil {
		c.logger = logger[0]
	}
	c.rules = marketRules(cfg)
	return c, nil
}

// Config returns the classifier configuration.
func (c *Classifier) Config() Config { return c.cfg }

// Classify scores the latest row. Frames shorter than MinObservations yield
// INSUFFICIENT_DATA with confidence 0. Without scored weight the result is
// SIDEWAYS with confidence 0.
func (c *Classifier) Classify(f *frame.Frame) Result {
	if f.Len() < c.cfg.Thresholds.MinObservations {
		c.logger.Debug("not enough market history",
			zap.Int("rows", f.Len()),
			zap.Int("required", c.cfg.Thresholds.MinObservations),
		)
		return Result{Regime: core.MarketInsufficientData}
	}

	votes := rules.Evaluate(c.rules, f)
	tally := rules.Aggregate(votes, core.MarketRegimes, core.MarketSideways)

	c.logger.Debug("market classified",
		zap.String("regime", string(tally.Winner)),
		zap.Float64("confidence", tally.Confidence),
	)

	return Result{
		Regime:       tally.Winner,
		Confidence:   tally.Confidence,
		Scores:       tally.Scores,
		SignalsCount: tally.Fired,
		Signals:      votes,
	}
}

func marketRules(cfg Config) []rules.Rule[*frame.Frame, core.MarketRegime] {
	sym, t := cfg.Symbols, cfg.Thresholds
	vote := func(reason string, regime core.MarketRegime, w float64) (Vote, bool) {
		return Vote{Reason: reason, Label: regime, Weight: w}, true
	}
	info := func(reason string, w float64) (Vote, bool) {
		return Vote{Reason: reason, Weight: w, Informational: true}, true
	}

	return []rules.Rule[*frame.Frame, core.MarketRegime]{
		{
			Name: "index_trend",
			Eval: func(f *frame.Frame) (Vote, bool) {
				m, ok := f.Latest(frame.Col(sym.Index, frame.FieldMomentum60))
				switch {
				case !ok:
					return Vote{}, false
				case m > t.MomentumBull:
					return vote("bull_market", core.MarketBull, 0.8)
				case m < t.MomentumBear:
					return vote("bear_market", core.MarketBear, 0.8)
				default:
					return vote("sideways", core.MarketSideways, 0.5)
				}
			},
		},
		{
			Name: "volatility_index",
			Eval: func(f *frame.Frame) (Vote, bool) {
				v, ok := f.Latest(frame.Col(sym.Volatility, frame.FieldClose))
				switch {
				case !ok:
					return Vote{}, false
				case v > t.VIXHigh:
					return vote("high_volatility", core.MarketHighVolatility, 0.7)
				case v > t.VIXElevated:
					return vote("medium_volatility", core.MarketHighVolatility, 0.5)
				default:
					return info("low_volatility", 0.6)
				}
			},
		},
		{
			Name: "leadership",
			Eval: func(f *frame.Frame) (Vote, bool) {
				tech, okT := f.Latest(frame.Col(sym.Tech, frame.FieldMomentum60))
				index, okI := f.Latest(frame.Col(sym.Index, frame.FieldMomentum60))
				switch {
				case !okT || !okI:
					return Vote{}, false
				case tech > index+t.LeadershipGap:
					return vote("tech_leadership", core.MarketTechLed, 0.6)
				case index > tech+t.LeadershipGap:
					return info("broad_market_leadership", 0.6)
				default:
					return Vote{}, false
				}
			},
		},
		{
			Name: "moving_averages",
			Eval: func(f *frame.Frame) (Vote, bool) {
				price, ok1 := f.Latest(frame.Col(sym.Index, frame.FieldClose))
				ma20, ok2 := f.Latest(frame.Col(sym.Index, frame.FieldMA20))
				ma60, ok3 := f.Latest(frame.Col(sym.Index, frame.FieldMA60))
				switch {
				case !ok1 || !ok2 || !ok3:
					return Vote{}, false
				case price > ma20 && ma20 > ma60:
					return vote("uptrend", core.MarketBull, 0.7)
				case price < ma20 && ma20 < ma60:
					return vote("downtrend", core.MarketBear, 0.7)
				default:
					return vote("sideways", core.MarketSideways, 0.4)
				}
			},
		},
		{
			Name: "breadth",
			Eval: func(f *frame.Frame) (Vote, bool) {
				r, ok := f.Latest(frame.Col(sym.Index, frame.FieldUpDaysRatio))
				switch {
				case !ok:
					return Vote{}, false
				case r > t.UpDaysStrong:
					return vote("strong_market", core.MarketBull, 0.6)
				case r < t.UpDaysWeak:
					return vote("weak_market", core.MarketBear, 0.6)
				default:
					return Vote{}, false
				}
			},
		},
	}
}
