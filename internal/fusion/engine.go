// Package fusion combines per-source classifications into one weighted
// global regime and signal.
package fusion

import (
	"fmt"
	"math"
	"sort"

	"github.com/newthinker/macrolens/internal/core"
	"go.uber.org/zap"
)

const weightTolerance = 1e-6

// Config holds fixed source weights and decision thresholds.
type Config struct {
	Weights         map[string]float64 `mapstructure:"weights" json:"weights"`
	TiltThreshold   float64            `mapstructure:"tilt_threshold" json:"tilt_threshold"`
	RiskOnShare     float64            `mapstructure:"risk_on_share" json:"risk_on_share"`
	RiskOffShare    float64            `mapstructure:"risk_off_share" json:"risk_off_share"`
	MixedShare      float64            `mapstructure:"mixed_share" json:"mixed_share"`
	ConfidenceBonus float64            `mapstructure:"confidence_bonus" json:"confidence_bonus"`
	MaxConfidence   float64            `mapstructure:"max_confidence" json:"max_confidence"`
}

// DefaultConfig weights domestic and market 0.4 each and sentiment 0.2.
func DefaultConfig() Config {
	return Config{
		Weights: map[string]float64{
			SourceDomestic:  0.4,
			SourceMarket:    0.4,
			SourceSentiment: 0.2,
		},
		TiltThreshold:   0.3,
		RiskOnShare:     0.6,
		RiskOffShare:    0.6,
		MixedShare:      0.5,
		ConfidenceBonus: 0.1,
		MaxConfidence:   0.95,
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if len(c.Weights) == 0 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("fusion weights cannot be empty"))
	}
	sum := 0.0
	for _, name := range sortedKeys(c.Weights) {
		w := c.Weights[name]
		if math.IsNaN(w) || w < 0 || w > 1 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("weight for %s must be between 0 and 1, got %f", name, w))
		}
		sum += w
	}
	if math.Abs(sum-1) > weightTolerance {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("fusion weights must sum to 1, got %f", sum))
	}

	for name, v := range map[string]float64{
		"tilt_threshold":   c.TiltThreshold,
		"risk_on_share":    c.RiskOnShare,
		"risk_off_share":   c.RiskOffShare,
		"mixed_share":      c.MixedShare,
		"confidence_bonus": c.ConfidenceBonus,
		"max_confidence":   c.MaxConfidence,
	} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("%s must be between 0 and 1, got %f", name, v))
		}
	}
	return nil
}

// Result is the fused decision.
type Result struct {
	GlobalRegime          core.GlobalRegime `json:"global_regime"`
	Signals               core.SignalVector `json:"integrated_signals"`
	Inputs                []Input           `json:"signal_components"`
	Success               map[string]bool   `json:"analysis_success"`
	TotalWeight           float64           `json:"total_weight"`
	WeightedTilt          float64           `json:"weighted_tilt"`
	IntegrationConfidence float64           `json:"integration_confidence"`
	Recommendations       []string          `json:"recommendations"`
}

// Engine fuses source inputs with fixed weights.
type Engine struct {
	cfg    Config
	logger *zap.Logger
}

// NewEngine creates an engine with validated configuration.
func NewEngine(cfg Config, logger ...*zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg, logger: zap.NewNop()}
	if len(logger) > 0 && logger[0] != nil {
		e.logger = logger[0]
	}
	return e, nil
}

// Sources returns the configured source names in lexical order.
func (e *Engine) Sources() []string {
	return sortedKeys(e.cfg.Weights)
}

// Fuse combines the available inputs. Every configured source missing from
// inputs is reported unsuccessful and its weight is dropped, not
// redistributed. Inputs from unknown sources and repeated sources are ignored.
func (e *Engine) Fuse(inputs []Input) Result {
	r := Result{
		GlobalRegime: core.GlobalUncertain,
		Success:      make(map[string]bool, len(e.cfg.Weights)),
	}
	for name := range e.cfg.Weights {
		r.Success[name] = false
	}

	for _, in := range inputs {
		w, known := e.cfg.Weights[in.Source]
		if !known {
			e.logger.Warn("ignoring input from unknown source", zap.String("source", in.Source))
			continue
		}
		if r.Success[in.Source] {
			e.logger.Warn("ignoring repeated source input", zap.String("source", in.Source))
			continue
		}
		in.Weight = w
		r.Inputs = append(r.Inputs, in)
		r.Success[in.Source] = true
		r.TotalWeight += w
	}

	if len(r.Inputs) > 0 && r.TotalWeight > 0 {
		var tilt, strength, confidence float64
		for _, in := range r.Inputs {
			tilt += float64(in.EquitySignal) * in.Strength * in.Weight
			strength += in.Strength * in.Weight
			confidence += in.Confidence * in.Weight
		}
		r.WeightedTilt = tilt / r.TotalWeight
		r.Signals.Strength = strength / r.TotalWeight
		r.Signals.Confidence = confidence / r.TotalWeight

		switch {
		case r.WeightedTilt > e.cfg.TiltThreshold:
			r.Signals.Equity = 1
		case r.WeightedTilt < -e.cfg.TiltThreshold:
			r.Signals.Equity = -1
			r.Signals.Defensive = 1
			r.Signals.Cash = 1
		}
		r.IntegrationConfidence = math.Min(e.cfg.MaxConfidence, r.Signals.Confidence+e.cfg.ConfidenceBonus)
	}

	r.GlobalRegime = e.globalRegime(r.Inputs)
	r.Recommendations = Recommend(r.GlobalRegime, r.Signals)

	e.logger.Info("fusion complete",
		zap.String("global_regime", string(r.GlobalRegime)),
		zap.Int("equity_signal", r.Signals.Equity),
		zap.Float64("total_weight", r.TotalWeight),
		zap.Float64("integration_confidence", r.IntegrationConfidence),
	)
	return r
}

// globalRegime counts buckets per available source, not per weight.
func (e *Engine) globalRegime(inputs []Input) core.GlobalRegime {
	if len(inputs) == 0 {
		return core.GlobalUncertain
	}
	counts := make(map[core.Bucket]int, 3)
	for _, in := range inputs {
		counts[in.Bucket]++
	}
	n := float64(len(inputs))
	switch {
	case float64(counts[core.BucketRiskOn]) >= n*e.cfg.RiskOnShare:
		return core.GlobalRiskOn
	case float64(counts[core.BucketRiskOff]) >= n*e.cfg.RiskOffShare:
		return core.GlobalRiskOff
	case float64(counts[core.BucketMixed]) >= n*e.cfg.MixedShare:
		return core.GlobalMixedSignals
	default:
		return core.GlobalTransition
	}
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
