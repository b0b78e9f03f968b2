// Package sentiment scores market mood from volatility, momentum and
// safe-haven demand.
package sentiment

import (
	"fmt"
	"math"
	"strings"

	"github.com/newthinker/macrolens/internal/core"
	"github.com/newthinker/macrolens/internal/frame"
	"github.com/newthinker/macrolens/internal/indicator"
	"github.com/newthinker/macrolens/internal/rules"
	"go.uber.org/zap"
)

// Mood is the reading of a single sentiment indicator.
type Mood string

const (
	MoodFearful     Mood = "fearful"
	MoodGreedy      Mood = "greedy"
	MoodCalm        Mood = "neutral"
	MoodBullish     Mood = "bullish"
	MoodBearish     Mood = "bearish"
	MoodRiskAverse  Mood = "risk_averse"
	MoodRiskSeeking Mood = "risk_seeking"
)

// Score is the signed contribution of a mood to the aggregate score.
func (m Mood) Score() float64 {
	switch m {
	case MoodFearful:
		return -0.8
	case MoodBearish:
		return -0.6
	case MoodRiskAverse:
		return -0.4
	case MoodRiskSeeking:
		return 0.4
	case MoodBullish:
		return 0.6
	case MoodGreedy:
		return 0.8
	default:
		return 0
	}
}

// Vote is a fired sentiment indicator.
type Vote = rules.Vote[Mood]

// Symbols names the series the indicators read.
type Symbols struct {
	Volatility string `mapstructure:"volatility" json:"volatility"`
	Index      string `mapstructure:"index" json:"index"`
	Tech       string `mapstructure:"tech" json:"tech"`
	SafeHaven  string `mapstructure:"safe_haven" json:"safe_haven"`
}

// All returns the configured symbols, lower-cased.
func (s Symbols) All() []string {
	return []string{
		strings.ToLower(s.Volatility),
		strings.ToLower(s.Index),
		strings.ToLower(s.Tech),
		strings.ToLower(s.SafeHaven),
	}
}

// Thresholds for the sentiment indicators. Returns are in percent.
type Thresholds struct {
	Lookback        int     `mapstructure:"lookback" json:"lookback"`
	MomentumPeriods int     `mapstructure:"momentum_periods" json:"momentum_periods"`
	FearRatio       float64 `mapstructure:"fear_ratio" json:"fear_ratio"`
	GreedRatio      float64 `mapstructure:"greed_ratio" json:"greed_ratio"`
	MomentumBand    float64 `mapstructure:"momentum_band" json:"momentum_band"`
	SafeHavenGap    float64 `mapstructure:"safe_haven_gap" json:"safe_haven_gap"`
}

// Config configures the sentiment classifier.
type Config struct {
	Symbols    Symbols    `mapstructure:"symbols" json:"symbols"`
	Thresholds Thresholds `mapstructure:"thresholds" json:"thresholds"`
}

// DefaultConfig looks at roughly three months of daily closes.
func DefaultConfig() Config {
	return Config{
		Symbols: Symbols{Volatility: "vix", Index: "sp500", Tech: "nasdaq", SafeHaven: "gold"},
		Thresholds: Thresholds{
			Lookback:        63,
			MomentumPeriods: 20,
			FearRatio:       1.5,
			GreedRatio:      0.7,
			MomentumBand:    5,
			SafeHavenGap:    3,
		},
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	for _, s := range c.Symbols.All() {
		if s == "" {
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("sentiment symbols cannot be empty"))
		}
	}
	t := c.Thresholds
	if t.MomentumPeriods < 2 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("momentum_periods must be at least 2, got %d", t.MomentumPeriods))
	}
	if t.Lookback <= t.MomentumPeriods {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("lookback (%d) must exceed momentum_periods (%d)", t.Lookback, t.MomentumPeriods))
	}
	for _, v := range []float64{t.FearRatio, t.GreedRatio, t.MomentumBand, t.SafeHavenGap} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("sentiment thresholds must be finite and non-negative"))
		}
	}
	if t.GreedRatio > t.FearRatio {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("greed_ratio (%f) must not exceed fear_ratio (%f)", t.GreedRatio, t.FearRatio))
	}
	return nil
}

// Result is the aggregate sentiment.
type Result struct {
	Sentiment  core.Sentiment `json:"sentiment"`
	Confidence float64        `json:"confidence"`
	Score      float64        `json:"sentiment_score"`
	Indicators []Vote         `json:"indicators"`
}

// Classifier scores sentiment from close series keyed by lower-case symbol.
type Classifier struct {
	cfg    Config
	rules  []rules.Rule[map[string][]float64, Mood]
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
	c.rules = sentimentRules(cfg)
	return c, nil
}

// HasData reports whether any configured symbol has at least one close.
func (c *Classifier) HasData(closes map[string]frame.Series) bool {
	for _, s := range c.cfg.Symbols.All() {
		if closes[s].Len() > 0 {
			return true
		}
	}
	return false
}

// ClassifyBars groups bars by symbol and classifies them.
func (c *Classifier) ClassifyBars(bars []core.OHLCV) Result {
	return c.Classify(frame.Closes(bars))
}

// Classify scores the last Lookback closes of each configured symbol.
// With no indicator available the result is NEUTRAL with confidence 0.
func (c *Classifier) Classify(closes map[string]frame.Series) Result {
	window := make(map[string][]float64, len(closes))
	for _, s := range c.cfg.Symbols.All() {
		values := closes[s].Values
		if n := len(values); n > c.cfg.Thresholds.Lookback {
			values = values[n-c.cfg.Thresholds.Lookback:]
		}
		window[s] = values
	}

	votes := rules.Evaluate(c.rules, window)
	if len(votes) == 0 {
		return Result{Sentiment: core.SentimentNeutral}
	}

	var total, weight float64
	for _, v := range votes {
		total += v.Label.Score() * v.Weight
		weight += v.Weight
	}
	score := 0.0
	if weight > 0 {
		score = total / weight
	}

	r := Result{
		Sentiment:  band(score),
		Confidence: math.Min(0.95, math.Abs(score)+0.3),
		Score:      score,
		Indicators: votes,
	}
	c.logger.Debug("sentiment classified",
		zap.String("sentiment", string(r.Sentiment)),
		zap.Float64("score", score),
		zap.Int("indicators", len(votes)),
	)
	return r
}

func band(score float64) core.Sentiment {
	switch {
	case score > 0.4:
		return core.SentimentVeryBullish
	case score > 0.2:
		return core.SentimentBullish
	case score > -0.2:
		return core.SentimentNeutral
	case score > -0.4:
		return core.SentimentBearish
	default:
		return core.SentimentVeryBearish
	}
}

// trailingReturn is the percent change between the last close and the close
// periods-1 bars earlier. It needs more than periods closes.
func trailingReturn(values []float64, periods int) (float64, bool) {
	n := len(values)
	if n <= periods {
		return 0, false
	}
	base := values[n-periods]
	if base == 0 {
		return 0, false
	}
	return (values[n-1]/base - 1) * 100, true
}

func sentimentRules(cfg Config) []rules.Rule[map[string][]float64, Mood] {
	t := cfg.Thresholds
	vix := strings.ToLower(cfg.Symbols.Volatility)
	index := strings.ToLower(cfg.Symbols.Index)
	tech := strings.ToLower(cfg.Symbols.Tech)
	haven := strings.ToLower(cfg.Symbols.SafeHaven)

	vote := func(m Mood, w float64) (Vote, bool) {
		return Vote{Reason: string(m), Label: m, Weight: w}, true
	}
	momentum := func(symbol string) func(map[string][]float64) (Vote, bool) {
		return func(in map[string][]float64) (Vote, bool) {
			r, ok := trailingReturn(in[symbol], t.MomentumPeriods)
			switch {
			case !ok:
				return Vote{}, false
			case r > t.MomentumBand:
				return vote(MoodBullish, 0.6)
			case r < -t.MomentumBand:
				return vote(MoodBearish, 0.6)
			default:
				return Vote{}, false
			}
		}
	}

	return []rules.Rule[map[string][]float64, Mood]{
		{
			Name: "fear_gauge",
			Eval: func(in map[string][]float64) (Vote, bool) {
				closes := in[vix]
				if len(closes) == 0 {
					return Vote{}, false
				}
				latest, avg := closes[len(closes)-1], indicator.Mean(closes)
				switch {
				case math.IsNaN(avg) || avg <= 0:
					return Vote{}, false
				case latest > avg*t.FearRatio:
					return vote(MoodFearful, 0.8)
				case latest < avg*t.GreedRatio:
					return vote(MoodGreedy, 0.7)
				default:
					return vote(MoodCalm, 0.5)
				}
			},
		},
		{Name: index + "_momentum", Eval: momentum(index)},
		{Name: tech + "_momentum", Eval: momentum(tech)},
		{
			Name: "safe_haven",
			Eval: func(in map[string][]float64) (Vote, bool) {
				h, okH := trailingReturn(in[haven], t.MomentumPeriods)
				e, okE := trailingReturn(in[index], t.MomentumPeriods)
				switch {
				case !okH || !okE:
					return Vote{}, false
				case h > e+t.SafeHavenGap:
					return vote(MoodRiskAverse, 0.6)
				case e > h+t.SafeHavenGap:
					return vote(MoodRiskSeeking, 0.6)
				default:
					return Vote{}, false
				}
			},
		},
	}
}
