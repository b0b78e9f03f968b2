package fusion

import "github.com/newthinker/macrolens/internal/core"

// Source names.
const (
	SourceDomestic  = "domestic"
	SourceMarket    = "market"
	SourceSentiment = "sentiment"
)

// Input is one source's contribution to fusion. Weight is filled in by the
// engine from its configuration.
type Input struct {
	Source       string      `json:"source"`
	Label        string      `json:"label"`
	Bucket       core.Bucket `json:"bucket"`
	EquitySignal int         `json:"equity_signal"`
	Strength     float64     `json:"strength"`
	Confidence   float64     `json:"confidence"`
	Weight       float64     `json:"weight"`
}

// FromDomestic passes the domestic signal through unchanged.
func FromDomestic(regime core.EconomicRegime, signal core.SignalVector) Input {
	bucket := core.BucketMixed
	switch regime {
	case core.RegimeGrowth, core.RegimeRecovery:
		bucket = core.BucketRiskOn
	case core.RegimeRecession, core.RegimeStagflation:
		bucket = core.BucketRiskOff
	}
	return Input{
		Source:       SourceDomestic,
		Label:        string(regime),
		Bucket:       bucket,
		EquitySignal: signal.Equity,
		Strength:     signal.Strength,
		Confidence:   signal.Confidence,
	}
}

// FromMarket translates a market regime into a fixed equity tilt and
// strength. The classifier confidence is carried separately.
func FromMarket(regime core.MarketRegime, confidence float64) Input {
	in := Input{
		Source:     SourceMarket,
		Label:      string(regime),
		Bucket:     core.BucketMixed,
		Strength:   0.3,
		Confidence: confidence,
	}
	switch regime {
	case core.MarketBull:
		in.EquitySignal, in.Strength = 1, 0.7
	case core.MarketBear:
		in.EquitySignal, in.Strength = -1, 0.7
	case core.MarketHighVolatility:
		in.EquitySignal, in.Strength = -1, 0.5
	}
	switch regime {
	case core.MarketBull, core.MarketTechLed:
		in.Bucket = core.BucketRiskOn
	case core.MarketBear, core.MarketHighVolatility:
		in.Bucket = core.BucketRiskOff
	}
	return in
}

// FromSentiment translates an aggregate sentiment into a fixed equity tilt.
func FromSentiment(s core.Sentiment, confidence float64) Input {
	in := Input{
		Source:     SourceSentiment,
		Label:      string(s),
		Bucket:     core.BucketMixed,
		Strength:   0.3,
		Confidence: confidence,
	}
	switch {
	case s.IsBullish():
		in.EquitySignal, in.Strength, in.Bucket = 1, 0.6, core.BucketRiskOn
	case s.IsBearish():
		in.EquitySignal, in.Strength, in.Bucket = -1, 0.6, core.BucketRiskOff
	}
	return in
}
