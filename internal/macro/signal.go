package macro

import "github.com/newthinker/macrolens/internal/core"

// ElevatedRiskBoost multiplies signal strength under HIGH or VERY_HIGH risk.
// The product is not capped, so strength above 1 marks an urgent signal.
const ElevatedRiskBoost = 1.2

var baseSignals = map[core.EconomicRegime]core.SignalVector{
	core.RegimeGrowth:      {Equity: 1, Bond: -1, Strength: 0.7},
	core.RegimeRecovery:    {Equity: 1, Strength: 0.6},
	core.RegimeRecession:   {Equity: -1, Bond: 1, Cash: 1, Strength: 0.8},
	core.RegimeStagflation: {Equity: -1, Bond: -1, Defensive: 1, Strength: 0.6},
	core.RegimeNeutral:     {Strength: 0.3},
}

// GenerateSignal derives the asset-class signal from a regime and a risk
// assessment. It has no side effects.
func GenerateSignal(regime RegimeResult, risk RiskResult) core.SignalVector {
	s, ok := baseSignals[regime.Regime]
	if !ok {
		s = baseSignals[core.RegimeNeutral]
	}

	switch {
	case risk.Level.IsElevated():
		s.Equity = min(0, s.Equity)
		s.Cash = 1
		s.Defensive = 1
		s.Strength *= ElevatedRiskBoost
	case risk.Level == core.RiskLow:
		// low risk only lifts a bearish equity call to neutral
		if s.Equity <= 0 {
			s.Equity = 0
		}
	}

	s.Confidence = (regime.Confidence + risk.Confidence) / 2
	return s
}

var regimeAdvice = map[core.EconomicRegime][]string{
	core.RegimeGrowth: {
		"Growth: consider overweighting growth and technology equities",
		"Rising rate pressure: be cautious with long-duration bonds",
	},
	core.RegimeRecovery: {
		"Recovery: opportunities in cyclicals and small caps",
		"Consider real estate and commodity-linked assets",
	},
	core.RegimeRecession: {
		"Recession: prefer defensive and high-dividend equities",
		"Increase government bond and cash allocation",
	},
	core.RegimeStagflation: {
		"Stagflation: consider inflation-hedging assets",
		"Review commodities, real estate and inflation-linked bonds",
	},
}

// Recommend lists human-readable advice for a domestic analysis: regime
// advice first, then risk advice, then advice for defensive and cash signals.
func Recommend(regime core.EconomicRegime, risk core.RiskLevel, signal core.SignalVector) []string {
	recs := append([]string(nil), regimeAdvice[regime]...)

	switch {
	case risk.IsElevated():
		recs = append(recs,
			"High risk: strengthen defensive portfolio positioning",
			"Review hedging strategies for rising volatility",
		)
	case risk == core.RiskLow:
		recs = append(recs,
			"Low risk: consider increasing risk-asset exposure",
			"Review selective use of leverage",
		)
	}

	if signal.Defensive > 0 {
		recs = append(recs, "Defensive allocation: consider utilities and consumer staples")
	}
	if signal.Cash > 0 {
		recs = append(recs, "Raise cash: use short-term money market funds")
	}
	return recs
}
