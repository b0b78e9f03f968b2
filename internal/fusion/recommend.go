package fusion

import "github.com/newthinker/macrolens/internal/core"

var regimeAdvice = map[core.GlobalRegime][]string{
	core.GlobalRiskOn: {
		"Risk-on: review overweighting growth and technology equities",
		"Look for opportunities in emerging markets and risk assets",
		"Consider reducing bond allocation",
	},
	core.GlobalRiskOff: {
		"Risk-off: increase defensive equities and safe-haven assets",
		"Prefer government bonds, gold and cash",
		"Review hedging strategies for rising volatility",
	},
	core.GlobalMixedSignals: {
		"Mixed signals: keep a balanced portfolio",
		"Consider sector rotation",
		"Rebalance actively in a volatile market",
	},
	core.GlobalTransition: {
		"Transition: monitor signal changes closely",
		"Adjust positions gradually",
		"Prepare for higher short-term volatility",
	},
	core.GlobalUncertain: {
		"Uncertain environment: run a conservative portfolio",
		"Raise cash and wait for clearer signals",
	},
}

// Recommend lists advice for a fused result: global regime advice, then
// advice keyed by confidence and strength, then equity signal advice.
func Recommend(regime core.GlobalRegime, signals core.SignalVector) []string {
	recs := append([]string(nil), regimeAdvice[regime]...)

	switch {
	case signals.Confidence > 0.7:
		if signals.Strength > 0.6 {
			recs = append(recs, "High confidence, strong signal: adjust positions decisively")
		} else if signals.Strength > 0.4 {
			recs = append(recs, "High confidence, moderate signal: adjust positions gradually")
		}
	case signals.Confidence > 0.4:
		recs = append(recs, "Medium confidence: manage positions carefully")
	default:
		recs = append(recs, "Low confidence: confirm with more information before acting")
	}

	switch {
	case signals.Equity > 0:
		recs = append(recs,
			"Domestic equities positive: review large-cap buying",
			"Increase attention to exporters and technology",
		)
	case signals.Equity < 0:
		recs = append(recs,
			"Domestic equities negative: raise defensive or cash weight",
			"Review overseas diversification",
		)
	}
	return recs
}
