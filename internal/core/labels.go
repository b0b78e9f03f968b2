package core

// EconomicRegime is the macroeconomic regime of a single economy.
type EconomicRegime string

const (
	RegimeGrowth      EconomicRegime = "GROWTH"
	RegimeStagflation EconomicRegime = "STAGFLATION"
	RegimeRecession   EconomicRegime = "RECESSION"
	RegimeRecovery    EconomicRegime = "RECOVERY"
	RegimeNeutral     EconomicRegime = "NEUTRAL"
)

// EconomicRegimes lists regimes in tie-break order.
var EconomicRegimes = []EconomicRegime{
	RegimeGrowth,
	RegimeStagflation,
	RegimeRecession,
	RegimeRecovery,
	RegimeNeutral,
}

// RiskLevel is an ordered market risk level.
type RiskLevel string

const (
	RiskVeryLow  RiskLevel = "VERY_LOW"
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskHigh     RiskLevel = "HIGH"
	RiskVeryHigh RiskLevel = "VERY_HIGH"
)

// RiskLevels lists risk levels from lowest to highest.
var RiskLevels = []RiskLevel{RiskVeryLow, RiskLow, RiskModerate, RiskHigh, RiskVeryHigh}

// Rank returns the position of the level in RiskLevels, or -1.
func (r RiskLevel) Rank() int {
	for i, l := range RiskLevels {
		if l == r {
			return i
		}
	}
	return -1
}

// IsElevated reports whether the level is HIGH or VERY_HIGH.
func (r RiskLevel) IsElevated() bool {
	return r == RiskHigh || r == RiskVeryHigh
}

// MarketRegime is the regime of an equity market.
type MarketRegime string

const (
	MarketBull             MarketRegime = "BULL_MARKET"
	MarketBear             MarketRegime = "BEAR_MARKET"
	MarketSideways         MarketRegime = "SIDEWAYS"
	MarketHighVolatility   MarketRegime = "HIGH_VOLATILITY"
	MarketTechLed          MarketRegime = "TECH_LED"
	MarketInsufficientData MarketRegime = "INSUFFICIENT_DATA"
)

// MarketRegimes lists the classifiable market regimes in tie-break order.
// MarketInsufficientData is a sentinel and never wins a vote.
var MarketRegimes = []MarketRegime{
	MarketBull,
	MarketBear,
	MarketSideways,
	MarketHighVolatility,
	MarketTechLed,
}

// Sentiment is an aggregate market mood.
type Sentiment string

const (
	SentimentVeryBullish Sentiment = "VERY_BULLISH"
	SentimentBullish     Sentiment = "BULLISH"
	SentimentNeutral     Sentiment = "NEUTRAL"
	SentimentBearish     Sentiment = "BEARISH"
	SentimentVeryBearish Sentiment = "VERY_BEARISH"
)

// IsBullish reports whether the sentiment is BULLISH or VERY_BULLISH.
func (s Sentiment) IsBullish() bool {
	return s == SentimentBullish || s == SentimentVeryBullish
}

// IsBearish reports whether the sentiment is BEARISH or VERY_BEARISH.
func (s Sentiment) IsBearish() bool {
	return s == SentimentBearish || s == SentimentVeryBearish
}

// Bucket is the coarse risk appetite a source votes for.
type Bucket string

const (
	BucketRiskOn  Bucket = "RISK_ON"
	BucketRiskOff Bucket = "RISK_OFF"
	BucketMixed   Bucket = "MIXED"
)

// GlobalRegime is the fused regime across all sources.
type GlobalRegime string

const (
	GlobalRiskOn       GlobalRegime = "RISK_ON"
	GlobalRiskOff      GlobalRegime = "RISK_OFF"
	GlobalMixedSignals GlobalRegime = "MIXED_SIGNALS"
	GlobalTransition   GlobalRegime = "TRANSITION"
	GlobalUncertain    GlobalRegime = "UNCERTAIN"
)
