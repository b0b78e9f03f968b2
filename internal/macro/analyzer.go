package macro

import (
	"time"

	"github.com/newthinker/macrolens/internal/core"
	"github.com/newthinker/macrolens/internal/frame"
	"go.uber.org/zap"
)

// Analysis is the complete domestic analysis of one observation snapshot.
type Analysis struct {
	Regime          RegimeResult      `json:"regime_analysis"`
	Risk            RiskResult        `json:"risk_analysis"`
	Signal          core.SignalVector `json:"signals"`
	Recommendations []string          `json:"recommendations"`
	Summary         DataSummary       `json:"data_summary"`
}

// DataSummary describes the frame an analysis was computed from.
type DataSummary struct {
	DataPoints      int                `json:"data_points"`
	IndicatorsCount int                `json:"indicators_count"`
	From            time.Time          `json:"from"`
	To              time.Time          `json:"to"`
	LatestValues    map[string]float64 `json:"latest_values"`
}

// Analyzer runs the full domestic pipeline: frame, regime, risk, signal.
type Analyzer struct {
	cfg    Config
	regime *RegimeClassifier
	risk   *RiskAssessor
	logger *zap.Logger
}

// NewAnalyzer creates an analyzer. Configuration errors are returned here,
// never from Analyze.
func NewAnalyzer(cfg Config, logger ...*zap.Logger) (*Analyzer, error) {
	l := zap.NewNop()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	regime, err := NewRegimeClassifier(cfg, l)
	if err != nil {
		return nil, err
	}
	risk, err := NewRiskAssessor(cfg, l)
	if err != nil {
		return nil, err
	}
	return &Analyzer{cfg: cfg, regime: regime, risk: risk, logger: l}, nil
}

// Analyze builds the frame from observations and analyzes it.
func (a *Analyzer) Analyze(observations []core.Observation) Analysis {
	return a.AnalyzeFrame(frame.Build(observations))
}

// AnalyzeFrame analyzes an already built frame.
func (a *Analyzer) AnalyzeFrame(f *frame.Frame) Analysis {
	regime := a.regime.Classify(f)
	risk := a.risk.Assess(f)
	signal := GenerateSignal(regime, risk)

	a.logger.Info("domestic analysis complete",
		zap.String("regime", string(regime.Regime)),
		zap.String("risk", string(risk.Level)),
		zap.Int("equity_signal", signal.Equity),
		zap.Float64("confidence", signal.Confidence),
	)

	return Analysis{
		Regime:          regime,
		Risk:            risk,
		Signal:          signal,
		Recommendations: Recommend(regime.Regime, risk.Level, signal),
		Summary:         a.summarize(f),
	}
}

func (a *Analyzer) summarize(f *frame.Frame) DataSummary {
	s := DataSummary{
		DataPoints:      f.Len(),
		IndicatorsCount: len(f.Columns()),
		From:            f.FirstDate(),
		To:              f.LastDate(),
		LatestValues:    make(map[string]float64),
	}
	for _, key := range a.cfg.Indicators.Keys() {
		if v, ok := f.Latest(key); ok {
			s.LatestValues[key] = v
		}
	}
	return s
}
