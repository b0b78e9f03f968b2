// Package report assembles the per-source results and the fused decision of
// one analysis run into a single persistable document.
package report

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/macrolens/internal/core"
	"github.com/newthinker/macrolens/internal/fusion"
	"github.com/newthinker/macrolens/internal/macro"
	"github.com/newthinker/macrolens/internal/market"
	"github.com/newthinker/macrolens/internal/notifier"
	"github.com/newthinker/macrolens/internal/sentiment"
	"github.com/newthinker/macrolens/internal/source"
)

// SourceStatus records how one source fared in a run.
type SourceStatus struct {
	Source     string  `json:"source"`
	Available  bool    `json:"available"`
	Error      string  `json:"error,omitempty"`
	DurationMS float64 `json:"duration_ms"`
}

// Report is the complete output of one analysis run.
type Report struct {
	ID          string            `json:"id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Sources     []SourceStatus    `json:"sources"`
	Domestic    *macro.Analysis   `json:"domestic_analysis,omitempty"`
	Market      *market.Result    `json:"market_analysis,omitempty"`
	Sentiment   *sentiment.Result `json:"sentiment_analysis,omitempty"`
	Fusion      fusion.Result     `json:"fusion"`
}

// New builds a report from runner outcomes and the fused result. It assigns
// a fresh ID and stamps the generation time in UTC.
func New(outcomes []source.Outcome, fused fusion.Result, now time.Time) *Report {
	r := &Report{
		ID:          uuid.NewString(),
		GeneratedAt: now.UTC(),
		Sources:     make([]SourceStatus, 0, len(outcomes)),
		Fusion:      fused,
	}
	for _, o := range outcomes {
		st := SourceStatus{
			Source:     o.Source,
			Available:  o.Available(),
			DurationMS: float64(o.Duration.Microseconds()) / 1000,
		}
		if o.Err != nil {
			st.Error = o.Err.Error()
		}
		r.Sources = append(r.Sources, st)

		if !o.Available() {
			continue
		}
		switch d := o.Detail.(type) {
		case *macro.Analysis:
			r.Domestic = d
		case *market.Result:
			r.Market = d
		case *sentiment.Result:
			r.Sentiment = d
		}
	}
	return r
}

// Status returns the status label of an outcome for metrics.
func Status(o source.Outcome) string {
	switch {
	case o.Err == nil:
		return "ok"
	case errors.Is(o.Err, core.ErrSourceTimeout):
		return "timeout"
	case errors.Is(o.Err, core.ErrSourceUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

// Digest condenses the report for notifiers.
func (r *Report) Digest() notifier.Digest {
	inputs := make(map[string]fusion.Input, len(r.Fusion.Inputs))
	for _, in := range r.Fusion.Inputs {
		inputs[in.Source] = in
	}

	lines := make([]notifier.SourceLine, 0, len(r.Sources))
	for _, s := range r.Sources {
		line := notifier.SourceLine{Source: s.Source}
		if in, ok := inputs[s.Source]; ok {
			line.Available = true
			line.Label = in.Label
			line.Confidence = in.Confidence
		}
		lines = append(lines, line)
	}

	return notifier.Digest{
		ReportID:        r.ID,
		GeneratedAt:     r.GeneratedAt,
		GlobalRegime:    r.Fusion.GlobalRegime,
		Confidence:      r.Fusion.IntegrationConfidence,
		WeightedTilt:    r.Fusion.WeightedTilt,
		Signals:         r.Fusion.Signals,
		Sources:         lines,
		Recommendations: r.Fusion.Recommendations,
	}
}
