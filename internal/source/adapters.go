package source

import (
	"context"
	"fmt"

	"github.com/newthinker/macrolens/internal/core"
	"github.com/newthinker/macrolens/internal/frame"
	"github.com/newthinker/macrolens/internal/fusion"
	"github.com/newthinker/macrolens/internal/macro"
	"github.com/newthinker/macrolens/internal/market"
	"github.com/newthinker/macrolens/internal/sentiment"
)

// Domestic runs the macro analyzer over the snapshot observations.
type Domestic struct {
	analyzer *macro.Analyzer
}

// NewDomestic wraps an analyzer.
func NewDomestic(a *macro.Analyzer) *Domestic { return &Domestic{analyzer: a} }

func (d *Domestic) Name() string { return fusion.SourceDomestic }

func (d *Domestic) Analyze(ctx context.Context, snap Snapshot) (fusion.Input, any, error) {
	if err := ctx.Err(); err != nil {
		return fusion.Input{}, nil, err
	}
	f := frame.Build(snap.Observations)
	if f.Empty() {
		return fusion.Input{}, nil, core.WrapError(core.ErrSourceUnavailable,
			fmt.Errorf("no valid observations"))
	}
	a := d.analyzer.AnalyzeFrame(f)
	return fusion.FromDomestic(a.Regime.Regime, a.Signal), &a, nil
}

// Market runs the market classifier over the snapshot bars.
type Market struct {
	classifier *market.Classifier
}

// NewMarket wraps a market classifier.
func NewMarket(c *market.Classifier) *Market { return &Market{classifier: c} }

func (m *Market) Name() string { return fusion.SourceMarket }

// Analyze reports the source unavailable when none of the classifier's
// symbols has a valid bar. A short history still yields an INSUFFICIENT_DATA
// input.
func (m *Market) Analyze(ctx context.Context, snap Snapshot) (fusion.Input, any, error) {
	if err := ctx.Err(); err != nil {
		return fusion.Input{}, nil, err
	}
	f := frame.BuildMarket(snap.Bars, m.classifier.Config().FrameOptions())
	if f.Empty() {
		return fusion.Input{}, nil, core.WrapError(core.ErrSourceUnavailable,
			fmt.Errorf("no valid bars for market symbols"))
	}
	r := m.classifier.Classify(f)
	return fusion.FromMarket(r.Regime, r.Confidence), &r, nil
}

// Sentiment runs the sentiment classifier over the snapshot bars.
type Sentiment struct {
	classifier *sentiment.Classifier
}

// NewSentiment wraps a sentiment classifier.
func NewSentiment(c *sentiment.Classifier) *Sentiment { return &Sentiment{classifier: c} }

func (s *Sentiment) Name() string { return fusion.SourceSentiment }

func (s *Sentiment) Analyze(ctx context.Context, snap Snapshot) (fusion.Input, any, error) {
	if err := ctx.Err(); err != nil {
		return fusion.Input{}, nil, err
	}
	closes := frame.Closes(snap.Bars)
	if !s.classifier.HasData(closes) {
		return fusion.Input{}, nil, core.WrapError(core.ErrSourceUnavailable,
			fmt.Errorf("no sentiment series"))
	}
	r := s.classifier.Classify(closes)
	return fusion.FromSentiment(r.Sentiment, r.Confidence), &r, nil
}
