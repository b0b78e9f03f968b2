package report

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/macrolens/internal/core"
	"github.com/newthinker/macrolens/internal/fusion"
	"github.com/newthinker/macrolens/internal/macro"
	"github.com/newthinker/macrolens/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOutcomes() []source.Outcome {
	domestic := &macro.Analysis{
		Regime: macro.RegimeResult{Regime: core.RegimeGrowth, Confidence: 0.6},
		Risk:   macro.RiskResult{Level: core.RiskLow, Confidence: 0.3},
	}
	return []source.Outcome{
		{
			Source:   fusion.SourceDomestic,
			Input:    fusion.FromDomestic(core.RegimeGrowth, core.SignalVector{Equity: 1, Strength: 0.7, Confidence: 0.6}),
			Detail:   domestic,
			Duration: 1500 * time.Microsecond,
		},
		{
			Source: fusion.SourceMarket,
			Err:    core.WrapError(core.ErrSourceTimeout, context.DeadlineExceeded),
		},
		{
			Source: fusion.SourceSentiment,
			Err:    core.WrapError(core.ErrSourceUnavailable, errors.New("no sentiment series")),
		},
	}
}

func sampleReport(t *testing.T) *Report {
	t.Helper()
	outcomes := sampleOutcomes()
	engine, err := fusion.NewEngine(fusion.DefaultConfig())
	require.NoError(t, err)
	fused := engine.Fuse(source.Inputs(outcomes))
	return New(outcomes, fused, time.Date(2024, 5, 2, 10, 0, 0, 0, time.FixedZone("KST", 9*3600)))
}

func TestNew(t *testing.T) {
	r := sampleReport(t)

	_, err := uuid.Parse(r.ID)
	assert.NoError(t, err, "report ID should be a UUID")
	assert.Equal(t, time.UTC, r.GeneratedAt.Location())
	assert.Equal(t, 1, r.GeneratedAt.Hour())

	require.Len(t, r.Sources, 3)
	assert.True(t, r.Sources[0].Available)
	assert.InDelta(t, 1.5, r.Sources[0].DurationMS, 1e-9)
	assert.False(t, r.Sources[1].Available)
	assert.Contains(t, r.Sources[1].Error, "SOURCE_TIMEOUT")

	require.NotNil(t, r.Domestic)
	assert.Equal(t, core.RegimeGrowth, r.Domestic.Regime.Regime)
	assert.Nil(t, r.Market)
	assert.Nil(t, r.Sentiment)
}

func TestNew_UniqueIDs(t *testing.T) {
	a := New(nil, fusion.Result{}, time.Now())
	b := New(nil, fusion.Result{}, time.Now())
	assert.NotEqual(t, a.ID, b.ID)
}

func TestStatus(t *testing.T) {
	outcomes := sampleOutcomes()
	assert.Equal(t, "ok", Status(outcomes[0]))
	assert.Equal(t, "timeout", Status(outcomes[1]))
	assert.Equal(t, "unavailable", Status(outcomes[2]))
	assert.Equal(t, "error", Status(source.Outcome{Err: errors.New("boom")}))
}

func TestDigest(t *testing.T) {
	r := sampleReport(t)
	d := r.Digest()

	assert.Equal(t, r.ID, d.ReportID)
	assert.Equal(t, r.Fusion.GlobalRegime, d.GlobalRegime)
	assert.InDelta(t, r.Fusion.IntegrationConfidence, d.Confidence, 1e-12)
	require.Len(t, d.Sources, 3)
	assert.True(t, d.Sources[0].Available)
	assert.Equal(t, "GROWTH", d.Sources[0].Label)
	assert.False(t, d.Sources[1].Available)
	assert.Equal(t, r.Fusion.Recommendations, d.Recommendations)
}

func TestWriteText(t *testing.T) {
	r := sampleReport(t)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, r))
	out := buf.String()

	for _, want := range []string{
		"Global regime:",
		"domestic   ok",
		"market     unavailable",
		"regime GROWTH",
		"Recommendations",
	} {
		assert.True(t, strings.Contains(out, want), "expected %q in:\n%s", want, out)
	}
}
