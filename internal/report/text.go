package report

import (
	"fmt"
	"io"
	"strings"
)

// WriteText renders a human readable summary of the report.
func WriteText(w io.Writer, r *Report) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Report %s (%s)\n", r.ID, r.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	sb.WriteString(strings.Repeat("=", 60) + "\n")

	f := r.Fusion
	fmt.Fprintf(&sb, "Global regime:          %s\n", f.GlobalRegime)
	fmt.Fprintf(&sb, "Integration confidence: %.2f\n", f.IntegrationConfidence)
	fmt.Fprintf(&sb, "Weighted tilt:          %+.3f (weight %.2f)\n", f.WeightedTilt, f.TotalWeight)
	fmt.Fprintf(&sb, "Signals:                equity %+d  bond %+d  cash %+d  defensive %+d\n",
		f.Signals.Equity, f.Signals.Bond, f.Signals.Cash, f.Signals.Defensive)

	sb.WriteString("\nSources\n")
	for _, s := range r.Sources {
		if !s.Available {
			fmt.Fprintf(&sb, "  %-10s unavailable: %s\n", s.Source, s.Error)
			continue
		}
		fmt.Fprintf(&sb, "  %-10s ok (%.1fms)\n", s.Source, s.DurationMS)
	}

	if d := r.Domestic; d != nil {
		sb.WriteString("\nDomestic\n")
		fmt.Fprintf(&sb, "  regime %s (%.2f), risk %s (%.2f)\n",
			d.Regime.Regime, d.Regime.Confidence, d.Risk.Level, d.Risk.Confidence)
		for _, v := range d.Regime.Signals {
			fmt.Fprintf(&sb, "  - %s\n", v.Reason)
		}
		for _, v := range d.Risk.Factors {
			fmt.Fprintf(&sb, "  ! %s\n", v.Reason)
		}
	}

	if m := r.Market; m != nil {
		sb.WriteString("\nMarket\n")
		fmt.Fprintf(&sb, "  regime %s (%.2f)\n", m.Regime, m.Confidence)
		for _, v := range m.Signals {
			fmt.Fprintf(&sb, "  - %s\n", v.Reason)
		}
	}

	if s := r.Sentiment; s != nil {
		sb.WriteString("\nSentiment\n")
		fmt.Fprintf(&sb, "  %s (score %+.2f, %.2f)\n", s.Sentiment, s.Score, s.Confidence)
		for _, v := range s.Indicators {
			fmt.Fprintf(&sb, "  - %s\n", v.Reason)
		}
	}

	if len(f.Recommendations) > 0 {
		sb.WriteString("\nRecommendations\n")
		for _, rec := range f.Recommendations {
			fmt.Fprintf(&sb, "  * %s\n", rec)
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
