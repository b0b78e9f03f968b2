package notifier

import (
	"context"
	"time"

	"github.com/newthinker/macrolens/internal/core"
)

// SourceLine is one source's contribution as shown in a notification.
type SourceLine struct {
	Source     string  `json:"source"`
	Label      string  `json:"label"`
	Available  bool    `json:"available"`
	Confidence float64 `json:"confidence"`
}

// Digest is the notification view of one fused report.
type Digest struct {
	ReportID        string            `json:"report_id"`
	GeneratedAt     time.Time         `json:"generated_at"`
	GlobalRegime    core.GlobalRegime `json:"global_regime"`
	Confidence      float64           `json:"integration_confidence"`
	WeightedTilt    float64           `json:"weighted_tilt"`
	Signals         core.SignalVector `json:"integrated_signals"`
	Sources         []SourceLine      `json:"sources"`
	Recommendations []string          `json:"recommendations"`
}

// Notifier delivers digests to one destination.
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Send delivers a single digest
	Send(ctx context.Context, d Digest) error
}
