// Package source adapts the classifiers to a common interface and runs them
// concurrently against one input snapshot.
package source

import (
	"context"
	"time"

	"github.com/newthinker/macrolens/internal/core"
	"github.com/newthinker/macrolens/internal/fusion"
)

// Snapshot is the complete input of one analysis.
type Snapshot struct {
	Observations []core.Observation `json:"observations"`
	Bars         []core.OHLCV       `json:"bars"`
}

// Source produces one fusion input from a snapshot. Detail carries the
// source's own result for reporting. A source with nothing to say returns
// an error matching core.ErrSourceUnavailable.
type Source interface {
	Name() string
	Analyze(ctx context.Context, snap Snapshot) (in fusion.Input, detail any, err error)
}

// Outcome is the result of running one source.
type Outcome struct {
	Source   string
	Input    fusion.Input
	Detail   any
	Err      error
	Duration time.Duration
}

// Available reports whether the source produced an input.
func (o Outcome) Available() bool { return o.Err == nil }

// Inputs returns the inputs of the available outcomes in order.
func Inputs(outcomes []Outcome) []fusion.Input {
	inputs := make([]fusion.Input, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Available() {
			inputs = append(inputs, o.Input)
		}
	}
	return inputs
}
