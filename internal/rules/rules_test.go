package rules

import (
	"math"
	"testing"
)

type label string

const (
	labelA label = "A"
	labelB label = "B"
	labelC label = "C"
)

var order = []label{labelA, labelB, labelC}

func fire(l label, w float64) func(int) (Vote[label], bool) {
	return func(int) (Vote[label], bool) {
		return Vote[label]{Label: l, Weight: w}, true
	}
}

func silent(int) (Vote[label], bool) { return Vote[label]{}, false }

func TestEvaluate_KeepsDeclarationOrder(t *testing.T) {
	rs := []Rule[int, label]{
		{Name: "first", Eval: fire(labelC, 0.3)},
		{Name: "skipped", Eval: silent},
		{Name: "second", Eval: fire(labelA, 0.5)},
	}

	votes := Evaluate(rs, 0)

	if len(votes) != 2 {
		t.Fatalf("expected 2 votes, got %d", len(votes))
	}
	if votes[0].Rule != "first" || votes[1].Rule != "second" {
		t.Errorf("unexpected vote order: %s, %s", votes[0].Rule, votes[1].Rule)
	}
}

func TestAggregate_NormalizedArgmax(t *testing.T) {
	votes := []Vote[label]{
		{Label: labelB, Weight: 0.6},
		{Label: labelA, Weight: 0.3},
		{Label: labelB, Weight: 0.1},
	}

	tally := Aggregate(votes, order, labelC)

	if tally.Winner != labelB {
		t.Errorf("expected B, got %s", tally.Winner)
	}
	if math.Abs(tally.Confidence-0.7) > 1e-9 {
		t.Errorf("expected confidence 0.7, got %f", tally.Confidence)
	}
	if tally.Fired != 3 {
		t.Errorf("expected 3 fired, got %d", tally.Fired)
	}
}

func TestAggregate_TieGoesToEarlierLabel(t *testing.T) {
	votes := []Vote[label]{
		{Label: labelC, Weight: 0.5},
		{Label: labelB, Weight: 0.5},
	}

	tally := Aggregate(votes, order, labelA)

	if tally.Winner != labelB {
		t.Errorf("expected B on tie, got %s", tally.Winner)
	}
}

func TestAggregate_NoVotes(t *testing.T) {
	tally := Aggregate[label](nil, order, labelC)

	if tally.Winner != labelC || tally.Confidence != 0 || tally.Fired != 0 {
		t.Errorf("unexpected tally: %+v", tally)
	}
	for _, l := range order {
		if tally.Scores[l] != 0 {
			t.Errorf("score for %s should be 0", l)
		}
	}
}

func TestAggregate_InformationalOnly(t *testing.T) {
	votes := []Vote[label]{{Reason: "low_volatility", Weight: 0.6, Informational: true}}

	tally := Aggregate(votes, order, labelB)

	if tally.Winner != labelB || tally.Confidence != 0 {
		t.Errorf("expected fallback with 0 confidence, got %+v", tally)
	}
	if tally.Fired != 1 {
		t.Errorf("informational vote should count as fired")
	}
}

func TestWeights(t *testing.T) {
	sum, mean := Weights([]Vote[label]{
		{Weight: 0.9},
		{Weight: 0.5},
		{Weight: 0.4, Informational: true},
	})
	if math.Abs(sum-1.4) > 1e-9 {
		t.Errorf("expected sum 1.4, got %f", sum)
	}
	if math.Abs(mean-0.7) > 1e-9 {
		t.Errorf("expected mean 0.7, got %f", mean)
	}

	if sum, mean := Weights[label](nil); sum != 0 || mean != 0 {
		t.Errorf("expected zero weights, got %f %f", sum, mean)
	}
}
