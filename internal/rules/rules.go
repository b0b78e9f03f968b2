// Package rules is a small fire-and-weight rule engine.
//
// A rule looks at its input and either stays silent or fires a single
// weighted vote for a label. Rules run in declaration order and votes keep
// that order, so aggregation over them is reproducible.
package rules

// Vote is the outcome of a rule that fired.
type Vote[L comparable] struct {
	Rule   string  `json:"rule"`
	Reason string  `json:"reason"`
	Label  L       `json:"label,omitempty"`
	Weight float64 `json:"weight"`
	// Informational votes count as fired but add nothing to any score.
	Informational bool `json:"informational,omitempty"`
}

// Rule evaluates one predicate against an input of type T.
type Rule[T any, L comparable] struct {
	Name string
	Eval func(in T) (Vote[L], bool)
}

// Evaluate runs the rules in order and returns the votes of those that fired.
func Evaluate[T any, L comparable](rs []Rule[T, L], in T) []Vote[L] {
	votes := make([]Vote[L], 0, len(rs))
	for _, r := range rs {
		v, ok := r.Eval(in)
		if !ok {
			continue
		}
		v.Rule = r.Name
		votes = append(votes, v)
	}
	return votes
}

// Tally is the result of aggregating votes over an ordered label space.
type Tally[L comparable] struct {
	Winner     L
	Confidence float64
	Scores     map[L]float64
	Fired      int
	// TotalWeight is the summed weight of scored votes before normalizing.
	TotalWeight float64
}

// Aggregate sums vote weights per label, normalizes by the total scored
// weight and picks the highest score. Ties go to the label that comes first
// in order. Votes for labels outside order are counted but not scored.
// Without scored weight the winner is fallback with confidence 0.
func Aggregate[L comparable](votes []Vote[L], order []L, fallback L) Tally[L] {
	t := Tally[L]{
		Winner: fallback,
		Scores: make(map[L]float64, len(order)),
		Fired:  len(votes),
	}
	for _, l := range order {
		t.Scores[l] = 0
	}

	for _, v := range votes {
		if v.Informational {
			continue
		}
		if _, ok := t.Scores[v.Label]; !ok {
			continue
		}
		t.Scores[v.Label] += v.Weight
		t.TotalWeight += v.Weight
	}

	if t.TotalWeight <= 0 {
		return t
	}

	for _, l := range order {
		t.Scores[l] /= t.TotalWeight
	}

	best := -1.0
	for _, l := range order {
		if t.Scores[l] > best {
			best = t.Scores[l]
			t.Winner = l
		}
	}
	t.Confidence = best
	return t
}

// Weights returns the sum and the mean weight of the scored votes.
// The mean is 0 when no vote is scored.
func Weights[L comparable](votes []Vote[L]) (sum, mean float64) {
	n := 0
	for _, v := range votes {
		if v.Informational {
			continue
		}
		sum += v.Weight
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return sum, sum / float64(n)
}
