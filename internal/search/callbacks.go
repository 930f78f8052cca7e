package search

// Scorer evaluates a complete candidate (fitness or score).
type Scorer interface {
	Score(c Candidate) float64
}

// Expander produces the successors of a state.
type Expander interface {
	Expand(c Candidate) []Candidate
}

// BoundEstimator returns an admissible estimate for a partial decision
// prefix: never worse than the best completion in the search direction.
type BoundEstimator interface {
	Bound(partial Candidate) float64
}

// FeasibilityChecker reports whether a complete candidate respects the
// problem's constraints.
type FeasibilityChecker interface {
	Feasible(c Candidate) bool
}

// ScoreFunc adapts a plain function to Scorer.
type ScoreFunc func(Candidate) float64

func (f ScoreFunc) Score(c Candidate) float64 { return f(c) }

// ExpandFunc adapts a plain function to Expander.
type ExpandFunc func(Candidate) []Candidate

func (f ExpandFunc) Expand(c Candidate) []Candidate { return f(c) }

// BoundFunc adapts a plain function to BoundEstimator.
type BoundFunc func(Candidate) float64

func (f BoundFunc) Bound(partial Candidate) float64 { return f(partial) }

// FeasibleFunc adapts a plain function to FeasibilityChecker.
type FeasibleFunc func(Candidate) bool

func (f FeasibleFunc) Feasible(c Candidate) bool { return f(c) }

// better reports whether a strictly improves on b in the given direction.
func better(a, b float64, maximize bool) bool {
	if maximize {
		return a > b
	}
	return a < b
}
