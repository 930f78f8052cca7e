package search

import "log/slog"

// BeamConfig configures a successor-based beam search.
type BeamConfig struct {
	Width    int
	Depth    int
	Maximize bool
}

// Validate checks the configuration before a search starts.
func (c BeamConfig) Validate() error {
	if c.Width <= 0 {
		return configErr("Width", "must be positive")
	}
	if c.Depth < 0 {
		return configErr("Depth", "cannot be negative")
	}
	return nil
}

// BeamResult is the outcome of a beam search.
type BeamResult struct {
	Best        Candidate
	BestScore   float64
	// Trace[d] is the best-so-far score after depth step d+1.
	Trace       []float64
	Evaluations int
	// ExhaustedAt is the depth step at which the frontier first became
	// empty, or -1 if it never did.
	ExhaustedAt int
}

// BeamSearch expands a bounded frontier depth by depth and remembers the
// best state ever scored, whether or not it survived pruning.
type BeamSearch struct {
	cfg    BeamConfig
	expand Expander
	score  Scorer
}

// NewBeamSearch validates cfg and binds the callbacks.
func NewBeamSearch(cfg BeamConfig, expand Expander, score Scorer) (*BeamSearch, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if expand == nil {
		return nil, configErr("expand", "cannot be nil")
	}
	if score == nil {
		return nil, configErr("score", "cannot be nil")
	}
	return &BeamSearch{cfg: cfg, expand: expand, score: score}, nil
}

// Search runs Depth expansion steps from start. An empty frontier is a
// normal terminal state: remaining steps do nothing.
func (b *BeamSearch) Search(start Candidate) *BeamResult {
	best := start.Clone()
	bestScore := b.score.Score(start)
	evals := 1
	exhausted := -1

	beam := []Candidate{start.Clone()}
	trace := make([]float64, 0, b.cfg.Depth)

	for d := 1; d <= b.cfg.Depth; d++ {
		next := newFrontier(b.cfg.Width, b.cfg.Maximize)
		for _, state := range beam {
			for _, succ := range b.expand.Expand(state) {
				s := b.score.Score(succ)
				evals++
				if better(s, bestScore, b.cfg.Maximize) {
					best, bestScore = succ.Clone(), s
				}
				next.offer(succ, s)
			}
		}
		beam = next.states()
		if len(beam) == 0 && exhausted < 0 {
			exhausted = d
		}
		trace = append(trace, bestScore)
	}

	slog.Debug("Beam search complete",
		"width", b.cfg.Width,
		"depth", b.cfg.Depth,
		"best_score", bestScore,
		"evaluations", evals,
		"exhausted_at", exhausted,
	)

	return &BeamResult{
		Best:        best,
		BestScore:   bestScore,
		Trace:       trace,
		Evaluations: evals,
		ExhaustedAt: exhausted,
	}
}
