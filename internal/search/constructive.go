package search

import "log/slog"

// ConstructiveConfig configures the bound-guided constructive beam search.
// Depth should be at least Length so frontier members can reach full length.
type ConstructiveConfig struct {
	Length   int
	Width    int
	Depth    int
	Maximize bool
}

// Validate checks the configuration before a search starts.
func (c ConstructiveConfig) Validate() error {
	if c.Length < 0 {
		return configErr("Length", "cannot be negative")
	}
	if c.Width <= 0 {
		return configErr("Width", "must be positive")
	}
	if c.Depth < 0 {
		return configErr("Depth", "cannot be negative")
	}
	return nil
}

// ConstructiveResult is the outcome of a constructive search. An empty Best
// with Feasible false means no feasible solution was found.
type ConstructiveResult struct {
	Best     Candidate
	Score    float64
	Feasible bool
	// Complete is set when a full-length feasible state was seen in a frontier.
	Complete bool
	// FellBack is set when the result came from padding a partial state.
	FellBack bool
}

// ConstructiveBeam builds decision vectors one gene per depth step. Partial
// prefixes are ranked by an optimistic bound; complete feasible states are
// scored with the fitness function.
type ConstructiveBeam struct {
	cfg      ConstructiveConfig
	bound    BoundEstimator
	fitness  Scorer
	feasible FeasibilityChecker
}

// NewConstructiveBeam validates cfg and binds the callbacks.
func NewConstructiveBeam(cfg ConstructiveConfig, bound BoundEstimator, fitness Scorer, feasible FeasibilityChecker) (*ConstructiveBeam, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if bound == nil {
		return nil, configErr("bound", "cannot be nil")
	}
	if fitness == nil {
		return nil, configErr("fitness", "cannot be nil")
	}
	if feasible == nil {
		return nil, configErr("feasible", "cannot be nil")
	}
	return &ConstructiveBeam{cfg: cfg, bound: bound, fitness: fitness, feasible: feasible}, nil
}

// expand appends an exclude and an include decision until full length.
func (cb *ConstructiveBeam) expand(partial Candidate) []Candidate {
	if len(partial) >= cb.cfg.Length {
		return nil
	}
	return []Candidate{partial.Append(0), partial.Append(1)}
}

// Search runs Depth construction steps from the empty prefix.
func (cb *ConstructiveBeam) Search() *ConstructiveResult {
	var best *ConstructiveResult

	beam := []Candidate{NewCandidate(0)}
	for d := 1; d <= cb.cfg.Depth; d++ {
		next := newFrontier(cb.cfg.Width, cb.cfg.Maximize)
		for _, state := range beam {
			for _, child := range cb.expand(state) {
				next.offer(child, cb.bound.Bound(child))
			}
		}
		beam = next.states()

		for _, state := range beam {
			if len(state) != cb.cfg.Length || !cb.feasible.Feasible(state) {
				continue
			}
			score := cb.fitness.Score(state)
			if best == nil || better(score, best.Score, cb.cfg.Maximize) {
				best = &ConstructiveResult{Best: state, Score: score, Feasible: true, Complete: true}
			}
		}
	}

	if best == nil {
		best = cb.fallback(beam)
	}

	slog.Debug("Constructive beam search complete",
		"width", cb.cfg.Width,
		"depth", cb.cfg.Depth,
		"score", best.Score,
		"feasible", best.Feasible,
		"fell_back", best.FellBack,
	)
	return best
}

// fallback pads each partial frontier member with exclude decisions and
// keeps the best feasible completion. With nothing usable it returns the
// empty result.
func (cb *ConstructiveBeam) fallback(beam []Candidate) *ConstructiveResult {
	var best *ConstructiveResult
	for _, state := range beam {
		if len(state) >= cb.cfg.Length {
			continue
		}
		filled := state.Pad(cb.cfg.Length)
		if !cb.feasible.Feasible(filled) {
			continue
		}
		score := cb.fitness.Score(filled)
		if best == nil || better(score, best.Score, cb.cfg.Maximize) {
			best = &ConstructiveResult{Best: filled, Score: score, Feasible: true, FellBack: true}
		}
	}
	if best == nil {
		return &ConstructiveResult{Best: Candidate{}}
	}
	return best
}
