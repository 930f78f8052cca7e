package opt

import (
	"fmt"
	"time"

	"github.com/cwbudde/bitsearch/internal/problem"
	"github.com/cwbudde/bitsearch/internal/search"
)

// constructiveExtraDepth is added to the chromosome length when no depth is
// configured for a constrained problem.
const constructiveExtraDepth = 5

// BeamOptimizer picks the beam variant from the problem's capabilities:
// constrained problems get the bound-guided constructive search, all
// others a bit-flip beam search from a random start state.
type BeamOptimizer struct {
	Width int
	// Depth of 0 means "derive from the chromosome length".
	Depth int
}

// NewBeam creates a beam optimizer.
func NewBeam(width, depth int) *BeamOptimizer {
	return &BeamOptimizer{Width: width, Depth: depth}
}

func (b *BeamOptimizer) Name() string { return "beam" }

// Run searches p once. The seed only matters for the random start state of
// the successor-based variant.
func (b *BeamOptimizer) Run(p problem.Problem, seed int64, progress ProgressFunc) (*Result, error) {
	if c, ok := p.(problem.Constrained); ok {
		return b.runConstructive(c, progress)
	}
	return b.runSuccessor(p, seed, progress)
}

func (b *BeamOptimizer) runSuccessor(p problem.Problem, seed int64, progress ProgressFunc) (*Result, error) {
	depth := b.Depth
	if depth == 0 {
		depth = p.Length()
	}
	bs, err := search.NewBeamSearch(search.BeamConfig{Width: b.Width, Depth: depth, Maximize: p.Maximize()}, problem.BitFlip{}, p)
	if err != nil {
		return nil, fmt.Errorf("beam: %w", err)
	}

	startState := search.NewRandomStream(seed).Candidate(p.Length())

	start := time.Now()
	res := bs.Search(startState)
	elapsed := time.Since(start)

	if progress != nil {
		for d, s := range res.Trace {
			progress(d+1, s)
		}
	}

	return &Result{
		Algorithm:   b.Name(),
		Best:        res.Best,
		Score:       res.BestScore,
		Feasible:    feasible(p, res.Best),
		History:     res.Trace,
		Evaluations: res.Evaluations,
		Elapsed:     elapsed,
	}, nil
}

func (b *BeamOptimizer) runConstructive(p problem.Constrained, progress ProgressFunc) (*Result, error) {
	depth := b.Depth
	if depth == 0 {
		depth = p.Length() + constructiveExtraDepth
	}
	cfg := search.ConstructiveConfig{Length: p.Length(), Width: b.Width, Depth: depth, Maximize: p.Maximize()}
	cb, err := search.NewConstructiveBeam(cfg, p, p, p)
	if err != nil {
		return nil, fmt.Errorf("beam: %w", err)
	}

	start := time.Now()
	res := cb.Search()
	elapsed := time.Since(start)

	if progress != nil {
		progress(depth, res.Score)
	}

	return &Result{
		Algorithm: b.Name(),
		Best:      res.Best,
		Score:     res.Score,
		Feasible:  res.Feasible,
		Elapsed:   elapsed,
	}, nil
}
