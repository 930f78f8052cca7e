package opt

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/cwbudde/mayfly"

	"github.com/cwbudde/bitsearch/internal/problem"
	"github.com/cwbudde/bitsearch/internal/search"
)

// geneThreshold maps a continuous coordinate to a bit.
const geneThreshold = 0.5

// MayflyAdapter runs the continuous Mayfly optimizer over [0,1]^L and
// thresholds positions into candidates. Mayfly minimises, so maximised
// scores are negated.
type MayflyAdapter struct {
	maxIters int
	popSize  int
}

// NewMayfly creates a Mayfly optimizer adapter. The library needs a
// population of at least 20.
func NewMayfly(maxIters, popSize int) *MayflyAdapter {
	return &MayflyAdapter{
		maxIters: maxIters,
		popSize:  popSize,
	}
}

func (m *MayflyAdapter) Name() string { return "mayfly" }

// Run executes the Mayfly optimization using the external library.
func (m *MayflyAdapter) Run(p problem.Problem, seed int64, progress ProgressFunc) (*Result, error) {
	if m.popSize < 1 {
		return nil, fmt.Errorf("mayfly: %w", &search.ConfigError{Field: "PopulationSize", Reason: "must be at least 1"})
	}
	if m.maxIters < 1 {
		return nil, fmt.Errorf("mayfly: %w", &search.ConfigError{Field: "Iterations", Reason: "must be at least 1"})
	}

	var (
		evals   int
		best    float64
		haveAny bool
		history []float64
	)

	cost := func(x []float64) float64 {
		s := p.Score(threshold(x))
		evals++
		if !haveAny || (p.Maximize() && s > best) || (!p.Maximize() && s < best) {
			best, haveAny = s, true
		}
		if p.Maximize() {
			return -s
		}
		return s
	}

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = func(x []float64) float64 {
		c := cost(x)
		// NPop evaluations approximate one iteration of the swarm
		if evals%m.popSize == 0 {
			history = append(history, best)
			if progress != nil {
				progress(len(history), best)
			}
		}
		return c
	}
	config.ProblemSize = p.Length()
	config.MaxIterations = m.maxIters
	config.NPop = m.popSize
	config.LowerBound = 0
	config.UpperBound = 1
	config.Rand = rand.New(rand.NewSource(seed))

	start := time.Now()
	result, err := mayfly.Optimize(config)
	if err != nil {
		return nil, fmt.Errorf("mayfly: %w", err)
	}
	elapsed := time.Since(start)

	cand := threshold(result.GlobalBest.Position)
	return &Result{
		Algorithm:   m.Name(),
		Best:        cand,
		Score:       p.Score(cand),
		Feasible:    feasible(p, cand),
		History:     history,
		Evaluations: evals,
		Elapsed:     elapsed,
	}, nil
}

func threshold(x []float64) search.Candidate {
	c := search.NewCandidate(len(x))
	for i, v := range x {
		if v >= geneThreshold {
			c[i] = 1
		}
	}
	return c
}
