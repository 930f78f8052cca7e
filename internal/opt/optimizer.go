package opt

import (
	"time"

	"github.com/cwbudde/bitsearch/internal/problem"
	"github.com/cwbudde/bitsearch/internal/search"
)

// ProgressFunc receives the best score after each step of a run
// (a generation, a depth step or an iteration).
type ProgressFunc func(step int, best float64)

// Result holds the outcome of one optimizer run.
type Result struct {
	Algorithm   string
	Best        search.Candidate
	Score       float64
	Feasible    bool
	History     []float64
	Evaluations int
	Elapsed     time.Duration
}

// Optimizer defines a search algorithm bound to no particular problem
type Optimizer interface {
	// Name identifies the algorithm in reports ("ga", "beam", "mayfly").
	Name() string

	// Run optimises p once. seed fixes every random decision of the run;
	// progress may be nil.
	Run(p problem.Problem, seed int64, progress ProgressFunc) (*Result, error)
}

// feasible applies the problem's constraint check when it has one.
func feasible(p problem.Problem, c search.Candidate) bool {
	if len(c) != p.Length() {
		return false
	}
	if fc, ok := p.(search.FeasibilityChecker); ok {
		return fc.Feasible(c)
	}
	return true
}
