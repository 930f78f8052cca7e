package problem

import (
	"fmt"
	"sort"

	"github.com/cwbudde/bitsearch/internal/search"
)

// Problem is a fixed-length binary optimisation problem.
type Problem interface {
	search.Scorer
	Name() string
	Length() int
	Maximize() bool
}

// Constrained problems can be solved with the constructive beam search.
type Constrained interface {
	Problem
	search.BoundEstimator
	search.FeasibilityChecker
}

// Oracle problems know their optimum value, exactly or by exhaustive search.
type Oracle interface {
	Optimum() (float64, search.Candidate, error)
}

// Factory builds a problem for a requested chromosome length.
// Fixed-size problems ignore the length.
type Factory func(length int) (Problem, error)

var registry = map[string]Factory{
	"onemax":   func(length int) (Problem, error) { return NewOneMax(length) },
	"plateau":  func(length int) (Problem, error) { return NewWeightedPlateau(length) },
	"knapsack": func(int) (Problem, error) { return DefaultKnapsack(), nil },
}

// New builds the named problem.
func New(name string, length int) (Problem, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown problem %q (available: %v)", name, Names())
	}
	return factory(length)
}

// Names lists the registered problem names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BitFlip is the neighbourhood of all single-gene flips.
type BitFlip struct{}

// Expand returns one successor per gene, each with that gene inverted.
func (BitFlip) Expand(c search.Candidate) []search.Candidate {
	out := make([]search.Candidate, len(c))
	for i := range c {
		n := c.Clone()
		n.Flip(i)
		out[i] = n
	}
	return out
}

func checkLength(length int) error {
	if length <= 0 {
		return fmt.Errorf("chromosome length must be positive, got %d", length)
	}
	return nil
}
