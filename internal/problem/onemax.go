package problem

import "github.com/cwbudde/bitsearch/internal/search"

// OneMax scores a chromosome by its number of set genes.
type OneMax struct {
	length int
}

// NewOneMax creates a OneMax problem of the given length.
func NewOneMax(length int) (*OneMax, error) {
	if err := checkLength(length); err != nil {
		return nil, err
	}
	return &OneMax{length: length}, nil
}

func (p *OneMax) Name() string   { return "onemax" }
func (p *OneMax) Length() int    { return p.length }
func (p *OneMax) Maximize() bool { return true }

func (p *OneMax) Score(c search.Candidate) float64 {
	return float64(c.Ones())
}

// Optimum is the all-ones chromosome.
func (p *OneMax) Optimum() (float64, search.Candidate, error) {
	best := make(search.Candidate, p.length)
	for i := range best {
		best[i] = 1
	}
	return float64(p.length), best, nil
}
