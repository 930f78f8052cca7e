package problem

import "github.com/cwbudde/bitsearch/internal/search"

const (
	// plateauBand is the fraction of the maximum above which near-optimal
	// chromosomes are penalised.
	plateauBand    = 0.95
	plateauPenalty = 0.5
)

// WeightedPlateau is a weighted OneMax with a deceptive band just below the
// optimum. Gene i weighs 1 + (i mod 7)/10. A raw score within 5% of the
// maximum, but not equal to it, loses plateauPenalty.
type WeightedPlateau struct {
	weights []float64
	max     float64
}

// NewWeightedPlateau creates the problem for the given length.
func NewWeightedPlateau(length int) (*WeightedPlateau, error) {
	if err := checkLength(length); err != nil {
		return nil, err
	}
	weights := make([]float64, length)
	var total float64
	for i := range weights {
		weights[i] = 1 + float64(i%7)/10
		total += weights[i]
	}
	return &WeightedPlateau{weights: weights, max: total}, nil
}

func (p *WeightedPlateau) Name() string   { return "plateau" }
func (p *WeightedPlateau) Length() int    { return len(p.weights) }
func (p *WeightedPlateau) Maximize() bool { return true }

// MaxScore is the unpenalised score of the all-ones chromosome.
func (p *WeightedPlateau) MaxScore() float64 {
	return p.max
}

func (p *WeightedPlateau) Score(c search.Candidate) float64 {
	var raw float64
	for i, g := range c {
		if i >= len(p.weights) {
			break
		}
		if g == 1 {
			raw += p.weights[i]
		}
	}
	if raw >= plateauBand*p.max && raw < p.max {
		raw -= plateauPenalty
	}
	return raw
}

func (p *WeightedPlateau) Optimum() (float64, search.Candidate, error) {
	best := make(search.Candidate, len(p.weights))
	for i := range best {
		best[i] = 1
	}
	return p.max, best, nil
}
