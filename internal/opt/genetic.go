package opt

import (
	"fmt"
	"time"

	"github.com/cwbudde/bitsearch/internal/problem"
	"github.com/cwbudde/bitsearch/internal/search"
)

// GeneticOptimizer runs the generational GA on a problem.
type GeneticOptimizer struct {
	PopulationSize int
	Generations    int
	CrossoverRate  float64
	MutationRate   float64
	TournamentSize int
}

// NewGenetic creates a GA optimizer with the default operator rates.
func NewGenetic(populationSize, generations int) *GeneticOptimizer {
	d := search.DefaultGeneticConfig(populationSize, 0)
	return &GeneticOptimizer{
		PopulationSize: populationSize,
		Generations:    generations,
		CrossoverRate:  d.CrossoverRate,
		MutationRate:   d.MutationRate,
		TournamentSize: d.TournamentSize,
	}
}

func (g *GeneticOptimizer) Name() string { return "ga" }

// Run evolves a population for the configured number of generations.
func (g *GeneticOptimizer) Run(p problem.Problem, seed int64, progress ProgressFunc) (*Result, error) {
	cfg := search.GeneticConfig{
		PopulationSize:   g.PopulationSize,
		ChromosomeLength: p.Length(),
		CrossoverRate:    g.CrossoverRate,
		MutationRate:     g.MutationRate,
		TournamentSize:   g.TournamentSize,
		Maximize:         p.Maximize(),
		Seed:             seed,
	}
	ga, err := search.NewGeneticAlgorithm(cfg, p)
	if err != nil {
		return nil, fmt.Errorf("ga: %w", err)
	}
	if progress != nil {
		ga.OnGeneration = search.GenerationFunc(progress)
	}

	start := time.Now()
	res, err := ga.Run(g.Generations)
	if err != nil {
		return nil, fmt.Errorf("ga: %w", err)
	}

	return &Result{
		Algorithm:   g.Name(),
		Best:        res.Best,
		Score:       res.BestFitness,
		Feasible:    feasible(p, res.Best),
		History:     res.History,
		Evaluations: res.Evaluations,
		Elapsed:     time.Since(start),
	}, nil
}
