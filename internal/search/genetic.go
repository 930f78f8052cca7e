package search

import (
	"fmt"
	"log/slog"
)

// GeneticConfig holds the parameters of a generational GA run.
type GeneticConfig struct {
	PopulationSize   int
	ChromosomeLength int
	CrossoverRate    float64
	MutationRate     float64
	TournamentSize   int
	Maximize         bool
	Seed             int64
}

// DefaultGeneticConfig returns the usual operator rates for a population of
// the given size and chromosome length.
func DefaultGeneticConfig(populationSize, chromosomeLength int) GeneticConfig {
	return GeneticConfig{
		PopulationSize:   populationSize,
		ChromosomeLength: chromosomeLength,
		CrossoverRate:    0.8,
		MutationRate:     0.01,
		TournamentSize:   3,
		Maximize:         true,
	}
}

// Validate checks the configuration before a run starts.
func (c GeneticConfig) Validate() error {
	if c.PopulationSize <= 0 {
		return configErr("PopulationSize", "must be positive")
	}
	if c.ChromosomeLength < 0 {
		return configErr("ChromosomeLength", "cannot be negative")
	}
	if c.CrossoverRate < 0 || c.CrossoverRate > 1 {
		return configErr("CrossoverRate", "must be within [0, 1]")
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return configErr("MutationRate", "must be within [0, 1]")
	}
	if c.TournamentSize < 1 {
		return configErr("TournamentSize", "must be at least 1")
	}
	if c.TournamentSize > c.PopulationSize {
		return configErr("TournamentSize", fmt.Sprintf("cannot exceed population size %d", c.PopulationSize))
	}
	return nil
}

// GenerationFunc observes the best fitness after each generation.
// Generations are numbered from 1.
type GenerationFunc func(generation int, bestFitness float64)

// GeneticResult is the outcome of a GA run.
type GeneticResult struct {
	Best        Candidate
	BestFitness float64
	// History holds the best fitness of each generation's population.
	// It may regress: there is no elitism.
	History     []float64
	Evaluations int
}

// GeneticAlgorithm is a generational GA with tournament selection,
// single-point crossover and per-gene bit-flip mutation.
//
// Replacement is wholesale with no elitism, so the best individual can be
// lost between generations. The returned best comes from the final
// population only.
type GeneticAlgorithm struct {
	cfg     GeneticConfig
	fitness Scorer
	rng     *RandomStream

	population []Candidate
	scores     []float64
	evals      int

	OnGeneration GenerationFunc
}

// NewGeneticAlgorithm validates cfg and seeds the engine's own RandomStream.
func NewGeneticAlgorithm(cfg GeneticConfig, fitness Scorer) (*GeneticAlgorithm, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if fitness == nil {
		return nil, configErr("fitness", "cannot be nil")
	}
	return &GeneticAlgorithm{
		cfg:     cfg,
		fitness: fitness,
		rng:     NewRandomStream(cfg.Seed),
	}, nil
}

// Config returns the engine configuration.
func (ga *GeneticAlgorithm) Config() GeneticConfig {
	return ga.cfg
}

// Run builds a fresh random population and evolves it for exactly
// generations steps. Calling Run again starts over with a new population
// but continues the same random stream.
func (ga *GeneticAlgorithm) Run(generations int) (*GeneticResult, error) {
	if generations < 0 {
		return nil, configErr("generations", "cannot be negative")
	}

	slog.Debug("GA run starting",
		"population", ga.cfg.PopulationSize,
		"length", ga.cfg.ChromosomeLength,
		"generations", generations,
		"seed", ga.cfg.Seed,
	)

	ga.evals = 0
	ga.initPopulation()

	history := make([]float64, 0, generations)
	for g := 1; g <= generations; g++ {
		ga.population = ga.breed()
		ga.evaluate()

		_, best := ga.best()
		history = append(history, best)
		if ga.OnGeneration != nil {
			ga.OnGeneration(g, best)
		}
	}

	idx, best := ga.best()
	slog.Debug("GA run complete", "best_fitness", best, "evaluations", ga.evals)

	return &GeneticResult{
		Best:        ga.population[idx].Clone(),
		BestFitness: best,
		History:     history,
		Evaluations: ga.evals,
	}, nil
}

// Population returns a copy of the current population.
func (ga *GeneticAlgorithm) Population() []Candidate {
	out := make([]Candidate, len(ga.population))
	for i, c := range ga.population {
		out[i] = c.Clone()
	}
	return out
}

func (ga *GeneticAlgorithm) initPopulation() {
	ga.population = make([]Candidate, ga.cfg.PopulationSize)
	for i := range ga.population {
		ga.population[i] = ga.rng.Candidate(ga.cfg.ChromosomeLength)
	}
	ga.evaluate()
}

func (ga *GeneticAlgorithm) evaluate() {
	ga.scores = make([]float64, len(ga.population))
	for i, c := range ga.population {
		ga.scores[i] = ga.fitness.Score(c)
	}
	ga.evals += len(ga.population)
}

// breed produces exactly PopulationSize offspring. When N is odd the
// second child of the last pair is dropped.
func (ga *GeneticAlgorithm) breed() []Candidate {
	n := ga.cfg.PopulationSize
	next := make([]Candidate, 0, n)
	for len(next) < n {
		a := ga.tournament()
		b := ga.tournament()
		c1, c2 := ga.crossover(a, b)
		ga.mutate(c1)
		next = append(next, c1)
		ga.mutate(c2)
		if len(next) < n {
			next = append(next, c2)
		}
	}
	return next
}

// tournament draws TournamentSize distinct individuals and returns a copy of
// the fittest. Ties go to the competitor drawn first.
func (ga *GeneticAlgorithm) tournament() Candidate {
	picks := ga.rng.Sample(len(ga.population), ga.cfg.TournamentSize)
	winner := picks[0]
	for _, i := range picks[1:] {
		if better(ga.scores[i], ga.scores[winner], ga.cfg.Maximize) {
			winner = i
		}
	}
	return ga.population[winner].Clone()
}

// crossover swaps suffixes at a uniform split point in [1, L-1] with
// probability CrossoverRate. Parents are already copies, so they are
// returned as-is when no crossover happens.
func (ga *GeneticAlgorithm) crossover(a, b Candidate) (Candidate, Candidate) {
	length := ga.cfg.ChromosomeLength
	if length < 2 || ga.rng.Float64() >= ga.cfg.CrossoverRate {
		return a, b
	}
	point := 1 + ga.rng.Intn(length-1)
	c1 := make(Candidate, length)
	c2 := make(Candidate, length)
	copy(c1, a[:point])
	copy(c1[point:], b[point:])
	copy(c2, b[:point])
	copy(c2[point:], a[point:])
	return c1, c2
}

func (ga *GeneticAlgorithm) mutate(c Candidate) {
	for i := range c {
		if ga.rng.Float64() < ga.cfg.MutationRate {
			c.Flip(i)
		}
	}
}

// best returns the index and score of the fittest individual; the first
// occurrence wins ties.
func (ga *GeneticAlgorithm) best() (int, float64) {
	idx := 0
	for i := 1; i < len(ga.scores); i++ {
		if better(ga.scores[i], ga.scores[idx], ga.cfg.Maximize) {
			idx = i
		}
	}
	return idx, ga.scores[idx]
}
