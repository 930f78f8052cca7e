package search

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countOnes is the bit-counting fitness.
var countOnes = ScoreFunc(func(c Candidate) float64 { return float64(c.Ones()) })

func TestGeneticAlgorithm_OneMaxImproves(t *testing.T) {
	cfg := DefaultGeneticConfig(20, 10)
	cfg.Seed = 1

	ga, err := NewGeneticAlgorithm(cfg, countOnes)
	require.NoError(t, err)

	res, err := ga.Run(20)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, res.BestFitness, 7.0)
	assert.LessOrEqual(t, res.BestFitness, 10.0)
	assert.Len(t, res.History, 20)
	assert.Len(t, res.Best, 10)
	assert.Equal(t, float64(res.Best.Ones()), res.BestFitness)
	assert.Equal(t, res.History[len(res.History)-1], res.BestFitness)
	assert.Equal(t, 20*21, res.Evaluations)
}

func TestGeneticAlgorithm_PopulationAndLengthInvariants(t *testing.T) {
	for _, n := range []int{1, 2, 3, 7, 20} {
		for _, length := range []int{0, 1, 2, 9} {
			cfg := GeneticConfig{
				PopulationSize:   n,
				ChromosomeLength: length,
				CrossoverRate:    0.9,
				MutationRate:     0.2,
				TournamentSize:   min(3, n),
				Maximize:         true,
				Seed:             int64(n*100 + length),
			}

			evaluated := 0
			checked := ScoreFunc(func(c Candidate) float64 {
				require.Len(t, c, length)
				evaluated++
				return float64(c.Ones())
			})

			ga, err := NewGeneticAlgorithm(cfg, checked)
			require.NoError(t, err)

			generations := 0
			ga.OnGeneration = func(g int, _ float64) {
				generations++
				require.Equal(t, generations, g)
				require.Len(t, ga.population, n)
			}

			res, err := ga.Run(6)
			require.NoError(t, err)
			assert.Equal(t, 6, generations)
			assert.Len(t, res.History, 6)
			assert.Equal(t, n*7, evaluated)

			pop := ga.Population()
			require.Len(t, pop, n)
			for _, c := range pop {
				assert.Len(t, c, length)
			}
		}
	}
}

func TestGeneticAlgorithm_Deterministic(t *testing.T) {
	cfg := DefaultGeneticConfig(30, 24)
	cfg.Seed = 42

	run := func() *GeneticResult {
		ga, err := NewGeneticAlgorithm(cfg, countOnes)
		require.NoError(t, err)
		res, err := ga.Run(15)
		require.NoError(t, err)
		return res
	}

	a, b := run(), run()
	assert.Equal(t, a.Best, b.Best)
	assert.Equal(t, a.BestFitness, b.BestFitness)
	assert.Equal(t, a.History, b.History)
}

func TestGeneticAlgorithm_ZeroGenerationsReturnsInitialBest(t *testing.T) {
	cfg := DefaultGeneticConfig(10, 8)
	cfg.Seed = 5

	ga, err := NewGeneticAlgorithm(cfg, countOnes)
	require.NoError(t, err)

	res, err := ga.Run(0)
	require.NoError(t, err)
	assert.Empty(t, res.History)
	assert.Len(t, res.Best, 8)
	assert.Equal(t, 10, res.Evaluations)

	best := 0
	for _, c := range ga.Population() {
		best = max(best, c.Ones())
	}
	assert.Equal(t, float64(best), res.BestFitness)
}

func TestGeneticAlgorithm_NoVariationOnlySelects(t *testing.T) {
	cfg := GeneticConfig{
		PopulationSize:   12,
		ChromosomeLength: 10,
		TournamentSize:   2,
		Maximize:         true,
		Seed:             9,
	}

	initial, err := NewGeneticAlgorithm(cfg, countOnes)
	require.NoError(t, err)
	_, err = initial.Run(0)
	require.NoError(t, err)
	start := initial.Population()

	ga, err := NewGeneticAlgorithm(cfg, countOnes)
	require.NoError(t, err)
	_, err = ga.Run(5)
	require.NoError(t, err)

	for _, c := range ga.Population() {
		found := false
		for _, s := range start {
			if c.Equal(s) {
				found = true
				break
			}
		}
		assert.True(t, found, "individual %s was not in the initial population", c)
	}
}

func TestGeneticAlgorithm_FullMutationComplements(t *testing.T) {
	cfg := GeneticConfig{
		PopulationSize:   1,
		ChromosomeLength: 6,
		MutationRate:     1,
		TournamentSize:   1,
		Maximize:         true,
		Seed:             11,
	}

	before, err := NewGeneticAlgorithm(cfg, countOnes)
	require.NoError(t, err)
	r0, err := before.Run(0)
	require.NoError(t, err)

	after, err := NewGeneticAlgorithm(cfg, countOnes)
	require.NoError(t, err)
	r1, err := after.Run(1)
	require.NoError(t, err)

	for i := range r0.Best {
		assert.Equal(t, 1-r0.Best[i], r1.Best[i])
	}
	assert.Equal(t, 6-r0.BestFitness, r1.BestFitness)
}

func TestGeneticAlgorithm_Minimize(t *testing.T) {
	cfg := DefaultGeneticConfig(20, 10)
	cfg.Maximize = false
	cfg.Seed = 3

	ga, err := NewGeneticAlgorithm(cfg, countOnes)
	require.NoError(t, err)
	res, err := ga.Run(25)
	require.NoError(t, err)

	assert.LessOrEqual(t, res.BestFitness, 3.0)
	for _, c := range ga.Population() {
		assert.GreaterOrEqual(t, float64(c.Ones()), res.BestFitness)
	}
}

func TestGeneticConfig_Validate(t *testing.T) {
	valid := DefaultGeneticConfig(10, 5)
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*GeneticConfig)
		field  string
	}{
		{"zero population", func(c *GeneticConfig) { c.PopulationSize = 0 }, "PopulationSize"},
		{"negative length", func(c *GeneticConfig) { c.ChromosomeLength = -1 }, "ChromosomeLength"},
		{"negative crossover", func(c *GeneticConfig) { c.CrossoverRate = -0.1 }, "CrossoverRate"},
		{"crossover above one", func(c *GeneticConfig) { c.CrossoverRate = 1.5 }, "CrossoverRate"},
		{"negative mutation", func(c *GeneticConfig) { c.MutationRate = -0.01 }, "MutationRate"},
		{"zero tournament", func(c *GeneticConfig) { c.TournamentSize = 0 }, "TournamentSize"},
		{"tournament exceeds population", func(c *GeneticConfig) { c.TournamentSize = 11 }, "TournamentSize"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			_, err := NewGeneticAlgorithm(cfg, countOnes)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))

			var ce *ConfigError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestGeneticAlgorithm_RejectsBadRunInput(t *testing.T) {
	_, err := NewGeneticAlgorithm(DefaultGeneticConfig(4, 4), nil)
	require.ErrorIs(t, err, ErrInvalidConfig)

	ga, err := NewGeneticAlgorithm(DefaultGeneticConfig(4, 4), countOnes)
	require.NoError(t, err)
	_, err = ga.Run(-1)
	require.ErrorIs(t, err, ErrInvalidConfig)
}
