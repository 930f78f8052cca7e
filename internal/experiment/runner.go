package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/bitsearch/internal/opt"
	"github.com/cwbudde/bitsearch/internal/problem"
	"github.com/cwbudde/bitsearch/internal/search"
	"github.com/cwbudde/bitsearch/internal/store"
)

// Config is the experiment configuration.
type Config = store.RunConfig

// Progress is reported after every step of every trial.
type Progress struct {
	Algorithm string  `json:"algorithm"`
	Trial     int     `json:"trial"`
	Step      int     `json:"generation"`
	Best      float64 `json:"best"`
}

// ProgressFunc receives progress updates. It is called from the goroutine
// running the experiment.
type ProgressFunc func(Progress)

// TrialResult is the outcome of one seeded run of one algorithm.
type TrialResult struct {
	Trial       int
	Seed        int64
	Best        search.Candidate
	Score       float64
	Feasible    bool
	History     []float64
	Evaluations int
	Runtime     time.Duration
}

// AlgorithmResult collects the trials of one algorithm.
type AlgorithmResult struct {
	Algorithm   string
	Trials      []TrialResult
	Summary     store.AlgorithmSummary
	Convergence Convergence
}

// Report is the full outcome of an experiment.
type Report struct {
	Config      Config
	Problem     string
	Length      int
	Maximize    bool
	Optimum     *float64
	Results     []AlgorithmResult
	Observation string
	Elapsed     time.Duration
}

// NewOptimizer builds the optimizer named by algorithm from cfg.
func NewOptimizer(algorithm string, cfg Config) (opt.Optimizer, error) {
	switch algorithm {
	case store.AlgorithmGA:
		g := opt.NewGenetic(cfg.PopulationSize, cfg.Generations)
		g.CrossoverRate = cfg.CrossoverRate
		g.MutationRate = cfg.MutationRate
		g.TournamentSize = cfg.TournamentSize
		return g, nil
	case store.AlgorithmBeam:
		return opt.NewBeam(cfg.BeamWidth, cfg.BeamDepth), nil
	case store.AlgorithmMayfly:
		return opt.NewMayfly(cfg.MayflyIters, cfg.MayflyPop), nil
	default:
		return nil, &store.ValidationError{Field: "Algorithms", Reason: fmt.Sprintf("unknown algorithm %q", algorithm)}
	}
}

// Run executes cfg.Trials seeded trials of every configured algorithm on
// the configured problem. Trial t uses seed cfg.Seed+t. The context is
// checked between trials; a cancelled experiment returns ctx.Err().
func Run(ctx context.Context, cfg Config, progress ProgressFunc) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid experiment config: %w", err)
	}

	p, err := problem.New(cfg.Problem, cfg.Length)
	if err != nil {
		return nil, fmt.Errorf("create problem: %w", err)
	}

	// knapsack fixes its own length
	cfg.Length = p.Length()

	report := &Report{
		Config:   cfg,
		Problem:  p.Name(),
		Length:   p.Length(),
		Maximize: p.Maximize(),
		Optimum:  optimumOf(p),
	}

	slog.Info("Starting experiment",
		"problem", report.Problem,
		"length", report.Length,
		"algorithms", cfg.Algorithms,
		"trials", cfg.Trials,
		"seed", cfg.Seed,
	)
	start := time.Now()

	for _, name := range cfg.Algorithms {
		o, err := NewOptimizer(name, cfg)
		if err != nil {
			return nil, err
		}

		result, err := runTrials(ctx, o, p, cfg, progress)
		if err != nil {
			return nil, err
		}
		result.Summary = summarize(result, report.Maximize, report.Optimum)
		result.Convergence = Analyze(bestTrial(result, report.Maximize).History, report.Maximize, DefaultConvergenceConfig())
		report.Results = append(report.Results, *result)

		slog.Info("Algorithm complete",
			"algorithm", name,
			"mean", result.Summary.Mean,
			"max", result.Summary.Max,
			"mean_runtime", result.Summary.MeanRuntime,
		)
	}

	report.Observation = observe(report)
	report.Elapsed = time.Since(start)

	slog.Info("Experiment complete", "elapsed", report.Elapsed)
	return report, nil
}

func runTrials(ctx context.Context, o opt.Optimizer, p problem.Problem, cfg Config, progress ProgressFunc) (*AlgorithmResult, error) {
	result := &AlgorithmResult{Algorithm: o.Name()}

	for t := 0; t < cfg.Trials; t++ {
		if err := ctx.Err(); err != nil {
			slog.Info("Experiment cancelled", "algorithm", o.Name(), "trial", t)
			return nil, err
		}

		var stepFn opt.ProgressFunc
		if progress != nil {
			trial := t
			stepFn = func(step int, best float64) {
				progress(Progress{Algorithm: o.Name(), Trial: trial, Step: step, Best: best})
			}
		}

		seed := cfg.Seed + int64(t)
		res, err := o.Run(p, seed, stepFn)
		if err != nil {
			return nil, fmt.Errorf("%s trial %d: %w", o.Name(), t, err)
		}

		slog.Debug("Trial complete",
			"algorithm", o.Name(),
			"trial", t,
			"seed", seed,
			"score", res.Score,
			"feasible", res.Feasible,
			"evaluations", res.Evaluations,
		)

		result.Trials = append(result.Trials, TrialResult{
			Trial:       t,
			Seed:        seed,
			Best:        res.Best,
			Score:       res.Score,
			Feasible:    res.Feasible,
			History:     res.History,
			Evaluations: res.Evaluations,
			Runtime:     res.Elapsed,
		})
	}
	return result, nil
}

// optimumOf returns the known optimum, or nil when the problem has no oracle
// or the oracle cannot answer (brute force on too many items).
func optimumOf(p problem.Problem) *float64 {
	oracle, ok := p.(problem.Oracle)
	if !ok {
		return nil
	}
	v, _, err := oracle.Optimum()
	if err != nil {
		slog.Debug("No optimum available", "problem", p.Name(), "error", err)
		return nil
	}
	return &v
}

func bestTrial(r *AlgorithmResult, maximize bool) TrialResult {
	best := r.Trials[0]
	for _, t := range r.Trials[1:] {
		if (maximize && t.Score > best.Score) || (!maximize && t.Score < best.Score) {
			best = t
		}
	}
	return best
}

// Record converts the report into a persistable run record.
func (r *Report) Record(id, text string) *store.RunRecord {
	summaries := make([]store.AlgorithmSummary, len(r.Results))
	for i, res := range r.Results {
		summaries[i] = res.Summary
	}
	return store.NewRunRecord(id, r.Config, r.Optimum, summaries, text)
}
