package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cwbudde/bitsearch/internal/experiment"
	"github.com/cwbudde/bitsearch/internal/problem"
	"github.com/cwbudde/bitsearch/internal/store"
)

var (
	runCfg     = store.DefaultRunConfig()
	outPath    string
	saveRun    bool
	runDataDir string
	runBackend string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an experiment locally",
	Long: `Runs every selected algorithm for the configured number of seeded trials
and writes the comparison report to stdout or --out. Trial t uses seed+t.
With --save the run record and its history trace are persisted to --data-dir.`,
	RunE: runExperiment,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runCfg.Problem, "problem", runCfg.Problem, "Benchmark problem: "+strings.Join(problem.Names(), ", "))
	f.IntVar(&runCfg.Length, "length", runCfg.Length, "Chromosome length (knapsack always uses its 15 items)")
	f.StringSliceVar(&runCfg.Algorithms, "algorithms", runCfg.Algorithms, "Algorithms to compare: ga, beam, mayfly")
	f.IntVar(&runCfg.Trials, "trials", runCfg.Trials, "Trials per algorithm")
	f.Int64Var(&runCfg.Seed, "seed", runCfg.Seed, "Base random seed")

	f.IntVar(&runCfg.PopulationSize, "pop", runCfg.PopulationSize, "GA population size")
	f.IntVar(&runCfg.Generations, "generations", runCfg.Generations, "GA generations")
	f.Float64Var(&runCfg.CrossoverRate, "crossover", runCfg.CrossoverRate, "GA crossover rate")
	f.Float64Var(&runCfg.MutationRate, "mutation", runCfg.MutationRate, "GA per-gene mutation rate")
	f.IntVar(&runCfg.TournamentSize, "tournament", runCfg.TournamentSize, "GA tournament size")

	f.IntVar(&runCfg.BeamWidth, "beam-width", runCfg.BeamWidth, "Beam width")
	f.IntVar(&runCfg.BeamDepth, "beam-depth", runCfg.BeamDepth, "Beam depth (0 = derived from the length)")

	f.IntVar(&runCfg.MayflyIters, "mayfly-iters", runCfg.MayflyIters, "Mayfly iterations")
	f.IntVar(&runCfg.MayflyPop, "mayfly-pop", runCfg.MayflyPop, "Mayfly swarm size (at least 20)")

	f.StringVar(&outPath, "out", "", "Report output path (default stdout)")
	f.BoolVar(&saveRun, "save", false, "Persist the run record and history trace")
	f.StringVar(&runDataDir, "data-dir", "./data", "Base directory for saved runs")
	f.StringVar(&runBackend, "store", store.BackendFS, "Run store backend: fs, badger")

	rootCmd.AddCommand(runCmd)
}

func runExperiment(cmd *cobra.Command, args []string) error {
	cfg := runCfg
	cfg.Algorithms = slices.Clone(runCfg.Algorithms)
	cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Open the store first so a bad backend fails before the trials run
	var runStore store.Store
	if saveRun {
		s, err := store.Open(runBackend, runDataDir)
		if err != nil {
			return fmt.Errorf("failed to open run store: %w", err)
		}
		defer s.Close()
		runStore = s
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting experiment",
		"problem", cfg.Problem,
		"length", cfg.Length,
		"algorithms", cfg.Algorithms,
		"trials", cfg.Trials,
		"seed", cfg.Seed,
	)

	report, err := experiment.Run(ctx, cfg, func(p experiment.Progress) {
		slog.Debug("Progress", "algorithm", p.Algorithm, "trial", p.Trial, "step", p.Step, "best", p.Best)
	})
	if err != nil {
		return fmt.Errorf("experiment failed: %w", err)
	}
	text := report.Text()

	if outPath == "" {
		fmt.Print(text)
	} else {
		if err := os.WriteFile(outPath, []byte(text), 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Printf("Wrote %s\n", outPath)
	}

	if runStore != nil {
		id := uuid.New().String()
		if err := experiment.Save(runStore, runDataDir, id, report, text); err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		fmt.Printf("Saved run %s\n", id)
	}

	slog.Info("Experiment complete", "elapsed", report.Elapsed, "observation", report.Observation)
	return nil
}
