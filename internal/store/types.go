package store

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/cwbudde/bitsearch/internal/problem"
)

// runValidate is the validator instance for run configurations.
// Initialized in init() with the problem registry check.
var runValidate *validator.Validate

func init() {
	runValidate = validator.New()

	// "problem" accepts any name known to the problem registry
	_ = runValidate.RegisterValidation("problem", func(fl validator.FieldLevel) bool {
		return slices.Contains(problem.Names(), fl.Field().String())
	})
}

// Algorithm names accepted in RunConfig.Algorithms.
const (
	AlgorithmGA     = "ga"
	AlgorithmBeam   = "beam"
	AlgorithmMayfly = "mayfly"
)

// RunConfig holds the configuration for one experiment. It is shared by the
// CLI, the job server and persisted run records.
type RunConfig struct {
	Problem    string   `json:"problem" validate:"required,problem"`
	Length     int      `json:"length" validate:"gte=1,lte=4096"` // ignored by knapsack
	Algorithms []string `json:"algorithms" validate:"required,min=1,max=3,unique,dive,oneof=ga beam mayfly"`
	Trials     int      `json:"trials" validate:"gte=1,lte=1000"`
	Seed       int64    `json:"seed"`

	PopulationSize int     `json:"populationSize" validate:"gte=1"`
	Generations    int     `json:"generations" validate:"gte=0"`
	CrossoverRate  float64 `json:"crossoverRate" validate:"gte=0,lte=1"`
	MutationRate   float64 `json:"mutationRate" validate:"gte=0,lte=1"`
	TournamentSize int     `json:"tournamentSize" validate:"gte=1,ltefield=PopulationSize"`

	BeamWidth int `json:"beamWidth" validate:"gte=1"`
	BeamDepth int `json:"beamDepth,omitempty" validate:"gte=0"` // 0 derives the depth from the length

	MayflyIters int `json:"mayflyIters,omitempty" validate:"gte=0"`
	MayflyPop   int `json:"mayflyPop,omitempty" validate:"omitempty,gte=20"`
}

// DefaultRunConfig returns the configuration used when nothing is overridden.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Problem:        "onemax",
		Length:         20,
		Algorithms:     []string{AlgorithmGA, AlgorithmBeam},
		Trials:         5,
		Seed:           42,
		PopulationSize: 50,
		Generations:    100,
		CrossoverRate:  0.8,
		MutationRate:   0.01,
		TournamentSize: 3,
		BeamWidth:      10,
		MayflyIters:    100,
		MayflyPop:      20,
	}
}

// Defaults fills zero-valued structural fields from DefaultRunConfig.
// Rates and seed are left alone since zero is a legal value for them.
func (c *RunConfig) Defaults() {
	d := DefaultRunConfig()
	if c.Problem == "" {
		c.Problem = d.Problem
	}
	if c.Length == 0 {
		c.Length = d.Length
	}
	if len(c.Algorithms) == 0 {
		c.Algorithms = d.Algorithms
	}
	if c.Trials == 0 {
		c.Trials = d.Trials
	}
	if c.PopulationSize == 0 {
		c.PopulationSize = d.PopulationSize
	}
	if c.TournamentSize == 0 {
		c.TournamentSize = min(d.TournamentSize, c.PopulationSize)
	}
	if c.BeamWidth == 0 {
		c.BeamWidth = d.BeamWidth
	}
	if c.MayflyIters == 0 {
		c.MayflyIters = d.MayflyIters
	}
	if c.MayflyPop == 0 {
		c.MayflyPop = d.MayflyPop
	}
}

// Validate checks the configuration against its validate tags and returns
// the first violation as a *ValidationError.
func (c *RunConfig) Validate() error {
	err := runValidate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		reason := "failed " + fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		return &ValidationError{Field: fe.StructField(), Reason: reason}
	}
	return fmt.Errorf("validate run config: %w", err)
}

// HasAlgorithm reports whether name is among the configured algorithms.
func (c *RunConfig) HasAlgorithm(name string) bool {
	return slices.Contains(c.Algorithms, name)
}

// AlgorithmSummary aggregates the trials of one algorithm.
type AlgorithmSummary struct {
	Algorithm string  `json:"algorithm"`
	Trials    int     `json:"trials"`
	Mean      float64 `json:"mean"`
	Std       float64 `json:"std"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`

	// MeanRuntime is serialised in nanoseconds.
	MeanRuntime time.Duration `json:"meanRuntime"`

	// Feasible counts trials whose best candidate satisfied the constraints.
	Feasible int `json:"feasible"`

	// PercentOfOptimum is Max relative to the known optimum; zero when the
	// problem has no oracle.
	PercentOfOptimum float64 `json:"percentOfOptimum,omitempty"`

	// Best is the best candidate over all trials as a 0/1 string.
	Best string `json:"best"`
}

// RunRecord is a finished experiment as it is persisted. Only results are
// stored, never search state.
type RunRecord struct {
	// ID is the unique identifier for this run
	ID string `json:"id"`

	CreatedAt time.Time `json:"createdAt"`

	Config RunConfig `json:"config"`

	// Optimum is the known optimum of the problem, if any.
	Optimum *float64 `json:"optimum,omitempty"`

	Summaries []AlgorithmSummary `json:"summaries"`

	// Report is the rendered text report.
	Report string `json:"report"`
}

// RunInfo contains metadata about a run without its report text.
type RunInfo struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	Problem    string    `json:"problem"`
	Length     int       `json:"length"`
	Algorithms []string  `json:"algorithms"`
	Trials     int       `json:"trials"`

	// Size is the stored size of the record in bytes.
	Size int64 `json:"size"`
}

// NewRunRecord creates a record stamped with the current time.
func NewRunRecord(id string, config RunConfig, optimum *float64, summaries []AlgorithmSummary, report string) *RunRecord {
	return &RunRecord{
		ID:        id,
		CreatedAt: time.Now(),
		Config:    config,
		Optimum:   optimum,
		Summaries: summaries,
		Report:    report,
	}
}

// ToInfo converts a full RunRecord to RunInfo. size is supplied by the store.
func (r *RunRecord) ToInfo(size int64) RunInfo {
	return RunInfo{
		ID:         r.ID,
		CreatedAt:  r.CreatedAt,
		Problem:    r.Config.Problem,
		Length:     r.Config.Length,
		Algorithms: r.Config.Algorithms,
		Trials:     r.Config.Trials,
		Size:       size,
	}
}

// Validate checks if the record has valid data.
func (r *RunRecord) Validate() error {
	if r.ID == "" {
		return &ValidationError{Field: "ID", Reason: "cannot be empty"}
	}
	if r.CreatedAt.IsZero() {
		return &ValidationError{Field: "CreatedAt", Reason: "cannot be zero"}
	}
	if err := r.Config.Validate(); err != nil {
		return err
	}
	if len(r.Summaries) != len(r.Config.Algorithms) {
		return &ValidationError{
			Field:  "Summaries",
			Reason: fmt.Sprintf("expected %d summaries, got %d", len(r.Config.Algorithms), len(r.Summaries)),
		}
	}
	for i, s := range r.Summaries {
		if s.Algorithm != r.Config.Algorithms[i] {
			return &ValidationError{Field: "Summaries", Reason: fmt.Sprintf("entry %d is %q, expected %q", i, s.Algorithm, r.Config.Algorithms[i])}
		}
		if s.Trials != r.Config.Trials {
			return &ValidationError{Field: "Summaries", Reason: fmt.Sprintf("entry %d has %d trials, expected %d", i, s.Trials, r.Config.Trials)}
		}
	}
	return nil
}

// ValidationError represents a configuration or record validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
