package experiment

import "math"

// ConvergenceConfig defines when a best-score history counts as stalled.
type ConvergenceConfig struct {
	// Patience is the number of steps with no significant improvement after
	// which the run is considered converged.
	Patience int

	// Threshold is the minimum relative improvement required to count as progress.
	// Relative improvement = |new - lastSignificant| / max(|lastSignificant|, 1)
	Threshold float64
}

// DefaultConvergenceConfig returns the settings used in reports.
func DefaultConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{
		Patience:  10,
		Threshold: 0.001,
	}
}

// ConvergenceTracker follows a best-score history step by step. It only
// observes; it never stops a search.
type ConvergenceTracker struct {
	config          ConvergenceConfig
	maximize        bool
	steps           int
	best            float64
	lastSignificant float64
	staleCount      int
	longestStall    int
	convergedAt     int
}

// NewConvergenceTracker creates a tracker for the given optimisation direction.
func NewConvergenceTracker(config ConvergenceConfig, maximize bool) *ConvergenceTracker {
	return &ConvergenceTracker{config: config, maximize: maximize}
}

// Update records the best score of the next step and returns true once the
// stale count has reached the configured patience.
func (c *ConvergenceTracker) Update(score float64) bool {
	c.steps++

	if c.steps == 1 {
		c.best = score
		c.lastSignificant = score
		return false
	}

	if c.improves(score, c.best) {
		c.best = score
	}

	gain := score - c.lastSignificant
	if !c.maximize {
		gain = -gain
	}
	scale := math.Max(math.Abs(c.lastSignificant), 1)

	if gain/scale >= c.config.Threshold {
		c.lastSignificant = score
		c.staleCount = 0
		return false
	}

	c.staleCount++
	c.longestStall = max(c.longestStall, c.staleCount)
	if c.staleCount >= c.config.Patience {
		if c.convergedAt == 0 {
			c.convergedAt = c.steps
		}
		return true
	}
	return false
}

func (c *ConvergenceTracker) improves(a, b float64) bool {
	if c.maximize {
		return a > b
	}
	return a < b
}

// Best returns the best score seen so far.
func (c *ConvergenceTracker) Best() float64 { return c.best }

// StaleCount returns the current number of steps without significant improvement.
func (c *ConvergenceTracker) StaleCount() int { return c.staleCount }

// Convergence summarises a best-score history.
type Convergence struct {
	// FirstBestAt is the step (from 1) at which the final best score was first reached.
	FirstBestAt int `json:"firstBestAt"`

	// LongestStall is the longest run of steps without significant improvement.
	LongestStall int `json:"longestStall"`

	// ConvergedAt is the step at which patience ran out, 0 if it never did.
	ConvergedAt int `json:"convergedAt"`
}

// Analyze runs a tracker over a whole history.
func Analyze(history []float64, maximize bool, config ConvergenceConfig) Convergence {
	if len(history) == 0 {
		return Convergence{}
	}

	tracker := NewConvergenceTracker(config, maximize)
	for _, s := range history {
		tracker.Update(s)
	}

	first := 0
	for i, s := range history {
		if s == tracker.Best() {
			first = i + 1
			break
		}
	}

	return Convergence{
		FirstBestAt:  first,
		LongestStall: tracker.longestStall,
		ConvergedAt:  tracker.convergedAt,
	}
}
