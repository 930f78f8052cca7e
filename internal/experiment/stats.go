package experiment

import (
	"fmt"
	"math"
	"time"

	"github.com/cwbudde/bitsearch/internal/store"
)

// nearOptimal is the fraction of the optimum above which every algorithm
// counts as having solved the problem.
const nearOptimal = 0.95

// summarize aggregates the trials of one algorithm. Std is the population
// standard deviation.
func summarize(r *AlgorithmResult, maximize bool, optimum *float64) store.AlgorithmSummary {
	n := len(r.Trials)
	s := store.AlgorithmSummary{
		Algorithm: r.Algorithm,
		Trials:    n,
		Min:       math.Inf(1),
		Max:       math.Inf(-1),
	}

	var sum float64
	var runtime time.Duration
	for _, t := range r.Trials {
		sum += t.Score
		s.Min = math.Min(s.Min, t.Score)
		s.Max = math.Max(s.Max, t.Score)
		runtime += t.Runtime
		if t.Feasible {
			s.Feasible++
		}
	}
	s.Mean = sum / float64(n)
	s.MeanRuntime = runtime / time.Duration(n)

	var sq float64
	for _, t := range r.Trials {
		d := t.Score - s.Mean
		sq += d * d
	}
	s.Std = math.Sqrt(sq / float64(n))

	best := bestTrial(r, maximize)
	s.Best = best.Best.String()

	if optimum != nil {
		s.PercentOfOptimum = percentOf(best.Score, *optimum, maximize)
	}
	return s
}

// percentOf expresses score relative to the optimum. For minimisation the
// ratio is inverted so 100 still means optimal.
func percentOf(score, optimum float64, maximize bool) float64 {
	if maximize {
		if optimum == 0 {
			return 0
		}
		return 100 * score / optimum
	}
	if score == 0 {
		return 0
	}
	return 100 * optimum / score
}

// observe produces the one-line verdict closing a report.
func observe(r *Report) string {
	if len(r.Results) == 0 {
		return ""
	}
	if len(r.Results) == 1 {
		s := r.Results[0].Summary
		if r.Optimum != nil {
			return fmt.Sprintf("%s reached %.1f%% of the optimum.", s.Algorithm, s.PercentOfOptimum)
		}
		return fmt.Sprintf("%s reached a best score of %g.", s.Algorithm, s.Max)
	}

	sameMean := true
	for _, res := range r.Results[1:] {
		if res.Summary.Mean != r.Results[0].Summary.Mean {
			sameMean = false
		}
	}

	if r.Optimum != nil {
		optimal, near := true, true
		for _, res := range r.Results {
			if res.Summary.Mean != *r.Optimum {
				optimal = false
			}
			if res.Summary.PercentOfOptimum < 100*nearOptimal {
				near = false
			}
		}
		if optimal {
			return "All algorithms consistently reach the global optimum."
		}
		if near {
			return "All algorithms reached near-optimal solutions."
		}
	} else if sameMean {
		return "All algorithms reached the same mean score."
	}

	lead := r.Results[0].Summary
	for _, res := range r.Results[1:] {
		if (r.Maximize && res.Summary.Mean > lead.Mean) || (!r.Maximize && res.Summary.Mean < lead.Mean) {
			lead = res.Summary
		}
	}
	return fmt.Sprintf("%s performed best in this configuration (mean %.4f).", lead.Algorithm, lead.Mean)
}
