// Package search holds the two heuristic engines for fixed-length binary
// decision vectors: a generational genetic algorithm and beam search, the
// latter in a successor-based form and a bound-guided constructive form.
//
// Engines know nothing about the problem they optimise. Problem-specific
// logic arrives through the Scorer, Expander, BoundEstimator and
// FeasibilityChecker interfaces. Each engine owns its RandomStream, so runs
// are reproducible for a fixed seed and independent engines never share
// random state.
package search
