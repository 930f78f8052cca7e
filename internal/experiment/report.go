package experiment

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// historyPreview is how many leading history entries a report shows.
const historyPreview = 15

// WriteText renders the report as plain text.
func WriteText(w io.Writer, r *Report) error {
	var b bytes.Buffer

	fmt.Fprintf(&b, "=== %s (length %d) ===\n", r.Problem, r.Length)
	if r.Optimum != nil {
		fmt.Fprintf(&b, "Theoretical optimum: %g\n", *r.Optimum)
	}
	fmt.Fprintf(&b, "Trials: %d  Seeds: %d..%d\n\n", r.Config.Trials, r.Config.Seed, r.Config.Seed+int64(r.Config.Trials)-1)

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ALGORITHM\tMEAN\tSTD\tMIN\tMAX\tFEASIBLE\tMEAN TIME\t% OPT")
	fmt.Fprintln(tw, "---------\t----\t---\t---\t---\t--------\t---------\t-----")
	for _, res := range r.Results {
		s := res.Summary
		pct := "-"
		if r.Optimum != nil {
			pct = fmt.Sprintf("%.1f", s.PercentOfOptimum)
		}
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%g\t%g\t%d/%d\t%s\t%s\n",
			s.Algorithm, s.Mean, s.Std, s.Min, s.Max, s.Feasible, s.Trials, s.MeanRuntime, pct)
	}
	tw.Flush()

	for _, res := range r.Results {
		fmt.Fprintf(&b, "\n--- %s ---\n", res.Algorithm)
		fmt.Fprintf(&b, "Best per trial: %s\n", formatScores(res.Trials))
		fmt.Fprintf(&b, "Best candidate: %s\n", res.Summary.Best)
		if len(res.Trials) > 0 && len(res.Trials[0].History) > 0 {
			h := res.Trials[0].History
			fmt.Fprintf(&b, "First %d history (trial 0): %s\n", min(historyPreview, len(h)), formatFloats(h[:min(historyPreview, len(h))]))
		}
		c := res.Convergence
		if c.FirstBestAt > 0 {
			fmt.Fprintf(&b, "Convergence: best first reached at step %d, longest stall %d", c.FirstBestAt, c.LongestStall)
			if c.ConvergedAt > 0 {
				fmt.Fprintf(&b, ", stalled from step %d", c.ConvergedAt)
			}
			b.WriteString("\n")
		}
	}

	if r.Observation != "" {
		fmt.Fprintf(&b, "\nObservation: %s\n", r.Observation)
	}

	_, err := w.Write(b.Bytes())
	return err
}

// Text returns the rendered report.
func (r *Report) Text() string {
	var b strings.Builder
	_ = WriteText(&b, r)
	return b.String()
}

func formatScores(trials []TrialResult) string {
	scores := make([]float64, len(trials))
	for i, t := range trials {
		scores[i] = t.Score
	}
	return formatFloats(scores)
}

func formatFloats(xs []float64) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprintf("%g", x)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
