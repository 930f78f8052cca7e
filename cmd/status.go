package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/bitsearch/internal/server"
)

var (
	serverURL string
)

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Query server status or specific job",
	Long: `Queries the server for job status information.
If no job-id is provided, lists all jobs.
If job-id is provided, shows detailed status for that job.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	base := strings.TrimSuffix(serverURL, "/")
	if len(args) == 0 {
		return listJobs(base + "/api/v1/jobs")
	}
	jobID := args[0]
	return getJobStatus(fmt.Sprintf("%s/api/v1/jobs/%s/status", base, jobID), jobID)
}

func fetchJSON(url string, v any) (int, error) {
	resp, err := http.Get(url)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, fmt.Errorf("server returned error: %s", strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func listJobs(url string) error {
	var jobs []server.Job
	if _, err := fetchJSON(url, &jobs); err != nil {
		return err
	}

	if len(jobs) == 0 {
		fmt.Println("No jobs found")
		return nil
	}

	fmt.Printf("Found %d job(s):\n\n", len(jobs))
	for _, job := range jobs {
		fmt.Printf("Job ID: %s\n", job.ID)
		fmt.Printf("  State: %s\n", job.State)
		fmt.Printf("  Problem: %s (length %d)\n", job.Config.Problem, job.Config.Length)
		fmt.Printf("  Algorithms: %s\n", strings.Join(job.Config.Algorithms, ", "))
		if job.Algorithm != "" {
			fmt.Printf("  Progress: %s trial %d, step %d, best %g\n", job.Algorithm, job.Trial, job.Generation, job.Best)
		}
		fmt.Println()
	}

	return nil
}

func getJobStatus(url, jobID string) error {
	var job server.Job
	code, err := fetchJSON(url, &job)
	if code == http.StatusNotFound {
		return fmt.Errorf("job not found: %s", jobID)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Job: %s\n", job.ID)
	fmt.Printf("State: %s\n", job.State)
	fmt.Println()

	cfg := job.Config
	fmt.Println("Configuration:")
	fmt.Printf("  Problem: %s\n", cfg.Problem)
	fmt.Printf("  Length: %d\n", cfg.Length)
	fmt.Printf("  Algorithms: %s\n", strings.Join(cfg.Algorithms, ", "))
	fmt.Printf("  Trials: %d (seed %d)\n", cfg.Trials, cfg.Seed)
	fmt.Printf("  GA: population %d, generations %d, crossover %g, mutation %g, tournament %d\n",
		cfg.PopulationSize, cfg.Generations, cfg.CrossoverRate, cfg.MutationRate, cfg.TournamentSize)
	fmt.Printf("  Beam: width %d, depth %d\n", cfg.BeamWidth, cfg.BeamDepth)
	fmt.Println()

	if job.Algorithm != "" {
		fmt.Println("Progress:")
		fmt.Printf("  Algorithm: %s\n", job.Algorithm)
		fmt.Printf("  Trial: %d of %d\n", job.Trial+1, cfg.Trials)
		fmt.Printf("  Step: %d\n", job.Generation)
		fmt.Printf("  Best: %g\n", job.Best)
	}

	end := time.Now()
	if job.EndTime != nil {
		end = *job.EndTime
	}
	if !job.StartTime.IsZero() {
		fmt.Printf("  Elapsed: %s\n", end.Sub(job.StartTime).Round(time.Millisecond))
	}

	if len(job.Summaries) > 0 {
		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ALGORITHM\tMEAN\tSTD\tMIN\tMAX\tFEASIBLE")
		for _, s := range job.Summaries {
			fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%g\t%g\t%d/%d\n", s.Algorithm, s.Mean, s.Std, s.Min, s.Max, s.Feasible, s.Trials)
		}
		w.Flush()
	}

	if job.Error != "" {
		fmt.Printf("\nError: %s\n", job.Error)
	}

	return nil
}
