package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/bitsearch/internal/experiment"
	"github.com/cwbudde/bitsearch/internal/store"
)

// runJob executes an experiment job in the background. When runStore is
// not nil the finished run is persisted; when dataDir is set the histories
// are written to the run's trace.jsonl.
func runJob(ctx context.Context, jm *JobManager, runStore store.Store, dataDir string, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
	})
	if err != nil {
		return err
	}
	jobsRunning.Inc()
	defer jobsRunning.Dec()

	slog.Info("Starting job", "job_id", jobID, "problem", job.Config.Problem, "algorithms", job.Config.Algorithms)

	progressDone := make(chan struct{})
	monitorExited := make(chan struct{})
	go func() {
		defer close(monitorExited)
		monitorProgress(ctx, jm, jobID, progressDone)
	}()

	start := time.Now()
	report, err := experiment.Run(ctx, job.Config, func(p experiment.Progress) {
		jm.UpdateJob(jobID, func(j *Job) {
			j.Algorithm = p.Algorithm
			j.Trial = p.Trial
			j.Generation = p.Step
			j.Best = p.Best
		})
	})
	close(progressDone)
	<-monitorExited
	elapsed := time.Since(start)

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		markJobCancelled(jm, jobID)
		return err
	}
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	for _, res := range report.Results {
		for _, t := range res.Trials {
			trialDuration.WithLabelValues(res.Algorithm).Observe(t.Runtime.Seconds())
			evaluationsTotal.WithLabelValues(res.Algorithm).Add(float64(t.Evaluations))
		}
	}

	text := report.Text()
	if err := experiment.Save(runStore, dataDir, jobID, report, text); err != nil {
		// the job itself succeeded; keep the result in memory
		slog.Error("Failed to persist run", "job_id", jobID, "error", err)
	}

	endTime := time.Now()
	summaries := report.Record(jobID, text).Summaries
	err = jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.Summaries = summaries
		j.Report = text
		j.EndTime = &endTime
	})
	if err != nil {
		return err
	}

	jobsTotal.WithLabelValues(string(StateCompleted)).Inc()
	jobDuration.Observe(elapsed.Seconds())

	slog.Info("Job completed",
		"job_id", jobID,
		"elapsed", elapsed,
		"observation", report.Observation,
	)

	final, _ := jm.GetJob(jobID)
	jm.broadcaster.Broadcast(eventFor(final))
	return nil
}

// monitorProgress periodically broadcasts progress events while the job runs
func monitorProgress(ctx context.Context, jm *JobManager, jobID string, done chan struct{}) {
	ticker := time.NewTicker(jm.progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, exists := jm.GetJob(jobID)
			if !exists {
				return
			}
			jm.broadcaster.Broadcast(eventFor(job))
		}
	}
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	jobsTotal.WithLabelValues(string(StateFailed)).Inc()
	slog.Error("Job failed", "job_id", jobID, "error", err)

	if job, ok := jm.GetJob(jobID); ok {
		jm.broadcaster.Broadcast(eventFor(job))
	}
}

// markJobCancelled marks a job as cancelled
func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	jobsTotal.WithLabelValues(string(StateCancelled)).Inc()
	slog.Info("Job cancelled", "job_id", jobID)

	if job, ok := jm.GetJob(jobID); ok {
		jm.broadcaster.Broadcast(eventFor(job))
	}
}
