package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// jobsTotal counts finished jobs by final state
	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bitsearch_jobs_total",
		Help: "Total finished jobs by final state",
	}, []string{"state"})

	// jobsRunning tracks jobs currently executing
	jobsRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bitsearch_jobs_running",
		Help: "Number of jobs currently running",
	})

	// jobDuration tracks wall time of completed jobs
	jobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bitsearch_job_duration_seconds",
		Help:    "Job duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4min
	})

	// trialDuration tracks per-trial runtime by algorithm
	trialDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bitsearch_trial_duration_seconds",
		Help:    "Trial duration in seconds by algorithm",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"algorithm"})

	// evaluationsTotal counts fitness evaluations by algorithm
	evaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bitsearch_evaluations_total",
		Help: "Total fitness evaluations by algorithm",
	}, []string{"algorithm"})
)
