package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/bitsearch/internal/server"
	"github.com/cwbudde/bitsearch/internal/store"
)

var (
	serveAddr    string
	serveDataDir string
	serveBackend string
	shutdownWait time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP job server",
	Long: `Starts an HTTP server that runs experiments as background jobs.

Endpoints:
  POST /api/v1/jobs              submit an experiment (JSON run config)
  GET  /api/v1/jobs              list jobs
  GET  /api/v1/jobs/{id}/status  job status and progress
  GET  /api/v1/jobs/{id}/stream  progress as server-sent events
  GET  /api/v1/jobs/{id}/report  text report of a finished run
  POST /api/v1/jobs/{id}/cancel  cancel a running job
  GET  /metrics                  Prometheus metrics`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "./data", "Base directory for finished runs")
	serveCmd.Flags().StringVar(&serveBackend, "store", store.BackendFS, "Run store backend: fs, badger")
	serveCmd.Flags().DurationVar(&shutdownWait, "shutdown-timeout", 10*time.Second, "Grace period for in-flight requests and jobs")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	runStore, err := store.Open(serveBackend, serveDataDir)
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}
	defer runStore.Close()

	srv := server.NewServer(serveAddr, runStore, serveDataDir)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Received shutdown signal")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return <-errCh
}
