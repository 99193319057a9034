package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/prepvox/prepvox/internal/api"
	"github.com/prepvox/prepvox/internal/config"
	"github.com/prepvox/prepvox/internal/evaluate"
	"github.com/prepvox/prepvox/internal/metrics"
	"github.com/prepvox/prepvox/internal/ollama"
	"github.com/prepvox/prepvox/internal/prep"
	"github.com/prepvox/prepvox/internal/session"
	"github.com/prepvox/prepvox/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the prepvox HTTP server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "prepvox version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Check Ollama readiness.
	client := ollama.New(cfg.Ollama.BaseURL)
	if err := ollama.EnsureReady(ctx, client, os.Stderr, cfg.Ollama.Model, cfg.Ollama.EvalModel); err != nil {
		return err
	}

	// Open storage.
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	// Build HTTP handler and server.
	evaluator := evaluate.NewEvaluator(client, cfg.Ollama.EvalModel)
	handler := api.NewHandler(api.Deps{
		Store:    store,
		Sessions: session.NewManager(store, evaluator),
		Planner:  prep.NewPlanner(client, cfg.Ollama.Model),
		Metrics:  metrics.New(),
		Defaults: cfg.Interview,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Start server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "prepvox listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for signal or server error.
	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
