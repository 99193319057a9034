package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/prepvox/prepvox/internal/api"
	"github.com/prepvox/prepvox/internal/config"
	"github.com/prepvox/prepvox/internal/ollama"
	"github.com/prepvox/prepvox/internal/prep"
	"github.com/prepvox/prepvox/internal/storage"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the MCP interface over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		setupLogging(cfg.Log.Level)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		client := ollama.New(cfg.Ollama.BaseURL)
		mcpSrv := api.NewMCPServer(api.MCPDeps{
			Store:      store,
			Planner:    prep.NewPlanner(client, cfg.Ollama.Model),
			Technical:  cfg.Interview.Technical,
			Behavioral: cfg.Interview.Behavioral,
			Difficulty: cfg.Interview.Difficulty,
		})

		slog.Info("MCP server started (stdio transport)")
		stdioSrv := server.NewStdioServer(mcpSrv)
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
