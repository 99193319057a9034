package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/prepvox/prepvox/internal/config"
	"github.com/prepvox/prepvox/internal/storage"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect stored interview sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		sessions, err := store.ListSessions(limit)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}

		for _, s := range sessions {
			fmt.Printf("%s  %s  %-24s  %d questions  score %.2f\n",
				colorize(colorCyan, s.ID[:8]),
				s.CreatedAt.Local().Format(time.DateTime),
				s.Role,
				s.TotalQuestions,
				s.OverallScore,
			)
		}
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one session as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		doc, err := store.GetSessionDocument(args[0])
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(append(doc, '\n'))
		return err
	},
}

var sessionsExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export one session to a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		doc, err := store.GetSessionDocument(args[0])
		if err != nil {
			return err
		}

		if output == "" {
			output = fmt.Sprintf("session_%s.json", args[0])
		}
		if err := os.WriteFile(output, doc, 0o644); err != nil {
			return fmt.Errorf("writing export file: %w", err)
		}

		printSuccess("Session exported to %s", output)
		return nil
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one stored session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.DeleteSession(args[0]); err != nil {
			return err
		}
		printSuccess("Deleted session %s", args[0])
		return nil
	},
}

func init() {
	sessionsListCmd.Flags().Int("limit", 20, "maximum number of sessions to list")
	sessionsExportCmd.Flags().String("output", "", "output file path (default: session_<id>.json)")
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsExportCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
}

func openStore() (*storage.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	setupLogging(cfg.Log.Level)
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	return store, nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	},
}
