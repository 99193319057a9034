package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/prepvox/prepvox/internal/config"
	"github.com/prepvox/prepvox/internal/docload"
	"github.com/prepvox/prepvox/internal/ollama"
	"github.com/prepvox/prepvox/internal/prep"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate tailored interview questions from a JD and resume",
	Long: `Generate tailored interview questions from a job description and resume.

Examples:
  prepvox generate --jd ./posting.pdf --resume ./resume.pdf
  prepvox generate --jd-url https://example.com/job --resume ./resume.docx --technical 6
  prepvox generate --jd ./posting.txt --resume ./resume.txt --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		setupLogging(cfg.Log.Level)

		jdPath, _ := cmd.Flags().GetString("jd")
		jdURL, _ := cmd.Flags().GetString("jd-url")
		resumePath, _ := cmd.Flags().GetString("resume")
		asJSON, _ := cmd.Flags().GetBool("json")
		showRaw, _ := cmd.Flags().GetBool("raw")

		if jdPath == "" && jdURL == "" {
			return fmt.Errorf("one of --jd or --jd-url is required")
		}
		if resumePath == "" {
			return fmt.Errorf("--resume is required")
		}

		opts := prep.Options{
			Technical:  cfg.Interview.Technical,
			Behavioral: cfg.Interview.Behavioral,
			Difficulty: cfg.Interview.Difficulty,
		}
		if cmd.Flags().Changed("technical") {
			opts.Technical, _ = cmd.Flags().GetInt("technical")
		}
		if cmd.Flags().Changed("behavioral") {
			opts.Behavioral, _ = cmd.Flags().GetInt("behavioral")
		}
		if cmd.Flags().Changed("difficulty") {
			opts.Difficulty, _ = cmd.Flags().GetString("difficulty")
		}
		opts.IncludeAnswers, _ = cmd.Flags().GetBool("include-answers")
		opts.Strict, _ = cmd.Flags().GetBool("strict")

		ctx := cmd.Context()
		jd, resume, err := loadInputs(ctx, jdPath, jdURL, resumePath)
		if err != nil {
			return err
		}

		client := ollama.New(cfg.Ollama.BaseURL)
		if err := ollama.EnsureReady(ctx, client, os.Stderr, cfg.Ollama.Model); err != nil {
			return err
		}

		planner := prep.NewPlanner(client, cfg.Ollama.Model)
		plan, err := planner.Build(ctx, jd, resume, opts)
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(plan)
		}

		if showRaw {
			fmt.Println(plan.RawOutput)
			return nil
		}

		printHeading("Questions (%d of %d requested):", plan.Extracted, plan.Requested)
		for i, q := range plan.Questions {
			printQuestion(i+1, q)
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().String("jd", "", "job description file (pdf, docx, html, or text)")
	generateCmd.Flags().String("jd-url", "", "URL of a job posting to fetch")
	generateCmd.Flags().String("resume", "", "resume file (pdf, docx, html, or text)")
	generateCmd.Flags().Int("technical", 0, "number of technical questions")
	generateCmd.Flags().Int("behavioral", 0, "number of behavioral questions")
	generateCmd.Flags().String("difficulty", "", "target difficulty: mixed, easy, medium, or hard")
	generateCmd.Flags().Bool("include-answers", false, "ask the model for suggested answers in the raw report")
	generateCmd.Flags().Bool("strict", false, "fail when the model produces the wrong question count")
	generateCmd.Flags().Bool("json", false, "print the full plan as JSON")
	generateCmd.Flags().Bool("raw", false, "print the raw model report instead of the question list")
}

// loadInputs extracts the JD and resume texts in parallel.
func loadInputs(ctx context.Context, jdPath, jdURL, resumePath string) (string, string, error) {
	var jd, resume string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if jdURL != "" {
			httpClient := &http.Client{Timeout: 30 * time.Second}
			jd, err = docload.FetchURL(gctx, httpClient, jdURL)
		} else {
			jd, err = docload.LoadFile(jdPath)
		}
		return tolerateDegraded("job description", &jd, err)
	})
	g.Go(func() error {
		var err error
		resume, err = docload.LoadFile(resumePath)
		return tolerateDegraded("resume", &resume, err)
	})
	if err := g.Wait(); err != nil {
		return "", "", err
	}
	return jd, resume, nil
}

// tolerateDegraded keeps partially extracted text with a warning; extraction
// that recovered nothing stays fatal.
func tolerateDegraded(label string, text *string, err error) error {
	var degraded *docload.DegradedError
	if errors.As(err, &degraded) && degraded.Partial != "" {
		printWarning("partial %s extraction: %v", label, degraded.Err)
		*text = degraded.Partial
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading %s: %w", label, err)
	}
	return nil
}
