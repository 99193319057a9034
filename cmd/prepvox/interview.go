package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/prepvox/prepvox/internal/config"
	"github.com/prepvox/prepvox/internal/evaluate"
	"github.com/prepvox/prepvox/internal/interview"
	"github.com/prepvox/prepvox/internal/ollama"
	"github.com/prepvox/prepvox/internal/prep"
	"github.com/prepvox/prepvox/internal/session"
	"github.com/prepvox/prepvox/internal/speech"
	"github.com/prepvox/prepvox/internal/storage"
)

const (
	promptStartInterview = "Start the interview"
	promptBeginQuestions = "Begin the questions"
	promptStartRecording = "Start recording"
	promptContinue       = "Continue"
	promptRetryFeedback  = "Retry feedback"
	promptQuit           = "Quit"
)

var errQuit = errors.New("quit requested")

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run a full voice mock interview",
	Long: `Run a full voice mock interview: generate questions from a JD and
resume, ask each question aloud, record and transcribe your answers, then
score the session and print aggregated feedback.

Example:
  prepvox interview --jd ./posting.pdf --resume ./resume.pdf --role "Backend Engineer"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		setupLogging(cfg.Log.Level)

		jdPath, _ := cmd.Flags().GetString("jd")
		jdURL, _ := cmd.Flags().GetString("jd-url")
		resumePath, _ := cmd.Flags().GetString("resume")
		role, _ := cmd.Flags().GetString("role")
		mute, _ := cmd.Flags().GetBool("mute")

		if jdPath == "" && jdURL == "" {
			return fmt.Errorf("one of --jd or --jd-url is required")
		}
		if resumePath == "" {
			return fmt.Errorf("--resume is required")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		jd, resume, err := loadInputs(ctx, jdPath, jdURL, resumePath)
		if err != nil {
			return err
		}

		client := ollama.New(cfg.Ollama.BaseURL)
		if err := ollama.EnsureReady(ctx, client, os.Stderr, cfg.Ollama.Model, cfg.Ollama.EvalModel); err != nil {
			return err
		}

		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		planner := prep.NewPlanner(client, cfg.Ollama.Model)
		evaluator := evaluate.NewEvaluator(client, cfg.Ollama.EvalModel)
		sessions := session.NewManager(store, evaluator)

		var speaker speech.Speaker = speech.NewCommandSpeaker(cfg.Speech.SpeakCommand)
		if mute {
			speaker = speech.NopSpeaker{}
		}
		recorder := speech.NewCommandRecorder(cfg.Speech.RecordCommand, cfg.Speech.TranscribeCommand)

		machine := interview.NewMachine(sessions, speaker, recorder, cfg.Interview.RecordSeconds)

		opts := prep.Options{
			Technical:  cfg.Interview.Technical,
			Behavioral: cfg.Interview.Behavioral,
			Difficulty: cfg.Interview.Difficulty,
		}
		printStatus("Generating", "%d technical and %d behavioral questions", opts.Technical, opts.Behavioral)
		plan, err := planner.Build(ctx, jd, resume, opts)
		if err != nil {
			return err
		}
		if err := machine.SetQuestions(role, plan.Questions); err != nil {
			return err
		}

		err = runInterviewLoop(ctx, machine, plan.Questions, cfg.Interview.RecordSeconds)
		if errors.Is(err, errQuit) {
			fmt.Println("Interview abandoned.")
			return nil
		}
		return err
	},
}

func init() {
	interviewCmd.Flags().String("jd", "", "job description file (pdf, docx, html, or text)")
	interviewCmd.Flags().String("jd-url", "", "URL of a job posting to fetch")
	interviewCmd.Flags().String("resume", "", "resume file (pdf, docx, html, or text)")
	interviewCmd.Flags().String("role", "general", "role label stored with the session")
	interviewCmd.Flags().Bool("mute", false, "skip spoken playback of instructions and questions")
}

func runInterviewLoop(ctx context.Context, machine *interview.Machine, questions []string, recordSeconds int) error {
	// Review: show the question list and wait for the candidate.
	printHeading("Your interview questions:")
	for i, q := range questions {
		printQuestion(i+1, q)
	}

	choice, err := choose("Ready?", promptStartInterview, promptQuit)
	if err != nil {
		return err
	}
	if choice == promptQuit {
		return errQuit
	}
	if err := machine.Start(ctx); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(interview.InstructionText)
	fmt.Println()

	choice, err = choose("When you are ready", promptBeginQuestions, promptQuit)
	if err != nil {
		return err
	}
	if choice == promptQuit {
		machine.Reset()
		return errQuit
	}
	if err := machine.Begin(ctx); err != nil {
		return err
	}

	for machine.Phase() == interview.PhaseInterview {
		if q, ok := machine.CurrentQuestion(); ok {
			fmt.Println()
			printHeading("Question %d of %d", machine.QuestionIndex()+1, machine.TotalQuestions())
			fmt.Println(q)

			choice, err = choose("Answer?", promptStartRecording, promptQuit)
			if err != nil {
				return err
			}
			if choice == promptQuit {
				machine.Reset()
				return errQuit
			}

			printStatus("Recording", "up to %d seconds, speak now", recordSeconds)
			if err := machine.Record(ctx); err != nil {
				printError("recording failed: %v", err)
				continue
			}
			if t := machine.Transcript(); t != "" {
				printStatus("Heard", "%s", t)
			} else {
				printWarning("no speech transcribed, storing an empty answer")
			}

			choice, err = choose("Next", promptContinue, promptQuit)
			if err != nil {
				return err
			}
			if choice == promptQuit {
				machine.Reset()
				return errQuit
			}

			if err := machine.Advance(ctx); err != nil {
				printError("%v", err)
				// Finalization failed with the question list exhausted;
				// offer a retry before giving up.
				for machine.Phase() == interview.PhaseInterview {
					choice, cerr := choose("Feedback failed", promptRetryFeedback, promptQuit)
					if cerr != nil {
						return cerr
					}
					if choice == promptQuit {
						machine.Reset()
						return errQuit
					}
					if err := machine.Finish(ctx); err != nil {
						printError("%v", err)
						continue
					}
				}
			}
		}
	}

	printFeedback(machine)
	return nil
}

func printFeedback(machine *interview.Machine) {
	summary := machine.Summary()
	if summary == nil {
		return
	}

	fmt.Println()
	printHeading("Interview feedback")
	printStatus("Overall", "%.2f / 10", summary.OverallScore)
	printStatus("Clarity", "%.2f", summary.AvgClarity)
	printStatus("Confidence", "%.2f", summary.AvgConfidence)
	printStatus("Technical depth", "%.2f", summary.AvgTechnicalDepth)
	fmt.Println()
	fmt.Println(summary.Summary)

	if len(summary.Strengths) > 0 {
		fmt.Println()
		printHeading("Strengths")
		for _, s := range summary.Strengths {
			fmt.Printf("  + %s\n", s)
		}
	}
	if len(summary.Improvements) > 0 {
		fmt.Println()
		printHeading("Areas to improve")
		for _, s := range summary.Improvements {
			fmt.Printf("  - %s\n", s)
		}
	}

	if sess := machine.Session(); sess != nil {
		fmt.Println()
		printSuccess("Session saved as %s", sess.ID)
	}
}

func choose(label string, items ...string) (string, error) {
	sel := promptui.Select{
		Label: label,
		Items: items,
	}
	_, choice, err := sel.Run()
	if err != nil {
		return "", err
	}
	return choice, nil
}
