// Package prep turns a job description and resume into an interview plan:
// prompt composition, question generation, and count policy.
package prep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prepvox/prepvox/internal/question"
)

// ErrEmptyInput indicates a missing job description or resume. It blocks
// progress before any generation or session side effect.
var ErrEmptyInput = errors.New("job description and resume text are both required")

// CountMismatchError reports that the model produced a different number of
// numbered questions than requested. Returned only in strict mode; otherwise
// the planner truncates (or keeps the shortfall) with a logged warning.
type CountMismatchError struct {
	Requested int
	Extracted int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("model produced %d questions, expected %d", e.Extracted, e.Requested)
}

// Options controls question generation.
type Options struct {
	Technical      int
	Behavioral     int
	Difficulty     string
	IncludeAnswers bool
	Strict         bool
}

// Requested returns the total number of questions asked of the model.
func (o Options) Requested() int {
	return o.Technical + o.Behavioral
}

// Plan is the outcome of one generation run.
type Plan struct {
	RawOutput string   `json:"raw_output"`
	Questions []string `json:"questions"`
	Requested int      `json:"requested"`
	Extracted int      `json:"extracted"`
}

// TextGenerator is the interface for free-form completion against the local model.
type TextGenerator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Planner generates tailored interview questions from a JD/resume pair.
type Planner struct {
	client TextGenerator
	model  string
	logger *slog.Logger
}

// NewPlanner creates a Planner using the given generation client and model name.
func NewPlanner(client TextGenerator, model string) *Planner {
	return &Planner{client: client, model: model, logger: slog.Default()}
}

// Build generates the interview-prep report and extracts the question list.
// When the extracted count differs from the requested count, strict mode fails
// with a *CountMismatchError; otherwise over-production is truncated to the
// requested count and under-production is kept as-is, both with a warning.
func (p *Planner) Build(ctx context.Context, jd, resume string, opts Options) (Plan, error) {
	if strings.TrimSpace(jd) == "" || strings.TrimSpace(resume) == "" {
		return Plan{}, ErrEmptyInput
	}

	prompt := BuildPrompt(jd, resume, opts)
	raw, err := p.client.Generate(ctx, p.model, prompt)
	if err != nil {
		return Plan{}, fmt.Errorf("generating interview questions: %w", err)
	}

	questions := question.Extract(raw)
	plan := Plan{
		RawOutput: raw,
		Questions: questions,
		Requested: opts.Requested(),
		Extracted: len(questions),
	}

	if plan.Extracted != plan.Requested {
		if opts.Strict {
			return Plan{}, &CountMismatchError{Requested: plan.Requested, Extracted: plan.Extracted}
		}
		p.logger.Warn("question count mismatch",
			"requested", plan.Requested,
			"extracted", plan.Extracted,
		)
		if plan.Extracted > plan.Requested {
			plan.Questions = plan.Questions[:plan.Requested]
		}
	}

	return plan, nil
}
