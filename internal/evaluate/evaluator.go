// Package evaluate scores a single interview answer via a local model.
package evaluate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/prepvox/prepvox/internal/ollama"
	"github.com/prepvox/prepvox/internal/storage"
)

// ErrGenerationUnavailable indicates the generation call itself failed: the
// model could not be reached or returned a non-success status.
var ErrGenerationUnavailable = errors.New("text generation unavailable")

// MalformedEvaluationError indicates generation succeeded but the response
// could not be parsed into the expected scoring record.
type MalformedEvaluationError struct {
	Response string
	Err      error
}

func (e *MalformedEvaluationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed evaluation: %v", e.Err)
	}
	return "malformed evaluation: no JSON object found in model response"
}

func (e *MalformedEvaluationError) Unwrap() error { return e.Err }

// Chatter is the interface for chat completion against the local model.
type Chatter interface {
	Chat(ctx context.Context, model string, messages []ollama.Message, jsonSchema *ollama.Schema) (string, error)
}

// Evaluator scores question/answer pairs using a local model.
type Evaluator struct {
	client Chatter
	model  string
}

// NewEvaluator creates an Evaluator using the given client and model name.
func NewEvaluator(client Chatter, model string) *Evaluator {
	return &Evaluator{client: client, model: model}
}

const systemPrompt = `You are an interview evaluator.

Evaluate the candidate's answer on a scale of 0 to 10 (integers only) for:
1. Clarity
2. Confidence
3. Technical Depth

Then provide one short strength and one specific improvement suggestion.

Return ONLY a single valid JSON object conforming to the provided schema. Do not include any other text, prose, or markdown.`

// Evaluate scores one answer against its question. Scores are taken verbatim
// from the model without range validation. No retry is performed; retry policy
// belongs to the caller.
func (e *Evaluator) Evaluate(ctx context.Context, question, answer string) (storage.Evaluation, error) {
	messages := []ollama.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf("Question:\n%s\n\nAnswer:\n%s", question, answer)},
	}

	raw, err := e.client.Chat(ctx, e.model, messages, evaluationSchema())
	if err != nil {
		return storage.Evaluation{}, fmt.Errorf("%w: %s", ErrGenerationUnavailable, err)
	}

	// The model may wrap its answer in prose; parse only the first balanced
	// JSON object found in the response.
	obj, ok := firstJSONObject(raw)
	if !ok {
		return storage.Evaluation{}, &MalformedEvaluationError{Response: raw}
	}

	var result storage.Evaluation
	if err := json.Unmarshal([]byte(obj), &result); err != nil {
		return storage.Evaluation{}, &MalformedEvaluationError{Response: raw, Err: err}
	}
	return result, nil
}

// evaluationSchema returns the Ollama JSON schema for structured scoring output.
func evaluationSchema() *ollama.Schema {
	return &ollama.Schema{
		Type: "object",
		Properties: map[string]ollama.SchemaProperty{
			"clarity":         {Type: "integer", Description: "How clear and structured the answer is, 0-10"},
			"confidence":      {Type: "integer", Description: "How confident the delivery sounds, 0-10"},
			"technical_depth": {Type: "integer", Description: "Depth of technical understanding shown, 0-10"},
			"strength":        {Type: "string", Description: "One short strength of the answer"},
			"improvement":     {Type: "string", Description: "One specific improvement suggestion"},
		},
		Required: []string{"clarity", "confidence", "technical_depth", "strength", "improvement"},
	}
}

// firstJSONObject returns the first balanced {...} substring of s, tracking
// string literals and escapes so braces inside values don't break the scan.
func firstJSONObject(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if start == -1 {
			if c == '{' {
				start = i
				depth = 1
			}
			continue
		}

		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}
