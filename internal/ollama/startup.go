package ollama

import (
	"context"
	"fmt"
	"io"
)

// EnsureReady checks that the Ollama server is reachable and that the given
// models are available locally. Missing models are pulled automatically with
// progress output written to w.
func EnsureReady(ctx context.Context, c *Client, w io.Writer, models ...string) error {
	if !c.IsRunning(ctx) {
		return fmt.Errorf("ollama is not running; start it and try again")
	}

	seen := make(map[string]bool, len(models))
	for _, model := range models {
		if model == "" || seen[model] {
			continue
		}
		seen[model] = true

		if c.HasModel(ctx, model) {
			fmt.Fprintf(w, "model %s: ready\n", model)
			continue
		}

		fmt.Fprintf(w, "model %s: pulling...\n", model)
		err := c.PullModel(ctx, model, func(p PullProgress) {
			if p.Total > 0 {
				pct := float64(p.Completed) / float64(p.Total) * 100
				fmt.Fprintf(w, "  %s %.0f%%\n", p.Status, pct)
			} else {
				fmt.Fprintf(w, "  %s\n", p.Status)
			}
		})
		if err != nil {
			return fmt.Errorf("pulling model %s: %w", model, err)
		}
		fmt.Fprintf(w, "model %s: ready\n", model)
	}

	return nil
}
