// Package question extracts numbered interview questions from generated text.
package question

import (
	"regexp"
	"strings"
)

// numberedLine matches a line that starts a new numbered item: an integer,
// a period, and at least one whitespace character before the question text.
var numberedLine = regexp.MustCompile(`(?m)^[ \t]*\d+\.\s+(.+)$`)

// Extract returns every numbered question found in the generated text, in
// first-occurrence order, with surrounding whitespace trimmed. Text with no
// numbered lines yields an empty slice, not an error. No semantic validation
// is performed; the content of each matched line is taken as-is.
func Extract(text string) []string {
	matches := numberedLine.FindAllStringSubmatch(text, -1)
	questions := make([]string, 0, len(matches))
	for _, m := range matches {
		q := strings.TrimSpace(m[1])
		if q == "" {
			continue
		}
		questions = append(questions, q)
	}
	return questions
}
