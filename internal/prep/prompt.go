package prep

import (
	"fmt"
	"strings"
)

// BuildPrompt composes the interview-preparation prompt from the job
// description, resume, and generation options.
func BuildPrompt(jd, resume string, opts Options) string {
	var sb strings.Builder

	sb.WriteString(`You are an expert technical interviewer and hiring manager.

Your job is to create a structured interview-preparation report for the candidate based on their resume and the provided job description.

STRICT OUTPUT FORMAT — follow exactly, do NOT output JSON, YAML, tables, or code blocks:

### Candidate Fit Summary
- Strong fit: <3-5 bullet points about what makes this candidate a good match>
- Weak fit: <2-4 bullet points of gaps or risks>

---

`)

	fmt.Fprintf(&sb, "### Technical Questions (Mandatory: Generate exactly %d)\n", opts.Technical)
	sb.WriteString("For EACH technical question, use this format:\n\n")
	sb.WriteString("1. <Question text tailored to the JD and resume>\n")
	fmt.Fprintf(&sb, "- Difficulty: <easy / medium / hard — matching target: %s>\n", opts.Difficulty)
	sb.WriteString("- Follow-up: <one follow-up question>\n")
	if opts.IncludeAnswers {
		sb.WriteString("- Expected Answer Outline:\n  - Key point 1\n  - Key point 2\n  - Key point 3\n")
	}
	fmt.Fprintf(&sb, "\n(Repeat this for all %d questions, continuing the numbering.)\n\n---\n\n", opts.Technical)

	fmt.Fprintf(&sb, "### Behavioral Questions (Mandatory: Generate exactly %d)\n", opts.Behavioral)
	if opts.Behavioral > 0 {
		sb.WriteString("For EACH behavioral question, use this format:\n\n")
		sb.WriteString("1. <Behavioral question tailored to the role responsibilities>\n")
		sb.WriteString("- Follow-up: <a deeper probing follow-up>\n")
		fmt.Fprintf(&sb, "\n(Repeat this for all %d questions, continuing the numbering.)\n", opts.Behavioral)
	} else {
		sb.WriteString("Skip this section entirely.\n")
	}

	sb.WriteString(`
Additional requirements:
- Questions MUST be tailored to the candidate's resume experience.
- Questions MUST match the job description's domain.
- Keep questions concise and practical.
- Every question line starts with its number, a period, and a space.

### JOB DESCRIPTION
`)
	sb.WriteString(jd)
	sb.WriteString("\n\n### RESUME\n")
	sb.WriteString(resume)
	sb.WriteString("\n\nNow generate the final formatted interview preparation following ALL rules above.\n")

	return sb.String()
}
