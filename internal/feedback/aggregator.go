// Package feedback reduces per-answer evaluations into a session-level summary.
package feedback

import (
	"math"

	"github.com/prepvox/prepvox/internal/storage"
)

// Thresholds for the verdict sentence, on the same 0-10 scale as the scores.
const (
	strongThreshold     = 8.0
	hesitationThreshold = 6.0
)

// Aggregate reduces all evaluated answer records into summary statistics and a
// one-sentence verdict. Records without an evaluation are skipped entirely:
// they contribute to no average and no text set. With zero evaluated records
// every numeric field is zero and the verdict falls through to the neutral
// sentence.
func Aggregate(records []storage.AnswerRecord) storage.FeedbackSummary {
	var clarity, confidence, technical []int
	var strengths, improvements []string

	for _, rec := range records {
		if rec.Evaluation == nil {
			continue
		}
		clarity = append(clarity, rec.Evaluation.Clarity)
		confidence = append(confidence, rec.Evaluation.Confidence)
		technical = append(technical, rec.Evaluation.TechnicalDepth)
		strengths = append(strengths, rec.Evaluation.Strength)
		improvements = append(improvements, rec.Evaluation.Improvement)
	}

	avgClarity := round1(mean(clarity))
	avgConfidence := round1(mean(confidence))
	avgTechnical := round1(mean(technical))

	// Zero evaluated records would read as confidence 0 and trip the
	// hesitation branch; fall through to the neutral sentence instead.
	summary := neutralVerdict
	if len(clarity) > 0 {
		summary = verdict(avgClarity, avgConfidence, avgTechnical)
	}

	return storage.FeedbackSummary{
		AvgClarity:        avgClarity,
		AvgConfidence:     avgConfidence,
		AvgTechnicalDepth: avgTechnical,
		OverallScore:      round2((avgClarity + avgConfidence + avgTechnical) / 3),
		Summary:           summary,
		Strengths:         dedupe(strengths),
		Improvements:      dedupe(improvements),
	}
}

const neutralVerdict = "Overall performance is solid, with room for improvement in clarity and technical depth."

// verdict picks the summary sentence by first-matching rule. Averages are on
// the 0-10 score scale.
func verdict(clarity, confidence, technical float64) string {
	switch {
	case clarity > strongThreshold && technical > strongThreshold:
		return "Excellent clarity and strong technical depth. Answers are well-structured and confident."
	case clarity > strongThreshold:
		return "Strong communication skills with clear explanations, but technical depth can be improved."
	case technical > strongThreshold:
		return "Good technical understanding, but explanations could be clearer and more structured."
	case confidence < hesitationThreshold:
		return "Answers show hesitation. Improving confidence and delivery will help significantly."
	default:
		return neutralVerdict
	}
}

func mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// dedupe drops empty strings and duplicates, keeping first-seen order.
func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		result = append(result, v)
	}
	return result
}
