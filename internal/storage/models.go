package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Session is one complete interview attempt, from question list to final feedback.
// Meta and Feedback stay nil until the session is finalized; a finalized session
// is immutable and persisted as a whole.
type Session struct {
	ID        string         `json:"session_id"`
	Role      string         `json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	Questions []AnswerRecord `json:"questions"`

	Meta     *Meta            `json:"meta,omitempty"`
	Feedback *FeedbackSummary `json:"aggregated_feedback,omitempty"`
}

// Finalized reports whether the session has been through finalization.
func (s *Session) Finalized() bool {
	return s.Meta != nil
}

// AnswerRecord is one question/answer pair within a session. Evaluation stays
// nil until finalization attaches exactly one per record.
type AnswerRecord struct {
	Question             string      `json:"question"`
	AnswerText           string      `json:"answer_text"`
	DurationSec          float64     `json:"duration_sec"`
	TranscriptConfidence float64     `json:"transcript_confidence"`
	Evaluation           *Evaluation `json:"evaluation,omitempty"`
}

// Evaluation holds the per-answer scores returned by the model. Scores are
// intended to be integers in [0,10] but are stored verbatim without range
// validation.
type Evaluation struct {
	Clarity        int    `json:"clarity"`
	Confidence     int    `json:"confidence"`
	TechnicalDepth int    `json:"technical_depth"`
	Strength       string `json:"strength"`
	Improvement    string `json:"improvement"`
}

// Meta holds derived session statistics computed at finalization.
type Meta struct {
	TotalQuestions    int     `json:"total_questions"`
	AvgAnswerDuration float64 `json:"avg_answer_duration"`
}

// FeedbackSummary aggregates all evaluations in a session.
type FeedbackSummary struct {
	AvgClarity        float64  `json:"avg_clarity"`
	AvgConfidence     float64  `json:"avg_confidence"`
	AvgTechnicalDepth float64  `json:"avg_technical_depth"`
	OverallScore      float64  `json:"overall_score"`
	Summary           string   `json:"summary"`
	Strengths         []string `json:"strengths"`
	Improvements      []string `json:"improvements"`
}

// SessionSummary is the listing view of a persisted session.
type SessionSummary struct {
	ID             string    `json:"session_id"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
	TotalQuestions int       `json:"total_questions"`
	OverallScore   float64   `json:"overall_score"`
}
