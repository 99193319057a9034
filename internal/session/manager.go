// Package session owns the interview session lifecycle: creation, answer
// accumulation, and the one-shot finalization that evaluates, aggregates, and
// persists.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prepvox/prepvox/internal/feedback"
	"github.com/prepvox/prepvox/internal/storage"
)

// DefaultConfidence is used when the transcription collaborator reports no
// confidence value.
const DefaultConfidence = 1.0

// AnswerEvaluator scores a single question/answer pair.
type AnswerEvaluator interface {
	Evaluate(ctx context.Context, question, answer string) (storage.Evaluation, error)
}

// Persister writes a finalized session to durable storage.
type Persister interface {
	SaveSession(storage.Session) error
}

// Manager drives sessions through their lifecycle. Finalization of the same
// session identifier is serialized with a per-session lock; different sessions
// finalize independently.
type Manager struct {
	store     Persister
	evaluator AnswerEvaluator
	logger    *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates a Manager wired to the given store and evaluator.
func NewManager(store Persister, evaluator AnswerEvaluator) *Manager {
	return &Manager{
		store:     store,
		evaluator: evaluator,
		logger:    slog.Default(),
		locks:     make(map[string]*sync.Mutex),
	}
}

// New allocates a fresh session for the given interview role. No persistence
// happens until Finalize.
func (m *Manager) New(role string) *storage.Session {
	return &storage.Session{
		ID:        uuid.New().String(),
		Role:      role,
		CreatedAt: time.Now().UTC(),
		Questions: []storage.AnswerRecord{},
	}
}

// AddAnswer appends an answer record to the in-memory session. Pass a negative
// confidence when the transcriber reported none; duration and confidence
// ranges are otherwise not validated.
func (m *Manager) AddAnswer(sess *storage.Session, question, answerText string, durationSec, confidence float64) {
	if confidence < 0 {
		confidence = DefaultConfidence
	}
	sess.Questions = append(sess.Questions, storage.AnswerRecord{
		Question:             question,
		AnswerText:           answerText,
		DurationSec:          durationSec,
		TranscriptConfidence: confidence,
	})
}

// Finalize evaluates every answer record in order, computes meta and aggregated
// feedback, and persists the full session. The operation is all-or-nothing: if
// any evaluation fails, the session is left unmodified and nothing is
// persisted. Calling Finalize again on the same session re-evaluates and
// overwrites the prior persisted record.
func (m *Manager) Finalize(ctx context.Context, sess *storage.Session) error {
	lock := m.sessionLock(sess.ID)
	lock.Lock()
	defer lock.Unlock()

	evals := make([]storage.Evaluation, len(sess.Questions))
	for i, rec := range sess.Questions {
		ev, err := m.evaluator.Evaluate(ctx, rec.Question, rec.AnswerText)
		if err != nil {
			return fmt.Errorf("evaluating answer %d of %d: %w", i+1, len(sess.Questions), err)
		}
		evals[i] = ev
	}

	for i := range sess.Questions {
		ev := evals[i]
		sess.Questions[i].Evaluation = &ev
	}

	sess.Meta = &storage.Meta{
		TotalQuestions:    len(sess.Questions),
		AvgAnswerDuration: avgDuration(sess.Questions),
	}
	summary := feedback.Aggregate(sess.Questions)
	sess.Feedback = &summary

	if err := m.store.SaveSession(*sess); err != nil {
		return fmt.Errorf("persisting session %s: %w", sess.ID, err)
	}

	m.logger.Info("session finalized",
		"session_id", sess.ID,
		"questions", len(sess.Questions),
		"overall_score", summary.OverallScore,
	)
	return nil
}

func avgDuration(records []storage.AnswerRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for _, rec := range records {
		sum += rec.DurationSec
	}
	return math.Round(sum/float64(len(records))*100) / 100
}

func (m *Manager) sessionLock(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[id] = lock
	}
	return lock
}
