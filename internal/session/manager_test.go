package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prepvox/prepvox/internal/storage"
)

// --- Mock evaluator ---

type mockEvaluator struct {
	mu      sync.Mutex
	calls   int
	failOn  int // 1-based call index to fail at, 0 = never
	scores  storage.Evaluation
	perCall []storage.Evaluation
}

func (m *mockEvaluator) Evaluate(_ context.Context, _, _ string) (storage.Evaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failOn != 0 && m.calls == m.failOn {
		return storage.Evaluation{}, errors.New("model blew up")
	}
	if len(m.perCall) >= m.calls {
		return m.perCall[m.calls-1], nil
	}
	return m.scores, nil
}

// --- Mock persister ---

type mockPersister struct {
	mu     sync.Mutex
	saved  []storage.Session
	failed bool
}

func (m *mockPersister) SaveSession(sess storage.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failed {
		return errors.New("disk full")
	}
	m.saved = append(m.saved, sess)
	return nil
}

// --- Tests ---

func TestNew_FreshSession(t *testing.T) {
	mgr := NewManager(&mockPersister{}, &mockEvaluator{})

	sess := mgr.New("Backend Engineer")

	if sess.ID == "" {
		t.Error("session ID should be assigned")
	}
	if sess.Role != "Backend Engineer" {
		t.Errorf("Role = %q", sess.Role)
	}
	if sess.Finalized() {
		t.Error("fresh session must not be finalized")
	}
	if len(sess.Questions) != 0 {
		t.Errorf("fresh session has %d answers, want 0", len(sess.Questions))
	}
}

func TestAddAnswer_DefaultConfidence(t *testing.T) {
	mgr := NewManager(&mockPersister{}, &mockEvaluator{})
	sess := mgr.New("role")

	mgr.AddAnswer(sess, "q1", "a1", 30.5, -1)
	mgr.AddAnswer(sess, "q2", "a2", 20, 0.85)

	if got := sess.Questions[0].TranscriptConfidence; got != DefaultConfidence {
		t.Errorf("missing confidence stored as %v, want %v", got, DefaultConfidence)
	}
	if got := sess.Questions[1].TranscriptConfidence; got != 0.85 {
		t.Errorf("confidence = %v, want 0.85", got)
	}
}

func TestFinalize_AttachesEvaluationsAndPersists(t *testing.T) {
	evaluator := &mockEvaluator{perCall: []storage.Evaluation{
		{Clarity: 8, Confidence: 7, TechnicalDepth: 9, Strength: "s1", Improvement: "i1"},
		{Clarity: 6, Confidence: 6, TechnicalDepth: 6, Strength: "s2", Improvement: "i2"},
		{Clarity: 7, Confidence: 8, TechnicalDepth: 7, Strength: "s1", Improvement: "i3"},
	}}
	store := &mockPersister{}
	mgr := NewManager(store, evaluator)

	sess := mgr.New("role")
	mgr.AddAnswer(sess, "q1", "a1", 30, -1)
	mgr.AddAnswer(sess, "q2", "a2", 45, -1)
	mgr.AddAnswer(sess, "q3", "a3", 15, -1)

	if err := mgr.Finalize(context.Background(), sess); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	for i, rec := range sess.Questions {
		if rec.Evaluation == nil {
			t.Fatalf("answer %d has no evaluation", i)
		}
	}
	if sess.Questions[1].Evaluation.Strength != "s2" {
		t.Errorf("evaluations attached out of order: %+v", sess.Questions[1].Evaluation)
	}

	if sess.Meta == nil || sess.Meta.TotalQuestions != 3 {
		t.Fatalf("Meta = %+v, want 3 questions", sess.Meta)
	}
	if sess.Meta.AvgAnswerDuration != 30.0 {
		t.Errorf("AvgAnswerDuration = %v, want 30.0", sess.Meta.AvgAnswerDuration)
	}
	if sess.Feedback == nil {
		t.Fatal("Feedback not attached")
	}

	if len(store.saved) != 1 {
		t.Fatalf("saved %d sessions, want 1", len(store.saved))
	}
	if store.saved[0].ID != sess.ID {
		t.Errorf("persisted session %s, want %s", store.saved[0].ID, sess.ID)
	}
}

func TestFinalize_EvaluationFailureLeavesSessionUntouched(t *testing.T) {
	evaluator := &mockEvaluator{failOn: 2, scores: storage.Evaluation{Clarity: 8}}
	store := &mockPersister{}
	mgr := NewManager(store, evaluator)

	sess := mgr.New("role")
	mgr.AddAnswer(sess, "q1", "a1", 10, -1)
	mgr.AddAnswer(sess, "q2", "a2", 10, -1)
	mgr.AddAnswer(sess, "q3", "a3", 10, -1)

	err := mgr.Finalize(context.Background(), sess)
	if err == nil {
		t.Fatal("Finalize should fail when an evaluation fails")
	}

	// All-or-nothing: no partial evaluations, no meta, nothing persisted.
	for i, rec := range sess.Questions {
		if rec.Evaluation != nil {
			t.Errorf("answer %d has an evaluation after failed finalize", i)
		}
	}
	if sess.Finalized() {
		t.Error("session must not be finalized after failure")
	}
	if len(store.saved) != 0 {
		t.Errorf("persisted %d sessions after failure, want 0", len(store.saved))
	}
}

func TestFinalize_PersistFailure(t *testing.T) {
	evaluator := &mockEvaluator{scores: storage.Evaluation{Clarity: 7, Confidence: 7, TechnicalDepth: 7}}
	store := &mockPersister{failed: true}
	mgr := NewManager(store, evaluator)

	sess := mgr.New("role")
	mgr.AddAnswer(sess, "q1", "a1", 10, -1)

	if err := mgr.Finalize(context.Background(), sess); err == nil {
		t.Fatal("Finalize should surface the storage error")
	}
}

func TestFinalize_EmptySession(t *testing.T) {
	store := &mockPersister{}
	mgr := NewManager(store, &mockEvaluator{})

	sess := mgr.New("role")

	if err := mgr.Finalize(context.Background(), sess); err != nil {
		t.Fatalf("Finalize of empty session: %v", err)
	}
	if sess.Meta == nil || sess.Meta.TotalQuestions != 0 {
		t.Errorf("Meta = %+v", sess.Meta)
	}
	if sess.Meta.AvgAnswerDuration != 0 {
		t.Errorf("AvgAnswerDuration = %v, want 0", sess.Meta.AvgAnswerDuration)
	}
	if len(store.saved) != 1 {
		t.Errorf("empty session should still persist, saved %d", len(store.saved))
	}
}

func TestFinalize_Refinalize(t *testing.T) {
	evaluator := &mockEvaluator{scores: storage.Evaluation{Clarity: 7, Confidence: 7, TechnicalDepth: 7}}
	store := &mockPersister{}
	mgr := NewManager(store, evaluator)

	sess := mgr.New("role")
	mgr.AddAnswer(sess, "q1", "a1", 10, -1)

	if err := mgr.Finalize(context.Background(), sess); err != nil {
		t.Fatalf("first Finalize: %v", err)
	}
	if err := mgr.Finalize(context.Background(), sess); err != nil {
		t.Fatalf("second Finalize: %v", err)
	}

	if evaluator.calls != 2 {
		t.Errorf("evaluator called %d times, want re-evaluation on second finalize", evaluator.calls)
	}
	if len(store.saved) != 2 {
		t.Errorf("saved %d times, want 2 (overwrite is the store's concern)", len(store.saved))
	}
}
