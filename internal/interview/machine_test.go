package interview

import (
	"context"
	"errors"
	"testing"

	"github.com/prepvox/prepvox/internal/storage"
)

// --- Mock session manager ---

type mockSessions struct {
	created       []*storage.Session
	finalizeErr   error
	finalizeCalls int
}

func (m *mockSessions) New(role string) *storage.Session {
	sess := &storage.Session{ID: "sess-1", Role: role, Questions: []storage.AnswerRecord{}}
	m.created = append(m.created, sess)
	return sess
}

func (m *mockSessions) AddAnswer(sess *storage.Session, question, answerText string, durationSec, confidence float64) {
	if confidence < 0 {
		confidence = 1.0
	}
	sess.Questions = append(sess.Questions, storage.AnswerRecord{
		Question:             question,
		AnswerText:           answerText,
		DurationSec:          durationSec,
		TranscriptConfidence: confidence,
	})
}

func (m *mockSessions) Finalize(_ context.Context, sess *storage.Session) error {
	m.finalizeCalls++
	if m.finalizeErr != nil {
		return m.finalizeErr
	}
	sess.Meta = &storage.Meta{TotalQuestions: len(sess.Questions)}
	sess.Feedback = &storage.FeedbackSummary{OverallScore: 7.5, Summary: "fine"}
	return nil
}

// --- Mock speaker / recorder ---

type mockSpeaker struct {
	spoken []string
}

func (s *mockSpeaker) Say(_ context.Context, text string) {
	s.spoken = append(s.spoken, text)
}

type mockRecorder struct {
	transcript string
	elapsed    float64
	err        error
	calls      int
}

func (r *mockRecorder) Record(_ context.Context, _ int) (string, float64, error) {
	r.calls++
	if r.err != nil {
		return "", 0, r.err
	}
	return r.transcript, r.elapsed, nil
}

func newTestMachine(sessions *mockSessions, speaker *mockSpeaker, recorder *mockRecorder) *Machine {
	return NewMachine(sessions, speaker, recorder, 60)
}

// --- Tests ---

func TestFullWalkthrough(t *testing.T) {
	ctx := context.Background()
	sessions := &mockSessions{}
	speaker := &mockSpeaker{}
	recorder := &mockRecorder{transcript: "my answer", elapsed: 12.5}
	m := newTestMachine(sessions, speaker, recorder)

	questions := []string{"First?", "Second?"}
	if err := m.SetQuestions("Backend Engineer", questions); err != nil {
		t.Fatalf("SetQuestions: %v", err)
	}
	if m.Phase() != PhaseReview {
		t.Fatalf("Phase = %s, want review", m.Phase())
	}

	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if m.Phase() != PhaseInstructions {
		t.Fatalf("Phase = %s, want instructions", m.Phase())
	}
	if len(speaker.spoken) != 1 || speaker.spoken[0] != InstructionText {
		t.Fatalf("spoken = %v, want instruction text once", speaker.spoken)
	}

	if err := m.Begin(ctx); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if m.Phase() != PhaseInterview || m.QuestionIndex() != 0 {
		t.Fatalf("Phase = %s idx = %d", m.Phase(), m.QuestionIndex())
	}
	if speaker.spoken[len(speaker.spoken)-1] != "First?" {
		t.Errorf("first question not spoken: %v", speaker.spoken)
	}

	// Question 1: record, then advance.
	if err := m.Record(ctx); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if m.AnswerState() != AnswerCaptured {
		t.Fatalf("AnswerState = %s, want answered", m.AnswerState())
	}
	if m.Transcript() != "my answer" {
		t.Errorf("Transcript = %q", m.Transcript())
	}
	if err := m.Advance(ctx); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if m.QuestionIndex() != 1 {
		t.Fatalf("idx = %d, want 1", m.QuestionIndex())
	}
	if m.Transcript() != "" {
		t.Error("scratch transcript not cleared after advance")
	}
	if speaker.spoken[len(speaker.spoken)-1] != "Second?" {
		t.Errorf("second question not spoken: %v", speaker.spoken)
	}

	// Question 2: record, then advance -> auto-finalize into feedback.
	if err := m.Record(ctx); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := m.Advance(ctx); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	if m.Phase() != PhaseFeedback {
		t.Fatalf("Phase = %s, want feedback", m.Phase())
	}
	if sessions.finalizeCalls != 1 {
		t.Errorf("Finalize called %d times, want exactly once", sessions.finalizeCalls)
	}
	if m.Summary() == nil || m.Summary().OverallScore != 7.5 {
		t.Errorf("Summary = %+v", m.Summary())
	}

	sess := m.Session()
	if sess == nil || len(sess.Questions) != 2 {
		t.Fatalf("Session = %+v", sess)
	}
	if sess.Questions[0].Question != "First?" || sess.Questions[0].AnswerText != "my answer" {
		t.Errorf("committed answer = %+v", sess.Questions[0])
	}
	if sess.Questions[0].DurationSec != 12.5 {
		t.Errorf("DurationSec = %v, want 12.5", sess.Questions[0].DurationSec)
	}
}

func TestStart_RequiresQuestions(t *testing.T) {
	m := newTestMachine(&mockSessions{}, &mockSpeaker{}, &mockRecorder{})

	if err := m.Start(context.Background()); !errors.Is(err, ErrNoQuestions) {
		t.Errorf("Start error = %v, want ErrNoQuestions", err)
	}
	if m.Phase() != PhaseReview {
		t.Errorf("Phase = %s, want review after refused start", m.Phase())
	}
}

func TestInvalidTransitions(t *testing.T) {
	ctx := context.Background()
	m := newTestMachine(&mockSessions{}, &mockSpeaker{}, &mockRecorder{transcript: "a"})
	if err := m.SetQuestions("r", []string{"Q?"}); err != nil {
		t.Fatal(err)
	}

	// Out-of-phase events before start.
	if err := m.Begin(ctx); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Begin in review = %v, want ErrInvalidTransition", err)
	}
	if err := m.Record(ctx); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Record in review = %v, want ErrInvalidTransition", err)
	}
	if err := m.Advance(ctx); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Advance in review = %v, want ErrInvalidTransition", err)
	}

	if err := m.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := m.SetQuestions("r", []string{"other"}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("SetQuestions after start = %v, want ErrInvalidTransition", err)
	}
	if err := m.Start(ctx); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("double Start = %v, want ErrInvalidTransition", err)
	}

	if err := m.Begin(ctx); err != nil {
		t.Fatal(err)
	}
	// Advance without a captured answer.
	if err := m.Advance(ctx); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Advance while idle = %v, want ErrInvalidTransition", err)
	}
	if err := m.Record(ctx); err != nil {
		t.Fatal(err)
	}
	// Record twice for the same question.
	if err := m.Record(ctx); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("double Record = %v, want ErrInvalidTransition", err)
	}
}

func TestRecord_FailureRestoresIdle(t *testing.T) {
	ctx := context.Background()
	recorder := &mockRecorder{err: errors.New("mic unplugged")}
	m := newTestMachine(&mockSessions{}, &mockSpeaker{}, recorder)
	if err := m.SetQuestions("r", []string{"Q?"}); err != nil {
		t.Fatal(err)
	}
	if err := m.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := m.Begin(ctx); err != nil {
		t.Fatal(err)
	}

	if err := m.Record(ctx); err == nil {
		t.Fatal("Record should fail")
	}
	if m.AnswerState() != AnswerIdle {
		t.Errorf("AnswerState = %s, want idle so the candidate can retry", m.AnswerState())
	}

	// A retry after the failure works.
	recorder.err = nil
	recorder.transcript = "second try"
	if err := m.Record(ctx); err != nil {
		t.Fatalf("retry Record: %v", err)
	}
	if m.Transcript() != "second try" {
		t.Errorf("Transcript = %q", m.Transcript())
	}
}

func TestSpeakOncePerQuestion(t *testing.T) {
	ctx := context.Background()
	speaker := &mockSpeaker{}
	m := newTestMachine(&mockSessions{}, speaker, &mockRecorder{transcript: "a"})
	if err := m.SetQuestions("r", []string{"Q1?", "Q2?"}); err != nil {
		t.Fatal(err)
	}
	if err := m.Start(ctx); err != nil {
		t.Fatal(err)
	}

	// Re-render while in instructions: no double playback.
	m.SpeakInstructions(ctx)
	m.SpeakInstructions(ctx)

	if err := m.Begin(ctx); err != nil {
		t.Fatal(err)
	}
	m.SpeakCurrent(ctx)
	m.SpeakCurrent(ctx)

	want := []string{InstructionText, "Q1?"}
	if len(speaker.spoken) != len(want) {
		t.Fatalf("spoken = %v, want %v", speaker.spoken, want)
	}
	for i := range want {
		if speaker.spoken[i] != want[i] {
			t.Errorf("spoken[%d] = %q, want %q", i, speaker.spoken[i], want[i])
		}
	}
}

func TestFinalizeFailure_RetryViaFinish(t *testing.T) {
	ctx := context.Background()
	sessions := &mockSessions{finalizeErr: errors.New("model down")}
	m := newTestMachine(sessions, &mockSpeaker{}, &mockRecorder{transcript: "a"})
	if err := m.SetQuestions("r", []string{"Q?"}); err != nil {
		t.Fatal(err)
	}
	if err := m.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := m.Begin(ctx); err != nil {
		t.Fatal(err)
	}
	if err := m.Record(ctx); err != nil {
		t.Fatal(err)
	}

	// Advance exhausts the list; finalization fails, phase stays interview.
	if err := m.Advance(ctx); err == nil {
		t.Fatal("Advance should surface the finalize error")
	}
	if m.Phase() != PhaseInterview {
		t.Fatalf("Phase = %s, want interview while unfinalized", m.Phase())
	}

	// Retry once fixed.
	sessions.finalizeErr = nil
	if err := m.Finish(ctx); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if m.Phase() != PhaseFeedback {
		t.Errorf("Phase = %s, want feedback", m.Phase())
	}
	if sessions.finalizeCalls != 2 {
		t.Errorf("Finalize called %d times, want 2", sessions.finalizeCalls)
	}
}

func TestFinish_OnlyWhenExhausted(t *testing.T) {
	ctx := context.Background()
	m := newTestMachine(&mockSessions{}, &mockSpeaker{}, &mockRecorder{transcript: "a"})
	if err := m.SetQuestions("r", []string{"Q1?", "Q2?"}); err != nil {
		t.Fatal(err)
	}
	if err := m.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := m.Begin(ctx); err != nil {
		t.Fatal(err)
	}

	if err := m.Finish(ctx); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Finish mid-interview = %v, want ErrInvalidTransition", err)
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	m := newTestMachine(&mockSessions{}, &mockSpeaker{}, &mockRecorder{transcript: "a"})
	if err := m.SetQuestions("r", []string{"Q?"}); err != nil {
		t.Fatal(err)
	}
	if err := m.Start(ctx); err != nil {
		t.Fatal(err)
	}

	m.Reset()

	if m.Phase() != PhaseReview {
		t.Errorf("Phase = %s, want review", m.Phase())
	}
	if m.Session() != nil || m.Summary() != nil {
		t.Error("session state should be discarded")
	}
	if m.TotalQuestions() != 0 {
		t.Errorf("TotalQuestions = %d, want 0", m.TotalQuestions())
	}

	// A fresh interview can be loaded after reset.
	if err := m.SetQuestions("r2", []string{"New?"}); err != nil {
		t.Errorf("SetQuestions after Reset: %v", err)
	}
}
