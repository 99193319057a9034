// Package interview drives the phase state machine of one mock interview:
// review -> instructions -> interview -> feedback, with a per-question
// idle -> recording -> answered sub-state.
package interview

import (
	"context"
	"errors"
	"fmt"

	"github.com/prepvox/prepvox/internal/speech"
	"github.com/prepvox/prepvox/internal/storage"
)

// Phase is the top-level interview phase.
type Phase string

const (
	PhaseReview       Phase = "review"
	PhaseInstructions Phase = "instructions"
	PhaseInterview    Phase = "interview"
	PhaseFeedback     Phase = "feedback"
)

// AnswerState is the per-question sub-state within the interview phase.
type AnswerState string

const (
	AnswerIdle      AnswerState = "idle"
	AnswerRecording AnswerState = "recording"
	AnswerCaptured  AnswerState = "answered"
)

var (
	// ErrInvalidTransition is returned when an event does not apply to the
	// current phase or sub-state. Every transition is single-attempt and
	// user- or completion-triggered; nothing is retried automatically.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrNoQuestions blocks starting an interview without an extracted
	// question list.
	ErrNoQuestions = errors.New("question list is empty")
)

// InstructionText is spoken exactly once on entering the instructions phase.
const InstructionText = "Before we begin, here is how the mock interview will work. " +
	"I will ask you one question at a time. " +
	"After each question, choose start recording and you will have up to one minute to answer. " +
	"Once you finish answering, choose continue to move to the next question. " +
	"When you are ready, we will begin with the first question."

// SessionManager is the session lifecycle surface the machine depends on.
type SessionManager interface {
	New(role string) *storage.Session
	AddAnswer(sess *storage.Session, question, answerText string, durationSec, confidence float64)
	Finalize(ctx context.Context, sess *storage.Session) error
}

// Machine holds the state of one interview attempt. It is driven synchronously
// by discrete user-triggered events and must not be shared across goroutines;
// every concurrent client owns its own Machine.
type Machine struct {
	sessions      SessionManager
	speaker       speech.Speaker
	recorder      speech.Recorder
	recordSeconds int

	phase       Phase
	answerState AnswerState
	role        string
	questions   []string
	idx         int

	instructionsSpoken bool
	questionSpoken     bool

	transcript  string
	durationSec float64

	sess    *storage.Session
	summary *storage.FeedbackSummary
}

// NewMachine creates a Machine in the review phase with an empty question list.
// recordSeconds is the fixed ceiling for one answer recording.
func NewMachine(sessions SessionManager, speaker speech.Speaker, recorder speech.Recorder, recordSeconds int) *Machine {
	if recordSeconds <= 0 {
		recordSeconds = 60
	}
	return &Machine{
		sessions:      sessions,
		speaker:       speaker,
		recorder:      recorder,
		recordSeconds: recordSeconds,
		phase:         PhaseReview,
		answerState:   AnswerIdle,
	}
}

// SetQuestions loads the extracted question list while in review.
func (m *Machine) SetQuestions(role string, questions []string) error {
	if m.phase != PhaseReview {
		return fmt.Errorf("%w: cannot load questions in phase %s", ErrInvalidTransition, m.phase)
	}
	m.role = role
	m.questions = questions
	return nil
}

// Start moves review -> instructions. It requires a non-empty question list,
// creates the session, and speaks the instruction text exactly once.
func (m *Machine) Start(ctx context.Context) error {
	if m.phase != PhaseReview {
		return fmt.Errorf("%w: start from phase %s", ErrInvalidTransition, m.phase)
	}
	if len(m.questions) == 0 {
		return ErrNoQuestions
	}

	m.sess = m.sessions.New(m.role)
	m.phase = PhaseInstructions
	m.SpeakInstructions(ctx)
	return nil
}

// SpeakInstructions speaks the instruction text once per entry into the
// instructions phase; repeated calls (re-renders) are no-ops.
func (m *Machine) SpeakInstructions(ctx context.Context) {
	if m.phase != PhaseInstructions || m.instructionsSpoken {
		return
	}
	m.instructionsSpoken = true
	m.speaker.Say(ctx, InstructionText)
}

// Begin moves instructions -> interview at question index 0 and speaks the
// first question.
func (m *Machine) Begin(ctx context.Context) error {
	if m.phase != PhaseInstructions {
		return fmt.Errorf("%w: begin from phase %s", ErrInvalidTransition, m.phase)
	}
	m.phase = PhaseInterview
	m.idx = 0
	m.answerState = AnswerIdle
	m.questionSpoken = false
	m.SpeakCurrent(ctx)
	return nil
}

// SpeakCurrent speaks the current question exactly once per index; repeated
// calls for the same index are no-ops.
func (m *Machine) SpeakCurrent(ctx context.Context) {
	if m.phase != PhaseInterview || m.questionSpoken {
		return
	}
	q, ok := m.CurrentQuestion()
	if !ok {
		return
	}
	m.questionSpoken = true
	m.speaker.Say(ctx, q)
}

// Record captures the candidate's answer for the current question, blocking
// until the fixed recording ceiling elapses or capture finishes. The
// transcript and wall-clock duration are held as scratch state until Advance.
func (m *Machine) Record(ctx context.Context) error {
	if m.phase != PhaseInterview || m.answerState != AnswerIdle {
		return fmt.Errorf("%w: record in phase %s state %s", ErrInvalidTransition, m.phase, m.answerState)
	}
	if _, ok := m.CurrentQuestion(); !ok {
		return fmt.Errorf("%w: no current question", ErrInvalidTransition)
	}

	m.answerState = AnswerRecording
	transcript, elapsed, err := m.recorder.Record(ctx, m.recordSeconds)
	if err != nil {
		m.answerState = AnswerIdle
		return fmt.Errorf("recording answer: %w", err)
	}

	m.transcript = transcript
	m.durationSec = elapsed
	m.answerState = AnswerCaptured
	return nil
}

// Advance commits the captured answer to the session, clears the scratch
// fields, and moves to the next question. When the question list is exhausted
// it finalizes the session and enters the feedback phase.
func (m *Machine) Advance(ctx context.Context) error {
	if m.phase != PhaseInterview || m.answerState != AnswerCaptured {
		return fmt.Errorf("%w: advance in phase %s state %s", ErrInvalidTransition, m.phase, m.answerState)
	}

	q, _ := m.CurrentQuestion()
	m.sessions.AddAnswer(m.sess, q, m.transcript, m.durationSec, -1)

	m.transcript = ""
	m.durationSec = 0
	m.questionSpoken = false
	m.answerState = AnswerIdle
	m.idx++

	if m.idx >= len(m.questions) {
		return m.finish(ctx)
	}

	m.SpeakCurrent(ctx)
	return nil
}

// Finish retries finalization after a failed automatic attempt. It applies
// only when every question has been answered but the session has not reached
// the feedback phase.
func (m *Machine) Finish(ctx context.Context) error {
	if m.phase != PhaseInterview || m.idx < len(m.questions) {
		return fmt.Errorf("%w: finish in phase %s at question %d", ErrInvalidTransition, m.phase, m.idx)
	}
	return m.finish(ctx)
}

func (m *Machine) finish(ctx context.Context) error {
	if err := m.sessions.Finalize(ctx, m.sess); err != nil {
		// The machine stays in the interview phase with the index exhausted;
		// the caller may retry via Finish or abandon via Reset.
		return fmt.Errorf("finalizing session: %w", err)
	}
	m.summary = m.sess.Feedback
	m.phase = PhaseFeedback
	return nil
}

// Reset discards all session state and returns to a fresh review phase.
func (m *Machine) Reset() {
	m.phase = PhaseReview
	m.answerState = AnswerIdle
	m.role = ""
	m.questions = nil
	m.idx = 0
	m.instructionsSpoken = false
	m.questionSpoken = false
	m.transcript = ""
	m.durationSec = 0
	m.sess = nil
	m.summary = nil
}

// Phase returns the current top-level phase.
func (m *Machine) Phase() Phase { return m.phase }

// AnswerState returns the per-question sub-state.
func (m *Machine) AnswerState() AnswerState { return m.answerState }

// CurrentQuestion returns the question at the current index, if any.
func (m *Machine) CurrentQuestion() (string, bool) {
	if m.idx < 0 || m.idx >= len(m.questions) {
		return "", false
	}
	return m.questions[m.idx], true
}

// QuestionIndex returns the zero-based index of the current question.
func (m *Machine) QuestionIndex() int { return m.idx }

// TotalQuestions returns the length of the loaded question list.
func (m *Machine) TotalQuestions() int { return len(m.questions) }

// Transcript returns the captured-but-uncommitted answer transcript.
func (m *Machine) Transcript() string { return m.transcript }

// Session returns the active session, nil before Start and after Reset.
func (m *Machine) Session() *storage.Session { return m.sess }

// Summary returns the aggregated feedback once the feedback phase is reached.
func (m *Machine) Summary() *storage.FeedbackSummary { return m.summary }
