// Package api exposes the session lifecycle and question generation over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/prepvox/prepvox/internal/config"
	"github.com/prepvox/prepvox/internal/evaluate"
	"github.com/prepvox/prepvox/internal/metrics"
	"github.com/prepvox/prepvox/internal/prep"
	"github.com/prepvox/prepvox/internal/session"
	"github.com/prepvox/prepvox/internal/storage"
)

const maxBodySize = 10 << 20 // 10MB

// Deps holds the collaborators for the HTTP surface.
type Deps struct {
	Store    *storage.Store
	Sessions *session.Manager
	Planner  *prep.Planner
	Metrics  *metrics.Metrics
	Defaults config.InterviewConfig
}

// NewHandler builds the chi router with all prepvox routes registered.
func NewHandler(deps Deps) http.Handler {
	reg := newRegistry()

	r := chi.NewRouter()
	if deps.Metrics != nil {
		r.Use(metricsMiddleware(deps.Metrics))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/questions", handleGenerateQuestions(deps))
		r.Post("/sessions", handleCreateSession(deps, reg))
		r.Post("/sessions/{id}/answers", handleAddAnswer(deps, reg))
		r.Post("/sessions/{id}/finalize", handleFinalize(deps, reg))
		r.Get("/sessions", handleListSessions(deps))
		r.Get("/sessions/{id}", handleGetSession(deps, reg))
	})

	return r
}

// QuestionsRequest is the body of POST /v1/questions.
type QuestionsRequest struct {
	JobDescription string `json:"job_description"`
	Resume         string `json:"resume"`
	Technical      int    `json:"technical"`
	Behavioral     int    `json:"behavioral"`
	Difficulty     string `json:"difficulty"`
	IncludeAnswers bool   `json:"include_answers"`
	Strict         bool   `json:"strict"`
}

func handleGenerateQuestions(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		defer r.Body.Close()

		var req QuestionsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		opts := prep.Options{
			Technical:      req.Technical,
			Behavioral:     req.Behavioral,
			Difficulty:     req.Difficulty,
			IncludeAnswers: req.IncludeAnswers,
			Strict:         req.Strict,
		}
		if opts.Technical <= 0 {
			opts.Technical = deps.Defaults.Technical
		}
		if opts.Difficulty == "" {
			opts.Difficulty = deps.Defaults.Difficulty
		}

		start := time.Now()
		plan, err := deps.Planner.Build(r.Context(), req.JobDescription, req.Resume, opts)
		if deps.Metrics != nil {
			deps.Metrics.GenerationsTotal.Inc()
			deps.Metrics.GenerationSeconds.Observe(time.Since(start).Seconds())
		}

		var mismatch *prep.CountMismatchError
		switch {
		case errors.Is(err, prep.ErrEmptyInput):
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		case errors.As(err, &mismatch):
			httpError(w, http.StatusUnprocessableEntity, "count_mismatch_error", "%v", err)
			return
		case err != nil:
			httpError(w, http.StatusBadGateway, "generation_error", "%v", err)
			return
		}

		writeJSON(w, http.StatusOK, plan)
	}
}

// CreateSessionRequest is the body of POST /v1/sessions.
type CreateSessionRequest struct {
	Role string `json:"role"`
}

func handleCreateSession(deps Deps, reg *registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		var req CreateSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Role == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "role is required")
			return
		}

		sess := deps.Sessions.New(req.Role)
		reg.put(sess)
		if deps.Metrics != nil {
			deps.Metrics.SessionsCreated.Inc()
		}

		writeJSON(w, http.StatusCreated, sess)
	}
}

// AddAnswerRequest is the body of POST /v1/sessions/{id}/answers.
type AddAnswerRequest struct {
	Question             string   `json:"question"`
	AnswerText           string   `json:"answer_text"`
	DurationSec          float64  `json:"duration_sec"`
	TranscriptConfidence *float64 `json:"transcript_confidence"`
}

func handleAddAnswer(deps Deps, reg *registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		sess, ok := reg.get(chi.URLParam(r, "id"))
		if !ok {
			httpError(w, http.StatusNotFound, "not_found_error", "no active session with that id")
			return
		}

		var req AddAnswerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Question == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "question is required")
			return
		}
		if sess.Finalized() {
			httpError(w, http.StatusConflict, "invalid_request_error", "session is already finalized")
			return
		}

		confidence := -1.0
		if req.TranscriptConfidence != nil {
			confidence = *req.TranscriptConfidence
		}
		deps.Sessions.AddAnswer(sess, req.Question, req.AnswerText, req.DurationSec, confidence)

		writeJSON(w, http.StatusOK, map[string]int{"answers": len(sess.Questions)})
	}
}

func handleFinalize(deps Deps, reg *registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		sess, ok := reg.get(id)
		if !ok {
			httpError(w, http.StatusNotFound, "not_found_error", "no active session with that id")
			return
		}

		err := deps.Sessions.Finalize(r.Context(), sess)
		if deps.Metrics != nil {
			deps.Metrics.EvaluationsTotal.Add(float64(len(sess.Questions)))
			if err != nil {
				deps.Metrics.FinalizeErrors.Inc()
			} else {
				deps.Metrics.SessionsFinalized.Inc()
			}
		}

		var malformed *evaluate.MalformedEvaluationError
		switch {
		case errors.Is(err, evaluate.ErrGenerationUnavailable):
			httpError(w, http.StatusBadGateway, "generation_error", "%v", err)
			return
		case errors.As(err, &malformed):
			httpError(w, http.StatusBadGateway, "malformed_evaluation_error", "%v", err)
			return
		case err != nil:
			httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
			return
		}

		reg.remove(id)
		writeJSON(w, http.StatusOK, sess)
	}
}

func handleListSessions(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 20
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid limit %q", raw)
				return
			}
			limit = n
		}

		sessions, err := deps.Store.ListSessions(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "listing sessions: %v", err)
			return
		}
		if sessions == nil {
			sessions = []storage.SessionSummary{}
		}
		writeJSON(w, http.StatusOK, sessions)
	}
}

func handleGetSession(deps Deps, reg *registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		sess, err := deps.Store.GetSession(id)
		if err == nil {
			writeJSON(w, http.StatusOK, sess)
			return
		}
		if !errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusInternalServerError, "api_error", "loading session: %v", err)
			return
		}

		// Not yet persisted; fall back to the in-flight registry.
		if active, ok := reg.get(id); ok {
			writeJSON(w, http.StatusOK, active)
			return
		}
		httpError(w, http.StatusNotFound, "not_found_error", "session %s not found", id)
	}
}
