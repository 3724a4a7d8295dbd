package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/quizrunner/internal/errors"
	"github.com/vytor/quizrunner/internal/logger"
)

type startSessionRequest struct {
	QuizID string `json:"quiz_id"`
}

type selectRequest struct {
	Option *int `json:"option"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	view, err := s.Sessions.Start(r.Context(), req.QuizID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Debug("session %s created for quiz %s", view.ID, req.QuizID)
	writeJSON(w, http.StatusAccepted, view)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.Sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleRetryLoad(w http.ResponseWriter, r *http.Request) {
	view, err := s.Sessions.RetryLoad(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.Option == nil {
		handleError(w, r, errors.NewValidationError("option", "is required"))
		return
	}

	view, err := s.Sessions.Select(r.Context(), chi.URLParam(r, "id"), *req.Option)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	view, err := s.Sessions.Validate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	view, err := s.Sessions.Advance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.Sessions.Finish(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleLeaveSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Leave(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
