package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/quizrunner/internal/models"
)

type attemptListResponse struct {
	Attempts []models.AttemptRecord `json:"attempts"`
	Total    int                    `json:"total"`
	Limit    int                    `json:"limit"`
	Offset   int                    `json:"offset"`
}

func (s *Server) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		handleError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		handleError(w, r, err)
		return
	}

	q := r.URL.Query()
	filter := models.AttemptFilter{
		QuizID: q.Get("quiz_id"),
		Status: q.Get("status"),
		Limit:  limit,
		Offset: offset,
	}

	attempts, total, err := s.Attempts.ListAttempts(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attemptListResponse{
		Attempts: attempts,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	})
}

func (s *Server) handleGetAttempt(w http.ResponseWriter, r *http.Request) {
	record, err := s.Attempts.GetAttempt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleAttemptStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Attempts.Stats(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
