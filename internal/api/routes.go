package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/vytor/quizrunner/internal/auth"
	"github.com/vytor/quizrunner/internal/metrics"
	"github.com/vytor/quizrunner/internal/services"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	Sessions    services.QuizSessionService
	Attempts    services.AttemptService
	Auth        *auth.Service
	DB          Pinger
	CORSOrigins []string
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Post("/sessions", s.handleStartSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleLeaveSession)
			r.Post("/retry", s.handleRetryLoad)
			r.Post("/select", s.handleSelect)
			r.Post("/validate", s.handleValidate)
			r.Post("/advance", s.handleAdvance)
			r.Post("/finish", s.handleFinish)
		})

		r.Get("/attempts", s.handleListAttempts)
		r.Get("/attempts/stats", s.handleAttemptStats)
		r.Get("/attempts/{id}", s.handleGetAttempt)
	})
	return r
}
