package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/quizrunner/internal/api"
	"github.com/vytor/quizrunner/internal/auth"
	"github.com/vytor/quizrunner/internal/config"
	"github.com/vytor/quizrunner/internal/db"
	"github.com/vytor/quizrunner/internal/events"
	"github.com/vytor/quizrunner/internal/jobs"
	"github.com/vytor/quizrunner/internal/logger"
	"github.com/vytor/quizrunner/internal/quizapi"
	"github.com/vytor/quizrunner/internal/repository/sqlstore"
	"github.com/vytor/quizrunner/internal/services"
	"github.com/vytor/quizrunner/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("QuizRunner Server Starting")
	log.Info("===========================================")

	if err := cfg.Validate(); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_driver=%s", cfg.DBDriver)
	log.Debug("quiz_api_base_url=%s", cfg.QuizAPIBaseURL)
	log.Debug("quiz_api_timeout=%v", cfg.QuizAPITimeout)
	log.Debug("tick_interval=%v", cfg.TickInterval)
	log.Debug("submit_max_attempts=%d", cfg.SubmitMaxAttempts)
	log.Debug("submit_backoff=%v", cfg.SubmitBackoff)
	log.Debug("load_worker_count=%d", cfg.LoadWorkerCount)
	log.Debug("load_queue_size=%d", cfg.LoadQueueSize)
	log.Debug("session_idle_ttl=%v", cfg.SessionIdleTTL)
	log.Debug("reap_interval=%v", cfg.ReapInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database, err := db.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	publisher, err := events.NewRabbitMQPublisher(cfg.AMQPURL, cfg.QuizEventsExchange)
	if err != nil {
		log.Error("failed to connect event publisher: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("failed to close event publisher: %v", err)
		}
	}()

	var clientOpts []quizapi.Option
	if cfg.QuizAPIClientID != "" {
		log.Info("authenticating to quiz service with client credentials")
		clientOpts = append(clientOpts, quizapi.WithHTTPClient(quizapi.NewServiceHTTPClient(
			ctx, cfg.QuizAPITokenURL, cfg.QuizAPIClientID, cfg.QuizAPIClientSecret, cfg.QuizAPITimeout,
		)))
	}
	quizClient := quizapi.New(cfg.QuizAPIBaseURL, cfg.QuizAPITimeout, clientOpts...)

	loadPool := worker.NewPool(cfg.LoadWorkerCount, cfg.LoadQueueSize)
	queue := jobs.NewWorkerQueue(loadPool)

	attemptRepo := sqlstore.NewAttemptRepository(database)
	finalizer := services.NewFinalizer(quizClient, attemptRepo, publisher, services.FinalizerConfig{
		MaxAttempts:   cfg.SubmitMaxAttempts,
		Backoff:       cfg.SubmitBackoff,
		Timeout:       cfg.QuizAPITimeout,
		ListingPath:   cfg.ListingPath,
		DashboardPath: cfg.DashboardPath,
	})
	sessionService := services.NewQuizSessionService(quizClient, queue, finalizer, services.SessionConfig{
		TickInterval: cfg.TickInterval,
		IdleTTL:      cfg.SessionIdleTTL,
	})
	queue.Bind(sessionService)

	srv := &api.Server{
		Sessions:    sessionService,
		Attempts:    services.NewAttemptService(attemptRepo),
		Auth:        auth.NewService(cfg.AuthHMACSecret),
		DB:          database,
		CORSOrigins: cfg.CORSOrigins,
	}

	loadPool.Start(ctx)
	go sessionService.RunReaper(ctx, cfg.ReapInterval)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Debug("stopping reaper and load pool")
	cancel()
	loadPool.Stop()

	log.Debug("closing live sessions")
	sessionService.CloseAll()

	log.Info("===========================================")
	log.Info("QuizRunner Server Stopped")
	log.Info("===========================================")
}
