package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vytor/quizrunner/internal/attempt"
	"github.com/vytor/quizrunner/internal/auth"
	"github.com/vytor/quizrunner/internal/errors"
	"github.com/vytor/quizrunner/internal/jobs"
	"github.com/vytor/quizrunner/internal/logger"
	"github.com/vytor/quizrunner/internal/metrics"
	"github.com/vytor/quizrunner/internal/quizapi"
)

// QuizSessionService hosts live quiz-taking sessions.
type QuizSessionService interface {
	Start(ctx context.Context, quizID string) (*SessionView, error)
	Get(ctx context.Context, sessionID string) (*SessionView, error)
	LoadSession(ctx context.Context, sessionID string) error
	RetryLoad(ctx context.Context, sessionID string) (*SessionView, error)
	Select(ctx context.Context, sessionID string, option int) (*SessionView, error)
	Validate(ctx context.Context, sessionID string) (*SessionView, error)
	Advance(ctx context.Context, sessionID string) (*SessionView, error)
	Finish(ctx context.Context, sessionID string) (*Outcome, error)
	Leave(ctx context.Context, sessionID string) error
	ReapIdle(now time.Time) int
	RunReaper(ctx context.Context, interval time.Duration)
	CloseAll()
	Count() int
}

type SessionConfig struct {
	TickInterval time.Duration
	IdleTTL      time.Duration
}

type quizSessionService struct {
	client    quizapi.ClientInterface
	queue     jobs.JobQueue
	finalizer *Finalizer
	cfg       SessionConfig
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewQuizSessionService creates a new QuizSessionService
func NewQuizSessionService(client quizapi.ClientInterface, queue jobs.JobQueue, finalizer *Finalizer, cfg SessionConfig) QuizSessionService {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 2 * time.Hour
	}
	return &quizSessionService{
		client:    client,
		queue:     queue,
		finalizer: finalizer,
		cfg:       cfg,
		now:       time.Now,
		sessions:  make(map[string]*Session),
	}
}

func (s *quizSessionService) Start(ctx context.Context, quizID string) (*SessionView, error) {
	learner, ok := auth.LearnerFromContext(ctx)
	if !ok {
		return nil, errors.NewUnauthorizedError("missing learner")
	}
	if quizID == "" {
		return nil, errors.NewValidationError("quiz_id", "cannot be empty")
	}

	now := s.now()
	sess := &Session{
		ID:         uuid.NewString(),
		AttemptID:  uuid.NewString(),
		LearnerID:  learner.ID,
		QuizID:     quizID,
		CreatedAt:  now,
		status:     StatusLoading,
		token:      auth.TokenFromContext(ctx),
		lastActive: now,
	}

	log := logger.FromContext(ctx).WithFields(map[string]any{
		"session_id": sess.ID,
		"quiz_id":    quizID,
	})
	log.Info("starting quiz session")

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	metrics.SessionsStarted.Inc()
	metrics.ActiveSessions.Inc()

	s.enqueueLoad(log, sess)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.view(), nil
}

// enqueueLoad schedules a fetch; a rejected job fails the load at once.
func (s *quizSessionService) enqueueLoad(log *logger.Logger, sess *Session) {
	if err := s.queue.EnqueueLoad(sess.ID); err != nil {
		log.Warn("failed to enqueue quiz load: %v", err)
		metrics.QuizLoads.WithLabelValues("rejected").Inc()
		sess.mu.Lock()
		if sess.status == StatusLoading && !sess.closed {
			sess.status = StatusLoadFailed
			sess.loadErr = errors.NewLoadFailedError(sess.QuizID, err).Message
		}
		sess.mu.Unlock()
	}
}

// lookup returns the session if it belongs to the learner on ctx. Sessions of
// other learners are reported as not found.
func (s *quizSessionService) lookup(ctx context.Context, sessionID string) (*Session, error) {
	learner, ok := auth.LearnerFromContext(ctx)
	if !ok {
		return nil, errors.NewUnauthorizedError("missing learner")
	}
	s.mu.RLock()
	sess, found := s.sessions[sessionID]
	s.mu.RUnlock()
	if !found || sess.LearnerID != learner.ID {
		return nil, errors.NewNotFoundError("session", sessionID)
	}
	return sess, nil
}

// touch records learner activity. Caller holds sess.mu.
func (s *quizSessionService) touch(ctx context.Context, sess *Session) {
	sess.lastActive = s.now()
	if token := auth.TokenFromContext(ctx); token != "" {
		sess.token = token
	}
}

func (s *quizSessionService) Get(ctx context.Context, sessionID string) (*SessionView, error) {
	sess, err := s.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.view(), nil
}

// LoadSession performs the single quiz fetch of a loading session. It runs on
// the worker pool.
func (s *quizSessionService) LoadSession(ctx context.Context, sessionID string) error {
	s.mu.RLock()
	sess, found := s.sessions[sessionID]
	s.mu.RUnlock()
	if !found {
		return errors.NewNotFoundError("session", sessionID)
	}

	sess.mu.Lock()
	if sess.status != StatusLoading || sess.closed {
		sess.mu.Unlock()
		return nil
	}
	token := sess.token
	sess.mu.Unlock()

	log := logger.FromContext(ctx).WithFields(map[string]any{
		"session_id": sess.ID,
		"quiz_id":    sess.QuizID,
	})
	log.Debug("loading quiz")

	fetchCtx := auth.NewContext(ctx, auth.Learner{ID: sess.LearnerID}, token)
	quiz, fetchErr := s.client.FetchQuiz(fetchCtx, sess.QuizID)

	var state attempt.State
	var loadErr error
	if fetchErr != nil {
		loadErr = errors.NewLoadFailedError(sess.QuizID, fetchErr)
		metrics.QuizLoads.WithLabelValues("failed").Inc()
	} else if state, loadErr = attempt.New(quiz); loadErr != nil {
		metrics.QuizLoads.WithLabelValues("malformed").Inc()
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.status != StatusLoading || sess.closed {
		log.Debug("session left while loading, discarding quiz")
		return nil
	}
	if loadErr != nil {
		log.Warn("quiz load failed: %v", loadErr)
		sess.status = StatusLoadFailed
		sess.loadErr = loadErr.Error()
		var appErr *errors.AppError
		if errors.As(loadErr, &appErr) {
			sess.loadErr = appErr.Message
		}
		return loadErr
	}

	metrics.QuizLoads.WithLabelValues("success").Inc()
	sess.activate(state, s.cfg.TickInterval)
	log.Info("quiz loaded with %d questions, clock started", state.Total())
	return nil
}

func (s *quizSessionService) RetryLoad(ctx context.Context, sessionID string) (*SessionView, error) {
	sess, err := s.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	s.touch(ctx, sess)
	if sess.status != StatusLoadFailed {
		defer sess.mu.Unlock()
		return sess.view(), nil
	}
	sess.status = StatusLoading
	sess.loadErr = ""
	sess.mu.Unlock()

	log := logger.FromContext(ctx).WithFields(map[string]any{
		"session_id": sess.ID,
		"quiz_id":    sess.QuizID,
	})
	log.Info("retrying quiz load")
	s.enqueueLoad(log, sess)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.view(), nil
}

func (s *quizSessionService) dispatch(ctx context.Context, sessionID string, a attempt.Action) (*SessionView, error) {
	sess, err := s.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.touch(ctx, sess)
	if !sess.apply(a) {
		logger.FromContext(ctx).WithField("session_id", sess.ID).Debug("ignored %T in phase %s", a, sess.state.Phase)
	}
	return sess.view(), nil
}

func (s *quizSessionService) Select(ctx context.Context, sessionID string, option int) (*SessionView, error) {
	return s.dispatch(ctx, sessionID, attempt.Select{Option: option})
}

func (s *quizSessionService) Validate(ctx context.Context, sessionID string) (*SessionView, error) {
	return s.dispatch(ctx, sessionID, attempt.Validate{})
}

func (s *quizSessionService) Advance(ctx context.Context, sessionID string) (*SessionView, error) {
	return s.dispatch(ctx, sessionID, attempt.Advance{})
}

// Finish reports the result of a session in Results and tears it down. In any
// other phase it changes nothing and returns the current view.
func (s *quizSessionService) Finish(ctx context.Context, sessionID string) (*Outcome, error) {
	sess, err := s.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	s.touch(ctx, sess)
	if sess.status != StatusActive || sess.state.Phase != attempt.Results {
		defer sess.mu.Unlock()
		return &Outcome{AttemptID: sess.AttemptID, Session: sess.view()}, nil
	}
	sess.status = StatusFinished
	sess.close()
	sub := Submission{
		SessionID: sess.ID,
		AttemptID: sess.AttemptID,
		LearnerID: sess.LearnerID,
		Quiz:      sess.quiz,
		State:     sess.state,
	}
	sess.mu.Unlock()

	s.remove(sess.ID)

	log := logger.FromContext(ctx).WithFields(map[string]any{
		"session_id": sess.ID,
		"attempt_id": sess.AttemptID,
	})
	log.Info("finishing attempt")
	return s.finalizer.Finalize(logger.NewContext(ctx, log), sub), nil
}

func (s *quizSessionService) Leave(ctx context.Context, sessionID string) error {
	sess, err := s.lookup(ctx, sessionID)
	if err != nil {
		return err
	}
	s.teardown(sess)
	logger.FromContext(ctx).WithField("session_id", sessionID).Info("learner left session")
	return nil
}

func (s *quizSessionService) teardown(sess *Session) {
	sess.mu.Lock()
	sess.close()
	sess.mu.Unlock()
	s.remove(sess.ID)
}

func (s *quizSessionService) remove(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; ok {
		delete(s.sessions, sessionID)
		metrics.ActiveSessions.Dec()
	}
}

// ReapIdle tears down sessions without learner activity for longer than the
// idle TTL and returns how many were removed.
func (s *quizSessionService) ReapIdle(now time.Time) int {
	s.mu.RLock()
	var idle []*Session
	for _, sess := range s.sessions {
		if sess.idleSince(now) > s.cfg.IdleTTL {
			idle = append(idle, sess)
		}
	}
	s.mu.RUnlock()

	for _, sess := range idle {
		s.teardown(sess)
		metrics.SessionsReaped.Inc()
	}
	if len(idle) > 0 {
		logger.Default().WithPrefix("reaper").Info("reaped %d idle sessions", len(idle))
	}
	return len(idle)
}

func (s *quizSessionService) RunReaper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ReapIdle(s.now())
		}
	}
}

// CloseAll tears down every live session.
func (s *quizSessionService) CloseAll() {
	s.mu.RLock()
	all := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		all = append(all, sess)
	}
	s.mu.RUnlock()

	for _, sess := range all {
		s.teardown(sess)
	}
	logger.Default().WithPrefix("sessions").Info("closed %d sessions", len(all))
}

func (s *quizSessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
