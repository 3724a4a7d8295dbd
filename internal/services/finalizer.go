package services

import (
	"context"
	"time"

	"github.com/vytor/quizrunner/internal/attempt"
	"github.com/vytor/quizrunner/internal/errors"
	"github.com/vytor/quizrunner/internal/events"
	"github.com/vytor/quizrunner/internal/logger"
	"github.com/vytor/quizrunner/internal/metrics"
	"github.com/vytor/quizrunner/internal/models"
	"github.com/vytor/quizrunner/internal/quizapi"
	"github.com/vytor/quizrunner/internal/repository"
)

const (
	maxSubmitBackoff = 5 * time.Second

	SubmissionFailedNotice = "Your result could not be submitted. It was not saved to your record."
)

type FinalizerConfig struct {
	MaxAttempts   int
	Backoff       time.Duration
	Timeout       time.Duration // per submission request
	ListingPath   string
	DashboardPath string
}

// Outcome is what the learner gets back from Finish.
type Outcome struct {
	Finished    bool            `json:"finished"`
	Destination string          `json:"destination,omitempty"`
	Submitted   bool            `json:"submitted"`
	Notice      string          `json:"notice,omitempty"`
	AttemptID   string          `json:"attempt_id"`
	Result      *attempt.Result `json:"result,omitempty"`
	Session     *SessionView    `json:"session,omitempty"`
}

// Submission is a finished attempt ready to be reported.
type Submission struct {
	SessionID string
	AttemptID string
	LearnerID string
	Quiz      *models.Quiz
	State     attempt.State
}

// Finalizer reports results with bounded retry, then records the attempt and
// publishes its event. It never returns an error to the caller.
type Finalizer struct {
	client    quizapi.ClientInterface
	attempts  repository.AttemptRepository
	publisher events.Publisher
	cfg       FinalizerConfig
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewFinalizer(client quizapi.ClientInterface, attempts repository.AttemptRepository, publisher events.Publisher, cfg FinalizerConfig) *Finalizer {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Finalizer{
		client:    client,
		attempts:  attempts,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
		sleep:     sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// budget bounds the whole submission: every try plus every backoff wait.
func (f *Finalizer) budget() time.Duration {
	total := time.Duration(f.cfg.MaxAttempts) * f.cfg.Timeout
	backoff := f.cfg.Backoff
	for i := 1; i < f.cfg.MaxAttempts; i++ {
		total += backoff
		backoff = nextBackoff(backoff)
	}
	return total
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxSubmitBackoff {
		return maxSubmitBackoff
	}
	return d
}

func (f *Finalizer) Finalize(ctx context.Context, sub Submission) *Outcome {
	// The learner navigating away must not cancel the report.
	ctx = context.WithoutCancel(ctx)
	log := logger.FromContext(ctx).WithPrefix("finalizer").WithFields(map[string]any{
		"attempt_id": sub.AttemptID,
		"quiz_id":    sub.Quiz.ID,
	})

	result := sub.State.Result()
	payload := sub.State.Submission()

	start := time.Now()
	tries, err := f.submit(ctx, log, sub.Quiz.ID, sub.AttemptID, payload)

	status := models.SubmissionSubmitted
	if err != nil {
		status = models.SubmissionLost
	}
	metrics.SubmitDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	metrics.AttemptsFinished.WithLabelValues(status).Inc()

	record := models.AttemptRecord{
		AttemptID:      sub.AttemptID,
		SessionID:      sub.SessionID,
		LearnerID:      sub.LearnerID,
		QuizID:         sub.Quiz.ID,
		Subject:        sub.Quiz.Subject,
		Topic:          sub.Quiz.Topic,
		Correct:        result.Correct,
		Wrong:          result.Wrong,
		Total:          result.Total,
		Percentage:     result.Percentage,
		ElapsedSeconds: result.ElapsedSeconds,
		Status:         status,
		SubmitAttempts: tries,
		FinishedAt:     f.now(),
	}
	if err != nil {
		record.LastError = err.Error()
	}
	if f.attempts != nil {
		if rerr := f.attempts.Insert(ctx, record); rerr != nil {
			log.Warn("failed to record attempt: %v", rerr)
		}
	}
	f.publish(ctx, log, sub, result, status)

	out := &Outcome{
		Finished:  true,
		Submitted: err == nil,
		AttemptID: sub.AttemptID,
		Result:    &result,
	}
	if err != nil {
		log.WithError(errors.NewSubmissionFailedError(tries, err)).
			Warn("result lost after %d tries, sending learner to dashboard", tries)
		out.Destination = f.cfg.DashboardPath
		out.Notice = SubmissionFailedNotice
		return out
	}

	log.Info("result submitted after %d tries", tries)
	out.Destination = f.cfg.ListingPath
	return out
}

// submit tries at most MaxAttempts times, waiting between retryable failures.
func (f *Finalizer) submit(ctx context.Context, log *logger.Logger, quizID, attemptID string, payload models.AttemptResult) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, f.budget())
	defer cancel()

	backoff := f.cfg.Backoff
	var err error
	tries := 0
	for tries < f.cfg.MaxAttempts {
		tries++
		err = f.client.SubmitResult(ctx, quizID, attemptID, payload)
		if err == nil {
			metrics.SubmitTries.WithLabelValues("success").Inc()
			return tries, nil
		}
		metrics.SubmitTries.WithLabelValues("failure").Inc()

		if !quizapi.Retryable(err) {
			log.Warn("submission failed with non-retryable error: %v", err)
			return tries, err
		}
		if tries == f.cfg.MaxAttempts {
			break
		}
		log.Debug("submission try %d failed, retrying in %v: %v", tries, backoff, err)
		if serr := f.sleep(ctx, backoff); serr != nil {
			return tries, err
		}
		backoff = nextBackoff(backoff)
	}
	return tries, err
}

func (f *Finalizer) publish(ctx context.Context, log *logger.Logger, sub Submission, result attempt.Result, status string) {
	if f.publisher == nil {
		return
	}
	eventType := events.AttemptFinished
	if status == models.SubmissionLost {
		eventType = events.AttemptLost
	}
	ev := events.NewAttemptEvent(eventType)
	ev.AttemptID = sub.AttemptID
	ev.QuizID = sub.Quiz.ID
	ev.LearnerID = sub.LearnerID
	ev.Correct = result.Correct
	ev.Wrong = result.Wrong
	ev.Time = result.ElapsedSeconds
	ev.Percentage = result.Percentage
	if err := f.publisher.PublishAttempt(ctx, ev); err != nil {
		log.Warn("failed to publish %s event: %v", eventType, err)
	}
}
