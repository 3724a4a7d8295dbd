package services_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/quizrunner/internal/attempt"
	"github.com/vytor/quizrunner/internal/events"
	"github.com/vytor/quizrunner/internal/models"
	"github.com/vytor/quizrunner/internal/quizapi"
	"github.com/vytor/quizrunner/internal/services"
	"github.com/vytor/quizrunner/internal/testutil"
	"github.com/vytor/quizrunner/internal/testutil/mocks"
)

func finishedSubmission(t *testing.T) services.Submission {
	t.Helper()
	quiz := testutil.Quiz()
	s, err := attempt.New(quiz)
	require.NoError(t, err)
	for _, option := range []int{1, 0, 0} {
		s = attempt.Reduce(s, attempt.Tick{})
		s = attempt.Reduce(s, attempt.Select{Option: option})
		s = attempt.Reduce(s, attempt.Validate{})
		s = attempt.Reduce(s, attempt.Advance{})
	}
	require.Equal(t, attempt.Results, s.Phase)
	return services.Submission{
		SessionID: "s-1",
		AttemptID: "a-1",
		LearnerID: "learner-1",
		Quiz:      quiz,
		State:     s,
	}
}

func finalizerConfig() services.FinalizerConfig {
	return services.FinalizerConfig{
		MaxAttempts:   3,
		Backoff:       time.Millisecond,
		Timeout:       time.Second,
		ListingPath:   "/student/quizzes",
		DashboardPath: "/student",
	}
}

func TestFinalize_RetriesThenSucceeds(t *testing.T) {
	client := new(mocks.MockQuizClient)
	repo := new(mocks.MockAttemptRepository)
	pub := new(mocks.MockPublisher)

	want := models.AttemptResult{Correct: 2, Wrong: 1, Time: 3}
	client.On("SubmitResult", mock.Anything, "quiz-1", "a-1", want).
		Return(stderrors.New("connection reset")).Once()
	client.On("SubmitResult", mock.Anything, "quiz-1", "a-1", want).Return(nil).Once()
	repo.On("Insert", mock.Anything, mock.MatchedBy(func(r models.AttemptRecord) bool {
		return r.Status == models.SubmissionSubmitted && r.SubmitAttempts == 2 &&
			r.Correct == 2 && r.Wrong == 1 && r.Total == 3 && r.Percentage == 67 &&
			r.ElapsedSeconds == 3 && r.Subject == "Math" && r.LastError == ""
	})).Return(nil).Once()
	pub.On("PublishAttempt", mock.Anything, mock.MatchedBy(func(e *events.AttemptEvent) bool {
		return e.Type == events.AttemptFinished && e.AttemptID == "a-1" && e.Percentage == 67
	})).Return(nil).Once()

	out := services.NewFinalizer(client, repo, pub, finalizerConfig()).Finalize(context.Background(), finishedSubmission(t))

	assert.True(t, out.Submitted)
	assert.Equal(t, "/student/quizzes", out.Destination)
	require.NotNil(t, out.Result)
	assert.Equal(t, 67, out.Result.Percentage)
	assert.Equal(t, "00:03", out.Result.Elapsed)
	client.AssertExpectations(t)
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestFinalize_NonRetryableStopsAtOnce(t *testing.T) {
	client := new(mocks.MockQuizClient)
	repo := new(mocks.MockAttemptRepository)
	pub := new(mocks.MockPublisher)

	client.On("SubmitResult", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&quizapi.StatusError{StatusCode: 422, Body: "bad tally"})
	repo.On("Insert", mock.Anything, mock.MatchedBy(func(r models.AttemptRecord) bool {
		return r.Status == models.SubmissionLost && r.SubmitAttempts == 1
	})).Return(nil)
	pub.On("PublishAttempt", mock.Anything, mock.MatchedBy(func(e *events.AttemptEvent) bool {
		return e.Type == events.AttemptLost
	})).Return(nil)

	out := services.NewFinalizer(client, repo, pub, finalizerConfig()).Finalize(context.Background(), finishedSubmission(t))

	assert.False(t, out.Submitted)
	assert.Equal(t, "/student", out.Destination)
	assert.Equal(t, services.SubmissionFailedNotice, out.Notice)
	client.AssertNumberOfCalls(t, "SubmitResult", 1)
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestFinalize_BoundedRetry(t *testing.T) {
	client := new(mocks.MockQuizClient)
	client.On("SubmitResult", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&quizapi.StatusError{StatusCode: 503})

	cfg := finalizerConfig()
	cfg.MaxAttempts = 2
	out := services.NewFinalizer(client, nil, nil, cfg).Finalize(context.Background(), finishedSubmission(t))

	assert.False(t, out.Submitted)
	client.AssertNumberOfCalls(t, "SubmitResult", 2)
}

func TestFinalize_SideEffectFailuresAreNotFatal(t *testing.T) {
	client := new(mocks.MockQuizClient)
	repo := new(mocks.MockAttemptRepository)
	pub := new(mocks.MockPublisher)

	client.On("SubmitResult", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	repo.On("Insert", mock.Anything, mock.Anything).Return(stderrors.New("disk full"))
	pub.On("PublishAttempt", mock.Anything, mock.Anything).Return(stderrors.New("broker down"))

	out := services.NewFinalizer(client, repo, pub, finalizerConfig()).Finalize(context.Background(), finishedSubmission(t))

	assert.True(t, out.Submitted)
	assert.Equal(t, "/student/quizzes", out.Destination)
}

func TestFinalize_IgnoresCallerCancellation(t *testing.T) {
	client := new(mocks.MockQuizClient)
	client.On("SubmitResult", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	}), mock.Anything, mock.Anything, mock.Anything).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := services.NewFinalizer(client, nil, nil, finalizerConfig()).Finalize(ctx, finishedSubmission(t))
	assert.True(t, out.Submitted)
}
