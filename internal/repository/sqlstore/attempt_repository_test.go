package sqlstore_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/vytor/quizrunner/internal/db"
	"github.com/vytor/quizrunner/internal/models"
	"github.com/vytor/quizrunner/internal/repository"
	"github.com/vytor/quizrunner/internal/repository/sqlstore"
	"github.com/vytor/quizrunner/internal/testutil"
)

type AttemptRepositorySuite struct {
	suite.Suite
	db   *db.DB
	repo repository.AttemptRepository
}

func (s *AttemptRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlstore.NewAttemptRepository(s.db)
}

func (s *AttemptRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func record(id, learner, quiz, status string, pct int, finished time.Time) models.AttemptRecord {
	return models.AttemptRecord{
		AttemptID:      id,
		SessionID:      "session-" + id,
		LearnerID:      learner,
		QuizID:         quiz,
		Subject:        "Math",
		Topic:          "Addition",
		Correct:        pct / 10,
		Wrong:          10 - pct/10,
		Total:          10,
		Percentage:     pct,
		ElapsedSeconds: 60,
		Status:         status,
		SubmitAttempts: 1,
		FinishedAt:     finished,
	}
}

func (s *AttemptRepositorySuite) TestInsertAndGet() {
	ctx := context.Background()
	finished := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	rec := record("a1", "learner-1", "quiz-1", models.SubmissionLost, 67, finished)
	rec.LastError = "status 503"
	rec.SubmitAttempts = 3
	s.Require().NoError(s.repo.Insert(ctx, rec))

	got, err := s.repo.Get(ctx, "a1")
	s.Require().NoError(err)
	s.Assert().Equal("learner-1", got.LearnerID)
	s.Assert().Equal(models.SubmissionLost, got.Status)
	s.Assert().Equal(67, got.Percentage)
	s.Assert().Equal(3, got.SubmitAttempts)
	s.Assert().Equal("status 503", got.LastError)
	s.Assert().True(finished.Equal(got.FinishedAt))
}

func (s *AttemptRepositorySuite) TestInsert_DuplicateIsIgnored() {
	ctx := context.Background()
	now := time.Now()

	s.Require().NoError(s.repo.Insert(ctx, record("a1", "l", "q", models.SubmissionSubmitted, 100, now)))
	s.Require().NoError(s.repo.Insert(ctx, record("a1", "l", "q", models.SubmissionLost, 0, now)))

	got, err := s.repo.Get(ctx, "a1")
	s.Require().NoError(err)
	s.Assert().Equal(models.SubmissionSubmitted, got.Status)
}

func (s *AttemptRepositorySuite) TestGet_NotFound() {
	got, err := s.repo.Get(context.Background(), "missing")
	s.Assert().ErrorIs(err, sql.ErrNoRows)
	s.Assert().Nil(got)
}

func (s *AttemptRepositorySuite) TestListAndCount() {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	s.Require().NoError(s.repo.Insert(ctx, record("a1", "l1", "q1", models.SubmissionSubmitted, 50, base)))
	s.Require().NoError(s.repo.Insert(ctx, record("a2", "l1", "q1", models.SubmissionLost, 80, base.Add(time.Hour))))
	s.Require().NoError(s.repo.Insert(ctx, record("a3", "l1", "q2", models.SubmissionSubmitted, 90, base.Add(2*time.Hour))))
	s.Require().NoError(s.repo.Insert(ctx, record("a4", "l2", "q1", models.SubmissionSubmitted, 10, base)))

	all, err := s.repo.List(ctx, models.AttemptFilter{LearnerID: "l1"})
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Assert().Equal("a3", all[0].AttemptID, "newest first")
	s.Assert().Equal("a1", all[2].AttemptID)

	byQuiz, err := s.repo.List(ctx, models.AttemptFilter{LearnerID: "l1", QuizID: "q1"})
	s.Require().NoError(err)
	s.Assert().Len(byQuiz, 2)

	lost, err := s.repo.List(ctx, models.AttemptFilter{LearnerID: "l1", Status: models.SubmissionLost})
	s.Require().NoError(err)
	s.Require().Len(lost, 1)
	s.Assert().Equal("a2", lost[0].AttemptID)

	page, err := s.repo.List(ctx, models.AttemptFilter{LearnerID: "l1", Limit: 1, Offset: 1})
	s.Require().NoError(err)
	s.Require().Len(page, 1)
	s.Assert().Equal("a2", page[0].AttemptID)

	count, err := s.repo.Count(ctx, models.AttemptFilter{LearnerID: "l1"})
	s.Require().NoError(err)
	s.Assert().Equal(3, count)
}

func (s *AttemptRepositorySuite) TestStats() {
	ctx := context.Background()
	now := time.Now()

	s.Require().NoError(s.repo.Insert(ctx, record("a1", "l1", "q1", models.SubmissionSubmitted, 50, now)))
	s.Require().NoError(s.repo.Insert(ctx, record("a2", "l1", "q1", models.SubmissionLost, 80, now)))
	s.Require().NoError(s.repo.Insert(ctx, record("a3", "l1", "q2", models.SubmissionSubmitted, 90, now)))
	s.Require().NoError(s.repo.Insert(ctx, record("a4", "l2", "q1", models.SubmissionSubmitted, 10, now)))

	stats, err := s.repo.Stats(ctx, "l1")
	s.Require().NoError(err)
	s.Assert().Equal(3, stats.TotalAttempts)
	s.Assert().Equal(2, stats.Submitted)
	s.Assert().Equal(1, stats.Lost)
	s.Assert().InDelta(73.33, stats.AveragePercentage, 0.01)
	s.Assert().InDelta(60.0, stats.AverageTimeSeconds, 0.01)
	s.Assert().Equal(map[string]int{"q1": 80, "q2": 90}, stats.BestPercentages)
}

func (s *AttemptRepositorySuite) TestStats_Empty() {
	stats, err := s.repo.Stats(context.Background(), "nobody")
	s.Require().NoError(err)
	s.Assert().Zero(stats.TotalAttempts)
	s.Assert().Zero(stats.AveragePercentage)
	s.Assert().Empty(stats.BestPercentages)
}

func TestAttemptRepositorySuite(t *testing.T) {
	suite.Run(t, new(AttemptRepositorySuite))
}
