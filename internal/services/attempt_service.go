package services

import (
	"context"
	"database/sql"

	"github.com/vytor/quizrunner/internal/auth"
	"github.com/vytor/quizrunner/internal/errors"
	"github.com/vytor/quizrunner/internal/logger"
	"github.com/vytor/quizrunner/internal/models"
	"github.com/vytor/quizrunner/internal/repository"
)

const maxAttemptPageSize = 200

// AttemptService exposes the attempt log of the learner on the context.
type AttemptService interface {
	ListAttempts(ctx context.Context, filter models.AttemptFilter) ([]models.AttemptRecord, int, error)
	GetAttempt(ctx context.Context, attemptID string) (*models.AttemptRecord, error)
	Stats(ctx context.Context) (*models.AttemptStats, error)
}

type attemptService struct {
	attemptRepo repository.AttemptRepository
}

// NewAttemptService creates a new AttemptService
func NewAttemptService(attemptRepo repository.AttemptRepository) AttemptService {
	return &attemptService{attemptRepo: attemptRepo}
}

func learnerID(ctx context.Context) (string, error) {
	learner, ok := auth.LearnerFromContext(ctx)
	if !ok {
		return "", errors.NewUnauthorizedError("missing learner")
	}
	return learner.ID, nil
}

func (s *attemptService) ListAttempts(ctx context.Context, filter models.AttemptFilter) ([]models.AttemptRecord, int, error) {
	log := logger.FromContext(ctx)

	id, err := learnerID(ctx)
	if err != nil {
		return nil, 0, err
	}
	filter.LearnerID = id

	if filter.Status != "" && filter.Status != models.SubmissionSubmitted && filter.Status != models.SubmissionLost {
		return nil, 0, errors.NewValidationError("status", "must be submitted or lost")
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, 0, errors.NewValidationError("limit", "limit and offset cannot be negative")
	}
	if filter.Limit > maxAttemptPageSize {
		filter.Limit = maxAttemptPageSize
	}

	log.Debug("listing attempts: quiz_id=%s, status=%s, limit=%d, offset=%d",
		filter.QuizID, filter.Status, filter.Limit, filter.Offset)

	attempts, err := s.attemptRepo.List(ctx, filter)
	if err != nil {
		log.Error("failed to list attempts: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}
	total, err := s.attemptRepo.Count(ctx, filter)
	if err != nil {
		log.Error("failed to count attempts: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}
	if attempts == nil {
		attempts = []models.AttemptRecord{}
	}
	return attempts, total, nil
}

func (s *attemptService) GetAttempt(ctx context.Context, attemptID string) (*models.AttemptRecord, error) {
	log := logger.FromContext(ctx)

	id, err := learnerID(ctx)
	if err != nil {
		return nil, err
	}

	record, err := s.attemptRepo.Get(ctx, attemptID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("attempt", attemptID)
		}
		log.Error("failed to get attempt: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if record == nil || record.LearnerID != id {
		return nil, errors.NewNotFoundError("attempt", attemptID)
	}
	return record, nil
}

func (s *attemptService) Stats(ctx context.Context) (*models.AttemptStats, error) {
	log := logger.FromContext(ctx)

	id, err := learnerID(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := s.attemptRepo.Stats(ctx, id)
	if err != nil {
		log.Error("failed to compute attempt stats: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return stats, nil
}
