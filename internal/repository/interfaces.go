package repository

import (
	"context"

	"github.com/vytor/quizrunner/internal/models"
)

// AttemptRepository handles the attempt log: one summary row per finished attempt.
type AttemptRepository interface {
	Insert(ctx context.Context, record models.AttemptRecord) error
	Get(ctx context.Context, attemptID string) (*models.AttemptRecord, error)
	List(ctx context.Context, filter models.AttemptFilter) ([]models.AttemptRecord, error)
	Count(ctx context.Context, filter models.AttemptFilter) (int, error)
	Stats(ctx context.Context, learnerID string) (*models.AttemptStats, error)
}
