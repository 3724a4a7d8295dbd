package quizapi

import (
	"context"

	"github.com/vytor/quizrunner/internal/models"
)

// ClientInterface is the quiz service boundary used by the session engine.
type ClientInterface interface {
	FetchQuiz(ctx context.Context, quizID string) (*models.Quiz, error)
	SubmitResult(ctx context.Context, quizID, attemptID string, result models.AttemptResult) error
}

var _ ClientInterface = (*Client)(nil)
