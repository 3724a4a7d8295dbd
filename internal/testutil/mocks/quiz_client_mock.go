package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/quizrunner/internal/models"
)

// MockQuizClient is a mock implementation of quizapi.ClientInterface
type MockQuizClient struct {
	mock.Mock
}

func (m *MockQuizClient) FetchQuiz(ctx context.Context, quizID string) (*models.Quiz, error) {
	args := m.Called(ctx, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Quiz), args.Error(1)
}

func (m *MockQuizClient) SubmitResult(ctx context.Context, quizID, attemptID string, result models.AttemptResult) error {
	args := m.Called(ctx, quizID, attemptID, result)
	return args.Error(0)
}
