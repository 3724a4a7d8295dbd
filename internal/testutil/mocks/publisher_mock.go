package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/quizrunner/internal/events"
)

// MockPublisher is a mock implementation of events.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishAttempt(ctx context.Context, event *events.AttemptEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
