package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vytor/quizrunner/internal/db"
	"github.com/vytor/quizrunner/internal/models"
)

// NewTestDB opens an in-memory SQLite attempt log with all migrations applied.
func NewTestDB(t *testing.T) *db.DB {
	d, err := db.Open(context.Background(), db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	return d
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}

// Quiz returns a valid three-question quiz whose correct options are 1, 0, 1.
func Quiz() *models.Quiz {
	return &models.Quiz{
		ID:         "quiz-1",
		Subject:    "Math",
		Topic:      "Addition",
		Difficulty: "easy",
		Language:   "en",
		Questions: []models.Question{
			{Question: "1+1?", Options: []string{"1", "2", "3"}, CorrectOption: 1, Explanation: "one plus one"},
			{Question: "2+2?", Options: []string{"4", "5"}, CorrectOption: 0, Explanation: "two plus two"},
			{Question: "3+3?", Options: []string{"5", "6", "7"}, CorrectOption: 1, Explanation: "three plus three"},
		},
	}
}
