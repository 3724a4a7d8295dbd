package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/quizrunner/internal/errors"
	"github.com/vytor/quizrunner/internal/models"
)

func TestQuizValidate(t *testing.T) {
	valid := models.Question{Question: "2+2?", Options: []string{"3", "4"}, CorrectOption: 1}

	tests := []struct {
		name    string
		quiz    *models.Quiz
		wantErr string
	}{
		{name: "valid", quiz: &models.Quiz{ID: "q", Questions: []models.Question{valid}}},
		{name: "nil quiz", quiz: nil, wantErr: "missing"},
		{name: "no questions", quiz: &models.Quiz{ID: "q"}, wantErr: "no questions"},
		{
			name:    "no options",
			quiz:    &models.Quiz{ID: "q", Questions: []models.Question{valid, {Question: "empty"}}},
			wantErr: "question 2 has no options",
		},
		{
			name:    "correct option too large",
			quiz:    &models.Quiz{ID: "q", Questions: []models.Question{{Options: []string{"a", "b"}, CorrectOption: 2}}},
			wantErr: "out of range",
		},
		{
			name:    "negative correct option",
			quiz:    &models.Quiz{ID: "q", Questions: []models.Question{{Options: []string{"a"}, CorrectOption: -1}}},
			wantErr: "out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.quiz.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeMalformedQuiz))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
