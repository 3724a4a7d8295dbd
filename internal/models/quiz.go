package models

import (
	"fmt"

	"github.com/vytor/quizrunner/internal/errors"
)

// Quiz is the definition fetched from the quiz service. It is never mutated
// once an attempt has started.
type Quiz struct {
	ID         string     `json:"id"`
	Subject    string     `json:"subject"`
	Topic      string     `json:"topic"`
	Difficulty string     `json:"difficulty"`
	Language   string     `json:"language"`
	Questions  []Question `json:"questions"`
}

type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correct_option"`
	Explanation   string   `json:"explanation"`
}

// Validate returns a MALFORMED_QUIZ error when the quiz cannot be taken.
func (q *Quiz) Validate() error {
	if q == nil {
		return errors.NewMalformedQuizError("quiz is missing")
	}
	if len(q.Questions) == 0 {
		return errors.NewMalformedQuizError("quiz has no questions")
	}
	for i, question := range q.Questions {
		if len(question.Options) == 0 {
			return errors.NewMalformedQuizError(fmt.Sprintf("question %d has no options", i+1))
		}
		if question.CorrectOption < 0 || question.CorrectOption >= len(question.Options) {
			return errors.NewMalformedQuizError(fmt.Sprintf(
				"question %d correct_option %d out of range [0,%d)", i+1, question.CorrectOption, len(question.Options)))
		}
	}
	return nil
}

// AttemptResult is the tally reported to the quiz service on finish.
type AttemptResult struct {
	Correct int `json:"correct"`
	Wrong   int `json:"wrong"`
	Time    int `json:"time"`
}
