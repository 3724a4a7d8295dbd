package models

import "time"

const (
	SubmissionSubmitted = "submitted"
	SubmissionLost      = "lost"
)

// AttemptRecord is the one-row summary kept for every finished attempt.
type AttemptRecord struct {
	AttemptID      string    `json:"attempt_id"`
	SessionID      string    `json:"session_id"`
	LearnerID      string    `json:"learner_id"`
	QuizID         string    `json:"quiz_id"`
	Subject        string    `json:"subject"`
	Topic          string    `json:"topic"`
	Correct        int       `json:"correct"`
	Wrong          int       `json:"wrong"`
	Total          int       `json:"total"`
	Percentage     int       `json:"percentage"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	Status         string    `json:"status"` // "submitted" or "lost"
	SubmitAttempts int       `json:"submit_attempts"`
	LastError      string    `json:"last_error,omitempty"`
	FinishedAt     time.Time `json:"finished_at"`
}

type AttemptFilter struct {
	LearnerID string
	QuizID    string
	Status    string
	Limit     int
	Offset    int
}

type AttemptStats struct {
	TotalAttempts      int            `json:"total_attempts"`
	Submitted          int            `json:"submitted"`
	Lost               int            `json:"lost"`
	AveragePercentage  float64        `json:"average_percentage"`
	BestPercentages    map[string]int `json:"best_percentages"` // key: quiz id
	AverageTimeSeconds float64        `json:"average_time_seconds"`
}
