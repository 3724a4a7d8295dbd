package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	AttemptFinished = "quiz.attempt.finished"
	AttemptLost     = "quiz.attempt.lost"

	eventVersion = "1.0"
)

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// AttemptEvent is published once per finished attempt. Type is AttemptFinished
// when the quiz service accepted the result and AttemptLost when it did not.
type AttemptEvent struct {
	BaseEvent
	AttemptID  string `json:"attempt_id"`
	QuizID     string `json:"quiz_id"`
	LearnerID  string `json:"learner_id"`
	Correct    int    `json:"correct"`
	Wrong      int    `json:"wrong"`
	Time       int    `json:"time"`
	Percentage int    `json:"percentage"`
}

func NewAttemptEvent(eventType string) *AttemptEvent {
	return &AttemptEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.NewString(),
			Type:      eventType,
			Timestamp: time.Now().UTC(),
			Version:   eventVersion,
		},
	}
}
