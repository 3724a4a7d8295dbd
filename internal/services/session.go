package services

import (
	"sync"
	"time"

	"github.com/vytor/quizrunner/internal/attempt"
	"github.com/vytor/quizrunner/internal/clock"
	"github.com/vytor/quizrunner/internal/models"
)

type SessionStatus string

const (
	StatusLoading    SessionStatus = "loading"
	StatusLoadFailed SessionStatus = "load_failed"
	StatusActive     SessionStatus = "active"
	StatusFinished   SessionStatus = "finished"
)

// Session is one learner's attempt at one quiz. Every mutation, clock ticks
// included, goes through mu.
type Session struct {
	ID        string
	AttemptID string
	LearnerID string
	QuizID    string
	CreatedAt time.Time

	mu         sync.Mutex
	status     SessionStatus
	loadErr    string
	quiz       *models.Quiz
	state      attempt.State
	clock      *clock.Clock
	token      string
	lastActive time.Time
	closed     bool
}

// activate installs the loaded quiz and starts the clock. Caller holds mu.
func (s *Session) activate(state attempt.State, tick time.Duration) {
	s.quiz = state.Quiz
	s.state = state
	s.status = StatusActive
	s.loadErr = ""
	s.clock = clock.New(tick, s.tick)
	s.clock.Start()
}

func (s *Session) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusActive {
		return
	}
	s.state = attempt.Reduce(s.state, attempt.Tick{})
}

// apply runs a learner action through the reducer. It reports whether the
// state changed. Caller holds mu.
func (s *Session) apply(a attempt.Action) bool {
	if s.status != StatusActive {
		return false
	}
	prev := s.state
	s.state = attempt.Reduce(prev, a)
	if s.state.Phase == attempt.Results && prev.Phase != attempt.Results {
		s.stopClock()
	}
	return s.state != prev
}

func (s *Session) stopClock() {
	if s.clock != nil {
		s.clock.Stop()
	}
}

// close releases the clock and marks the session as gone. Caller holds mu.
func (s *Session) close() {
	s.closed = true
	s.stopClock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastActive)
}

// QuizInfo is the display metadata of the loaded quiz.
type QuizInfo struct {
	ID             string `json:"id"`
	Subject        string `json:"subject"`
	Topic          string `json:"topic"`
	Difficulty     string `json:"difficulty"`
	Language       string `json:"language"`
	TotalQuestions int    `json:"total_questions"`
}

// QuestionView is the current question as the learner may see it. The
// correct option and explanation are only set once the answer is validated.
type QuestionView struct {
	Index             int      `json:"index"`
	Number            int      `json:"number"`
	Prompt            string   `json:"prompt"`
	Options           []string `json:"options"`
	Selected          *int     `json:"selected,omitempty"`
	CorrectOption     *int     `json:"correct_option,omitempty"`
	AnsweredCorrectly *bool    `json:"answered_correctly,omitempty"`
	Explanation       string   `json:"explanation,omitempty"`
}

type SessionView struct {
	ID             string          `json:"id"`
	AttemptID      string          `json:"attempt_id"`
	QuizID         string          `json:"quiz_id"`
	Status         SessionStatus   `json:"status"`
	LoadError      string          `json:"load_error,omitempty"`
	Quiz           *QuizInfo       `json:"quiz,omitempty"`
	Phase          string          `json:"phase,omitempty"`
	Question       *QuestionView   `json:"question,omitempty"`
	Answered       int             `json:"answered"`
	Correct        int             `json:"correct"`
	Wrong          int             `json:"wrong"`
	ElapsedSeconds int             `json:"elapsed_seconds"`
	Elapsed        string          `json:"elapsed"`
	Result         *attempt.Result `json:"result,omitempty"`
}

// view snapshots the session. Caller holds mu.
func (s *Session) view() *SessionView {
	v := &SessionView{
		ID:        s.ID,
		AttemptID: s.AttemptID,
		QuizID:    s.QuizID,
		Status:    s.status,
		LoadError: s.loadErr,
		Elapsed:   attempt.FormatElapsed(0),
	}
	if s.quiz == nil {
		return v
	}

	st := s.state
	v.Quiz = &QuizInfo{
		ID:             s.quiz.ID,
		Subject:        s.quiz.Subject,
		Topic:          s.quiz.Topic,
		Difficulty:     s.quiz.Difficulty,
		Language:       s.quiz.Language,
		TotalQuestions: st.Total(),
	}
	v.Phase = st.Phase.String()
	v.Answered = st.Answered
	v.Correct = st.Correct
	v.Wrong = st.Wrong
	v.ElapsedSeconds = st.ElapsedSeconds
	v.Elapsed = attempt.FormatElapsed(st.ElapsedSeconds)

	if st.Phase == attempt.Results {
		res := st.Result()
		v.Result = &res
		return v
	}

	q := st.Question()
	qv := &QuestionView{
		Index:   st.CurrentIndex,
		Number:  st.CurrentIndex + 1,
		Prompt:  q.Question,
		Options: append([]string(nil), q.Options...),
	}
	if st.Selected != attempt.NoSelection {
		selected := st.Selected
		qv.Selected = &selected
	}
	if st.Revealed() {
		correct := q.CorrectOption
		ok := st.AnsweredCorrectly()
		qv.CorrectOption = &correct
		qv.AnsweredCorrectly = &ok
		qv.Explanation = q.Explanation
	}
	v.Question = qv
	return v
}
