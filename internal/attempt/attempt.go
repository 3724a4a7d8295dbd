// Package attempt holds the quiz attempt state machine. Reduce is pure: it
// never mutates its input and never performs I/O, so callers own timing,
// persistence and presentation.
package attempt

import (
	"fmt"

	"github.com/vytor/quizrunner/internal/models"
)

type Phase int

const (
	Presenting Phase = iota
	Validated
	Results
)

func (p Phase) String() string {
	switch p {
	case Presenting:
		return "presenting"
	case Validated:
		return "validated"
	case Results:
		return "results"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// NoSelection marks that the learner has not picked an option yet.
const NoSelection = -1

// State is one learner's progress through a quiz.
// Answered == Correct + Wrong and Answered <= CurrentIndex+1 always hold.
type State struct {
	Quiz           *models.Quiz
	CurrentIndex   int
	Selected       int
	Answered       int
	Correct        int
	Wrong          int
	Phase          Phase
	ElapsedSeconds int
}

// New validates quiz and returns the initial state on its first question.
func New(quiz *models.Quiz) (State, error) {
	if err := quiz.Validate(); err != nil {
		return State{}, err
	}
	return State{
		Quiz:     quiz,
		Selected: NoSelection,
		Phase:    Presenting,
	}, nil
}

type Action interface {
	isAction()
}

// Select picks an option on the current question.
type Select struct {
	Option int
}

// Validate locks in the selection and scores it.
type Validate struct{}

// Advance moves past a validated question.
type Advance struct{}

// Tick is one elapsed clock interval.
type Tick struct{}

func (Select) isAction()   {}
func (Validate) isAction() {}
func (Advance) isAction()  {}
func (Tick) isAction()     {}

// Reduce applies a to s. Actions outside their valid phase return s unchanged.
func Reduce(s State, a Action) State {
	if s.Quiz == nil {
		return s
	}

	switch act := a.(type) {
	case Select:
		if s.Phase != Presenting {
			return s
		}
		if act.Option < 0 || act.Option >= len(s.Question().Options) {
			return s
		}
		s.Selected = act.Option

	case Validate:
		if s.Phase != Presenting || s.Selected == NoSelection {
			return s
		}
		if s.Selected == s.Question().CorrectOption {
			s.Correct++
		} else {
			s.Wrong++
		}
		s.Answered++
		s.Phase = Validated

	case Advance:
		if s.Phase != Validated {
			return s
		}
		s.Selected = NoSelection
		if s.CurrentIndex == s.Total()-1 {
			s.Phase = Results
			return s
		}
		s.CurrentIndex++
		s.Phase = Presenting

	case Tick:
		if s.Phase == Results {
			return s
		}
		s.ElapsedSeconds++
	}

	return s
}

// Question returns the question currently shown.
func (s State) Question() models.Question {
	return s.Quiz.Questions[s.CurrentIndex]
}

func (s State) Total() int {
	if s.Quiz == nil {
		return 0
	}
	return len(s.Quiz.Questions)
}

// Revealed reports whether the correct option and explanation may be shown.
func (s State) Revealed() bool {
	return s.Phase == Validated
}

// AnsweredCorrectly is only meaningful while Revealed.
func (s State) AnsweredCorrectly() bool {
	return s.Phase == Validated && s.Selected == s.Question().CorrectOption
}

// Result is the graded outcome shown once the attempt reaches Results.
type Result struct {
	Correct        int    `json:"correct"`
	Wrong          int    `json:"wrong"`
	Total          int    `json:"total"`
	Percentage     int    `json:"percentage"`
	ElapsedSeconds int    `json:"elapsed_seconds"`
	Elapsed        string `json:"elapsed"`
}

func (s State) Result() Result {
	return Result{
		Correct:        s.Correct,
		Wrong:          s.Wrong,
		Total:          s.Total(),
		Percentage:     Percentage(s.Correct, s.Total()),
		ElapsedSeconds: s.ElapsedSeconds,
		Elapsed:        FormatElapsed(s.ElapsedSeconds),
	}
}

// Submission is the payload reported to the quiz service.
func (s State) Submission() models.AttemptResult {
	return models.AttemptResult{
		Correct: s.Correct,
		Wrong:   s.Wrong,
		Time:    s.ElapsedSeconds,
	}
}

// Percentage rounds correct/total*100 half up, in integers.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (correct*200 + total) / (2 * total)
}

// FormatElapsed renders seconds as mm:ss. Minutes are not wrapped into hours.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
