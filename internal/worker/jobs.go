package worker

import "context"

// SessionLoader fetches the quiz of a session. Defined here to avoid an
// import cycle with the services package.
type SessionLoader interface {
	LoadSession(ctx context.Context, sessionID string) error
}

// LoadQuizJob performs one quiz fetch for a session in the loading state.
type LoadQuizJob struct {
	Loader    SessionLoader
	SessionID string
}

func (j *LoadQuizJob) Name() string { return "load_quiz" }

func (j *LoadQuizJob) Run(ctx context.Context) error {
	return j.Loader.LoadSession(ctx, j.SessionID)
}
