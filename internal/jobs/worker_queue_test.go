package jobs_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/quizrunner/internal/jobs"
	"github.com/vytor/quizrunner/internal/worker"
)

type recordingLoader struct {
	ids chan string
}

func (l *recordingLoader) LoadSession(_ context.Context, sessionID string) error {
	l.ids <- sessionID
	return nil
}

func TestWorkerQueue_EnqueueLoad(t *testing.T) {
	pool := worker.NewPool(1, 4)
	pool.Start(context.Background())
	defer pool.Stop()

	loader := &recordingLoader{ids: make(chan string, 1)}
	q := jobs.NewWorkerQueue(pool)
	q.Bind(loader)

	require.NoError(t, q.EnqueueLoad("s-42"))

	select {
	case id := <-loader.ids:
		assert.Equal(t, "s-42", id)
	case <-time.After(time.Second):
		t.Fatal("load job was not run")
	}
}

func TestWorkerQueue_Unbound(t *testing.T) {
	pool := worker.NewPool(1, 1)
	defer pool.Stop()

	err := jobs.NewWorkerQueue(pool).EnqueueLoad("s-1")
	assert.ErrorIs(t, err, jobs.ErrNoLoader)
}

func TestWorkerQueue_ClosedPool(t *testing.T) {
	pool := worker.NewPool(1, 1)
	pool.Stop()

	q := jobs.NewWorkerQueue(pool)
	q.Bind(&recordingLoader{ids: make(chan string, 1)})
	assert.ErrorIs(t, q.EnqueueLoad("s-1"), worker.ErrPoolClosed)
}
