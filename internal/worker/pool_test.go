package worker_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/quizrunner/internal/worker"
)

type funcJob struct {
	name string
	fn   func(ctx context.Context) error
}

func (j funcJob) Name() string                  { return j.name }
func (j funcJob) Run(ctx context.Context) error { return j.fn(ctx) }

type loaderFunc func(ctx context.Context, sessionID string) error

func (f loaderFunc) LoadSession(ctx context.Context, sessionID string) error { return f(ctx, sessionID) }

func TestPool_RunsJobs(t *testing.T) {
	p := worker.NewPool(2, 8)
	p.Start(context.Background())
	defer p.Stop()

	var wg sync.WaitGroup
	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		wg.Add(1)
		require.NoError(t, p.Submit(funcJob{name: "count", fn: func(context.Context) error {
			defer wg.Done()
			ran.Add(1)
			return nil
		}}))
	}
	wg.Wait()
	assert.Equal(t, int32(5), ran.Load())
}

func TestPool_FailingAndPanickingJobsKeepWorkerAlive(t *testing.T) {
	p := worker.NewPool(1, 4)
	p.Start(context.Background())
	defer p.Stop()

	done := make(chan struct{})
	require.NoError(t, p.Submit(funcJob{name: "fail", fn: func(context.Context) error { return errors.New("boom") }}))
	require.NoError(t, p.Submit(funcJob{name: "panic", fn: func(context.Context) error { panic("boom") }}))
	require.NoError(t, p.Submit(funcJob{name: "ok", fn: func(context.Context) error { close(done); return nil }}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not survive failing jobs")
	}
}

func TestPool_SubmitWhenFull(t *testing.T) {
	p := worker.NewPool(1, 1)
	block := func(context.Context) error { return nil }

	// Not started: the single slot fills and the next submit is rejected.
	require.NoError(t, p.Submit(funcJob{name: "a", fn: block}))
	assert.ErrorIs(t, p.Submit(funcJob{name: "b", fn: block}), worker.ErrQueueFull)
	assert.Equal(t, 1, p.QueueSize())

	p.Stop()
}

func TestPool_SubmitAfterStop(t *testing.T) {
	p := worker.NewPool(1, 1)
	p.Start(context.Background())
	p.Stop()

	err := p.Submit(funcJob{name: "late", fn: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, worker.ErrPoolClosed)
	assert.NotPanics(t, p.Stop)
}

func TestLoadQuizJob(t *testing.T) {
	var got string
	job := &worker.LoadQuizJob{
		SessionID: "s-1",
		Loader: loaderFunc(func(_ context.Context, id string) error {
			got = id
			return nil
		}),
	}

	assert.Equal(t, "load_quiz", job.Name())
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, "s-1", got)
}
