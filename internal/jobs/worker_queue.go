package jobs

import (
	"errors"
	"sync"

	"github.com/vytor/quizrunner/internal/worker"
)

var ErrNoLoader = errors.New("job queue has no session loader bound")

// WorkerQueue implements JobQueue using a worker pool
type WorkerQueue struct {
	loadPool *worker.Pool

	mu     sync.RWMutex
	loader worker.SessionLoader
}

// NewWorkerQueue creates a new WorkerQueue implementation. The session
// loader is bound afterwards with Bind, since it depends on the queue.
func NewWorkerQueue(loadPool *worker.Pool) *WorkerQueue {
	return &WorkerQueue{loadPool: loadPool}
}

func (q *WorkerQueue) Bind(loader worker.SessionLoader) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.loader = loader
}

func (q *WorkerQueue) EnqueueLoad(sessionID string) error {
	q.mu.RLock()
	loader := q.loader
	q.mu.RUnlock()
	if loader == nil {
		return ErrNoLoader
	}
	return q.loadPool.Submit(&worker.LoadQuizJob{
		Loader:    loader,
		SessionID: sessionID,
	})
}

var _ JobQueue = (*WorkerQueue)(nil)
