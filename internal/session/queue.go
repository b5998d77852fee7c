package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Queue runs jobs in strict submission order per user while letting different
// users proceed concurrently. A worker goroutine exists only while its user has
// pending jobs.
type Queue struct {
	mu      sync.Mutex
	pending map[int64][]func()
	closed  bool
	wg      sync.WaitGroup
	logger  *slog.Logger
}

// NewQueue creates an empty queue.
func NewQueue(logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Queue{
		pending: make(map[int64][]func()),
		logger:  logger.With("component", "session_queue"),
	}
}

// Submit appends job to userID's queue. It returns false once the queue is closed.
func (q *Queue) Submit(userID int64, job func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	jobs, running := q.pending[userID]
	q.pending[userID] = append(jobs, job)
	if !running {
		q.wg.Add(1)
		go q.drain(userID)
	}
	return true
}

func (q *Queue) drain(userID int64) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		jobs := q.pending[userID]
		if len(jobs) == 0 {
			delete(q.pending, userID)
			q.mu.Unlock()
			return
		}
		job := jobs[0]
		jobs[0] = nil
		q.pending[userID] = jobs[1:]
		q.mu.Unlock()

		q.run(userID, job)
	}
}

func (q *Queue) run(userID int64, job func()) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("Recovered from panic in queued job", "user_id", userID, "panic", fmt.Sprint(r))
		}
	}()
	job()
}

// Close stops accepting jobs and waits for queued ones to finish or ctx to end.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("session queue did not drain: %w", ctx.Err())
	}
}
