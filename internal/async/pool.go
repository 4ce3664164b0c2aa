package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

type WorkerPool struct {
	handler Handler
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*WorkerPool)

func WithWorkers(n int) Option {
	return func(q *WorkerPool) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *WorkerPool) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

// WithJobTimeout bounds each job. Zero leaves only the run context.
func WithJobTimeout(d time.Duration) Option {
	return func(q *WorkerPool) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// NewWorkerPool starts the workers. Every job runs under a context derived from ctx,
// so cancelling ctx abandons in-flight jobs.
func NewWorkerPool(ctx context.Context, handler Handler, logger *slog.Logger, opts ...Option) *WorkerPool {
	if logger == nil {
		logger = slog.Default()
	}
	q := &WorkerPool{
		handler: handler,
		logger:  logger,
		workers: 4,
		ch:      make(chan Job, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start(ctx)
	return q
}

func (q *WorkerPool) start(ctx context.Context) {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("worker.started", "worker_id", workerID)

				for job := range q.ch {
					jctx, cancel := ctx, context.CancelFunc(func() {})
					if q.timeout > 0 {
						jctx, cancel = context.WithTimeout(ctx, q.timeout)
					}
					err := q.handler(jctx, job)
					cancel()

					if err != nil {
						q.logger.Error("worker.job.failed", "worker_id", workerID, "doc", job.Doc.Key(), "error", err)
					} else {
						q.logger.Debug("worker.job.done", "worker_id", workerID, "doc", job.Doc.Key(),
							"waited", time.Since(job.SubmittedAt))
					}
				}

				q.logger.Debug("worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Enqueue blocks while the queue is full, until ctx is done.
func (q *WorkerPool) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		return nil
	default:
	}
	q.logger.Debug("queue.full", "doc", job.Doc.Key())
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for queued ones to drain or ctx to end.
func (q *WorkerPool) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("queue.shutdown.interrupted")
	case <-done:
		q.logger.Debug("queue.drained")
	}
}
