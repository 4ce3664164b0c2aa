package async

import (
	"context"
	"time"

	"github.com/joseph-ayodele/papertrans/internal/entity"
)

// Job is one document submitted to a run.
type Job struct {
	Index       int // position in the run's input, used to keep results ordered
	Doc         *entity.Document
	SubmittedAt time.Time
}

// Handler processes a single job. The returned error is only logged by the pool.
type Handler func(ctx context.Context, job Job) error

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
