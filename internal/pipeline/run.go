package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/papertrans/constants"
	"github.com/joseph-ayodele/papertrans/internal/async"
	"github.com/joseph-ayodele/papertrans/internal/common"
	"github.com/joseph-ayodele/papertrans/internal/entity"
)

// DocResult is the outcome of one document within a run.
type DocResult struct {
	Doc    *entity.Document
	Output entity.Output
	Err    error
}

// Done reports whether the document reached Reassembled.
func (r DocResult) Done() bool { return r.Doc.Status == constants.DocStatusReassembled }

// RunResult collects every document of a run in input order.
type RunResult struct {
	RunID      string
	StartedAt  time.Time
	Duration   time.Duration
	Docs       []DocResult
	Aborted    bool
	AbortCause error
}

// Counts returns reassembled, degraded, failed and unstarted totals.
func (r RunResult) Counts() (reassembled, degraded, failed, skipped int) {
	for _, d := range r.Docs {
		switch d.Doc.Status {
		case constants.DocStatusReassembled:
			reassembled++
			if d.Doc.Degraded {
				degraded++
			}
		case constants.DocStatusFailed:
			failed++
		default:
			skipped++
		}
	}
	return
}

// Run processes docs concurrently. One document's failure never affects another.
// A fatal configuration error cancels the run; Run then returns it, as it returns
// ctx's error when the caller cancels. Documents already Reassembled stay so.
func (o *Orchestrator) Run(ctx context.Context, docs []*entity.Document) (RunResult, error) {
	res := RunResult{RunID: uuid.NewString(), StartedAt: time.Now(), Docs: make([]DocResult, len(docs))}
	for i, d := range docs {
		res.Docs[i].Doc = d
	}
	ctx = common.WithRunID(ctx, res.RunID)
	log := common.LoggerFrom(ctx, o.Logger)
	log.Info("pipeline.run.start", "docs", len(docs), "workers", o.workers)

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var abortOnce sync.Once
	handler := func(jctx context.Context, job async.Job) error {
		if err := jctx.Err(); err != nil {
			// abandoned before it started; stays Fetched
			return err
		}
		out, err := o.Process(jctx, job.Doc)
		res.Docs[job.Index].Output = out
		res.Docs[job.Index].Err = err
		if err != nil && common.Decide(err, false) == common.OutcomeAbortRun {
			abortOnce.Do(func() {
				res.Aborted, res.AbortCause = true, err
				cancel(err)
			})
		}
		if o.progress != nil {
			o.progress(res.Docs[job.Index])
		}
		return err
	}

	pool := async.NewWorkerPool(ctx, handler, o.Logger,
		async.WithWorkers(o.workers), async.WithQueueSize(len(docs)), async.WithJobTimeout(o.docTimeout))
	for i, d := range docs {
		if ctx.Err() != nil {
			break
		}
		if err := pool.Enqueue(ctx, async.Job{Index: i, Doc: d}); err != nil {
			break
		}
	}
	pool.Shutdown(context.Background())

	res.Duration = time.Since(res.StartedAt)
	ok, degraded, failed, skipped := res.Counts()
	log.Info("pipeline.run.done", "reassembled", ok, "degraded", degraded, "failed", failed,
		"skipped", skipped, "duration", res.Duration)

	if res.Aborted {
		return res, res.AbortCause
	}
	return res, ctx.Err()
}
