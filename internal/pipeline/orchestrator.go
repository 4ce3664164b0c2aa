// Package pipeline drives documents through extraction, translation, classification
// and reassembly.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/papertrans/constants"
	"github.com/joseph-ayodele/papertrans/internal/cache"
	"github.com/joseph-ayodele/papertrans/internal/common"
	"github.com/joseph-ayodele/papertrans/internal/entity"
	"github.com/joseph-ayodele/papertrans/internal/reassemble"
)

// Stage advances a document by one step of the state machine.
type Stage interface {
	Run(ctx context.Context, doc *entity.Document) error
}

// Orchestrator owns the per-document state machine.
type Orchestrator struct {
	Extract   Stage
	Translate Stage
	Classify  Stage
	Cache     cache.Store
	Logger    *slog.Logger

	workers    int
	docTimeout time.Duration
	progress   func(DocResult)
}

type Option func(*Orchestrator)

// WithWorkers sets how many documents run concurrently.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithDocTimeout bounds the processing of each document within a run.
func WithDocTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.docTimeout = d }
}

// WithProgress registers a callback invoked once per finished document.
func WithProgress(fn func(DocResult)) Option {
	return func(o *Orchestrator) { o.progress = fn }
}

func NewOrchestrator(extract, translate, classify Stage, store cache.Store, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		Extract:   extract,
		Translate: translate,
		Classify:  classify,
		Cache:     store,
		Logger:    logger,
		workers:   2,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Process runs one document to Reassembled or Failed.
// A document already Reassembled, or whose non-degraded output is cached, is returned without any stage work.
// The error is non-nil exactly when the document failed; a fatal configuration error is returned as is so
// that Run can abort.
func (o *Orchestrator) Process(ctx context.Context, doc *entity.Document) (entity.Output, error) {
	ctx = common.WithDocID(ctx, doc.Key())
	log := common.LoggerFrom(ctx, o.Logger)

	if doc.Status == constants.DocStatusReassembled {
		return reassemble.Reassemble(doc), nil
	}
	if doc.Status != constants.DocStatusFetched {
		return entity.Output{}, common.NewAppError("INVALID_STATE",
			fmt.Sprintf("cannot process document in status %s", doc.Status), common.ErrInvalidState)
	}

	var cached entity.Output
	hit, err := cache.GetJSON(ctx, o.Cache, cache.ReassembleKey(doc.Key()), &cached)
	if err != nil {
		log.Warn("pipeline.cache.get_failed", "error", err)
	}
	if hit {
		doc.Status = constants.DocStatusReassembled
		doc.Tags = cached.Tags
		log.Info("pipeline.doc.cached")
		return cached, nil
	}

	steps := []struct {
		name  string
		stage Stage
		to    constants.DocStatus
	}{
		{"extract", o.Extract, constants.DocStatusExtracted},
		{"translate", o.Translate, constants.DocStatusTranslated},
		{"classify", o.Classify, constants.DocStatusClassified},
	}
	for _, st := range steps {
		if err := st.stage.Run(ctx, doc); err != nil {
			return entity.Output{}, o.fail(ctx, doc, st.name, err)
		}
		if err := doc.Transition(st.to); err != nil {
			return entity.Output{}, o.fail(ctx, doc, st.name, err)
		}
		log.Debug("pipeline.stage.ok", "stage", st.name, "status", doc.Status, "degraded", doc.Degraded)
	}

	if err := doc.Transition(constants.DocStatusReassembled); err != nil {
		return entity.Output{}, o.fail(ctx, doc, "reassemble", err)
	}
	out := reassemble.Reassemble(doc)
	if !doc.Degraded {
		if _, err := cache.PutJSON(ctx, o.Cache, cache.ReassembleKey(doc.Key()), out); err != nil {
			log.Warn("pipeline.cache.put_failed", "error", err)
		}
	}
	log.Info("pipeline.doc.reassembled", "units", len(out.Units()), "degraded", doc.Degraded,
		"reasons", doc.DegradedReasons)
	return out, nil
}

func (o *Orchestrator) fail(ctx context.Context, doc *entity.Document, stage string, err error) error {
	err = fmt.Errorf("%s: %w", stage, err)
	_ = doc.Fail(err)
	common.LoggerFrom(ctx, o.Logger).Error("pipeline.doc.failed", "stage", stage,
		"outcome", common.Decide(err, true).String(), "error", err)
	return err
}
