package pipeline

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/papertrans/internal/common"
	"github.com/joseph-ayodele/papertrans/internal/entity"
	"github.com/joseph-ayodele/papertrans/internal/llm"
	"github.com/joseph-ayodele/papertrans/internal/translate"
)

type TranslateStage struct {
	Batcher *translate.Batcher
	Logger  *slog.Logger
}

func NewTranslateStage(batcher *translate.Batcher, logger *slog.Logger) *TranslateStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &TranslateStage{Batcher: batcher, Logger: logger}
}

// Run translates the abstract, the title and every body block.
// Only a failed abstract, a fatal error or cancellation is returned.
func (s *TranslateStage) Run(ctx context.Context, doc *entity.Document) error {
	log := common.LoggerFrom(ctx, s.Logger)

	abs, err := s.Batcher.TranslateText(ctx, llm.TextKindAbstract, doc.Abstract)
	if err != nil {
		return common.WrapError(err, "translate abstract")
	}
	doc.TranslatedAbstract = abs

	title, err := s.Batcher.TranslateText(ctx, llm.TextKindTitle, doc.Title)
	if err != nil {
		if common.Decide(err, false) != common.OutcomeDegradeUnit {
			return common.WrapError(err, "translate title")
		}
		doc.MarkDegraded("title untranslated")
		log.Warn("translate.title.failed", "error", err)
	} else {
		doc.TranslatedTitle = title
	}

	res, err := s.Batcher.Translate(ctx, doc.Blocks())
	if err != nil {
		return common.WrapError(err, "translate blocks")
	}
	if res.Degraded() {
		doc.MarkDegraded("some blocks untranslated")
	}
	log.Info("translate.ok", "batches", res.Batches, "cache_hits", res.CacheHits,
		"translated", res.Translated, "untranslated", res.Untranslated)
	return nil
}
