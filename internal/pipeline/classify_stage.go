package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/papertrans/internal/classify"
	"github.com/joseph-ayodele/papertrans/internal/common"
	"github.com/joseph-ayodele/papertrans/internal/entity"
)

type ClassifyStage struct {
	Classifier *classify.Classifier
	Logger     *slog.Logger
}

func NewClassifyStage(classifier *classify.Classifier, logger *slog.Logger) *ClassifyStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClassifyStage{Classifier: classifier, Logger: logger}
}

func (s *ClassifyStage) Run(ctx context.Context, doc *entity.Document) error {
	tags, degraded, err := s.Classifier.Classify(ctx, doc.Key(), classificationText(doc))
	if err != nil {
		return err
	}
	doc.Tags = tags
	if degraded {
		doc.MarkDegraded("tags unavailable")
		common.LoggerFrom(ctx, s.Logger).Warn("classify.degraded")
	}
	return nil
}

// classificationText is the translated body, or the abstract when the body is empty.
func classificationText(doc *entity.Document) string {
	var sb strings.Builder
	for _, b := range doc.Blocks() {
		if !b.Translated() {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(b.TranslatedText)
	}
	if sb.Len() > 0 {
		return sb.String()
	}
	if doc.TranslatedAbstract != "" {
		return doc.TranslatedAbstract
	}
	return doc.Abstract
}
