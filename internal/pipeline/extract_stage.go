package pipeline

import (
	"context"
	"log/slog"
	"os"

	"github.com/joseph-ayodele/papertrans/internal/common"
	"github.com/joseph-ayodele/papertrans/internal/entity"
	"github.com/joseph-ayodele/papertrans/internal/layout"
	"github.com/joseph-ayodele/papertrans/internal/render"
)

// PageRenderer rasterizes a PDF into ordered pages.
type PageRenderer interface {
	Render(ctx context.Context, path string) ([]render.Page, error)
}

type ExtractStage struct {
	Renderer  PageRenderer
	Extractor *layout.Extractor
	Logger    *slog.Logger
}

func NewExtractStage(renderer PageRenderer, extractor *layout.Extractor, logger *slog.Logger) *ExtractStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractStage{Renderer: renderer, Extractor: extractor, Logger: logger}
}

// Run fills doc.Pages. A missing or unrenderable PDF leaves zero pages and degrades the
// document; failed pages are kept with zero blocks.
func (s *ExtractStage) Run(ctx context.Context, doc *entity.Document) error {
	log := common.LoggerFrom(ctx, s.Logger)

	if doc.PDFPath == "" {
		doc.MarkDegraded("pdf unavailable")
		log.Warn("extract.pdf.missing")
		return nil
	}
	if _, err := os.Stat(doc.PDFPath); err != nil {
		doc.MarkDegraded("pdf unavailable")
		log.Warn("extract.pdf.missing", "path", doc.PDFPath, "error", err)
		return nil
	}

	pages, err := s.Renderer.Render(ctx, doc.PDFPath)
	if err != nil {
		if common.Decide(err, false) != common.OutcomeDegradeUnit {
			return err
		}
		doc.MarkDegraded("pdf render failed")
		log.Warn("extract.render.failed", "error", err)
		return nil
	}

	res, err := s.Extractor.ExtractDocument(ctx, doc.Key(), pages)
	if err != nil {
		return err
	}
	doc.Pages = res.Pages
	if len(res.FailedPages) > 0 {
		doc.MarkDegraded("layout failed on some pages")
	}
	if res.Placeholders > 0 {
		doc.MarkDegraded("figure crops unavailable")
	}
	log.Info("extract.ok", "pages", len(res.Pages), "blocks", doc.BlockCount(),
		"failed_pages", res.FailedPages, "placeholders", res.Placeholders)
	return nil
}
