package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/joseph-ayodele/papertrans/internal/entity"
)

// FSIngestor reads the manifest and PDFs from the local filesystem.
type FSIngestor struct {
	PDFDir     string
	SkipHidden bool
	Logger     *slog.Logger
}

func NewFSIngestor(pdfDir string, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{PDFDir: pdfDir, SkipHidden: true, Logger: logger}
}

// Ingest builds one Fetched document per manifest entry. A paper without a usable PDF
// still becomes a document with an empty PDFPath. Duplicate ids keep the first entry.
func (i *FSIngestor) Ingest(ctx context.Context, manifestPath string) ([]*entity.Document, []IngestionResult, error) {
	papers, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, nil, err
	}

	index := map[string]string{}
	if i.PDFDir != "" {
		var stats DirStats
		index, stats, err = IndexDirectory(i.PDFDir, i.SkipHidden)
		if err != nil {
			return nil, nil, err
		}
		i.Logger.Info("ingest.pdfs.indexed", "dir", i.PDFDir, "scanned", stats.Scanned,
			"matched", stats.Matched, "skipped", stats.Skipped, "failed", stats.Failed)
	}

	seen := map[string]bool{}
	docs := make([]*entity.Document, 0, len(papers))
	results := make([]IngestionResult, 0, len(papers))
	for _, p := range papers {
		if err := ctx.Err(); err != nil {
			return docs, results, err
		}
		res := IngestionResult{ID: p.ID}
		if seen[p.ID] {
			res.Err = "duplicate id"
			results = append(results, res)
			i.Logger.Warn("ingest.paper.duplicate", "id", p.ID)
			continue
		}
		seen[p.ID] = true

		name := p.PDF
		if name == "" {
			name = PDFName(p.ID)
		}
		pdf := index[filepath.Base(name)]
		if pdf == "" {
			i.Logger.Warn("ingest.pdf.missing", "id", p.ID, "want", name)
		}

		rev, err := Revision(p.Title, p.Abstract, pdf)
		if err != nil {
			res.Err = fmt.Sprintf("hash pdf: %v", err)
			results = append(results, res)
			continue
		}
		doc := entity.NewDocument(p.ID, rev, p.Title, p.Abstract, pdf)
		res.DocKey, res.PDFPath, res.Revision = doc.Key(), pdf, rev
		results = append(results, res)
		docs = append(docs, doc)
	}
	i.Logger.Info("ingest.done", "papers", len(papers), "documents", len(docs))
	return docs, results, nil
}
