package ingest

import (
	"context"

	"github.com/joseph-ayodele/papertrans/internal/entity"
)

// IngestionResult is the per-paper ingest outcome.
type IngestionResult struct {
	ID       string
	DocKey   string
	PDFPath  string
	Revision string
	Err      string
}

// DirStats summarizes a PDF directory scan.
type DirStats struct {
	Scanned uint32
	Matched uint32
	Skipped uint32
	Failed  uint32
}

// Ingestor turns a paper list plus downloaded PDFs into documents ready for the pipeline.
type Ingestor interface {
	// Ingest loads the manifest and resolves each paper's PDF. Papers that cannot be
	// turned into a document are reported in the results and left out of the returned slice.
	Ingest(ctx context.Context, manifestPath string) ([]*entity.Document, []IngestionResult, error)
}
