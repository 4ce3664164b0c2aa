package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/papertrans/internal/entity"
	"github.com/joseph-ayodele/papertrans/internal/pipeline"
	"github.com/joseph-ayodele/papertrans/internal/reassemble"
)

// Service writes a run's per-document outputs and its spreadsheet report.
type Service struct {
	outDir string
	html   bool
	logger *slog.Logger
}

func NewService(outDir string, html bool, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{outDir: outDir, html: html, logger: logger}
}

// RunSummary is written next to the per-document outputs as run.json.
type RunSummary struct {
	RunID       string    `json:"run_id"`
	StartedAt   time.Time `json:"started_at"`
	DurationMS  int64     `json:"duration_ms"`
	Reassembled int       `json:"reassembled"`
	Degraded    int       `json:"degraded"`
	Failed      int       `json:"failed"`
	Skipped     int       `json:"skipped"`
	Aborted     bool      `json:"aborted"`
	Documents   []string  `json:"documents"`
}

// WriteOutputs writes <doc>.json (and <doc>.html when enabled) for every reassembled document,
// then run.json. Failed and unstarted documents produce no output file.
func (s *Service) WriteOutputs(ctx context.Context, res pipeline.RunResult) error {
	if err := os.MkdirAll(s.outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	sum := RunSummary{RunID: res.RunID, StartedAt: res.StartedAt, DurationMS: res.Duration.Milliseconds(), Aborted: res.Aborted}
	sum.Reassembled, sum.Degraded, sum.Failed, sum.Skipped = res.Counts()

	for _, d := range res.Docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Done() {
			continue
		}
		name := fileName(d.Output.DocKey)
		if err := writeJSON(filepath.Join(s.outDir, name+".json"), d.Output); err != nil {
			return err
		}
		if s.html {
			page, err := reassemble.RenderHTML(d.Output)
			if err != nil {
				s.logger.Warn("export.html.failed", "doc", d.Output.DocKey, "error", err)
			} else if err := os.WriteFile(filepath.Join(s.outDir, name+".html"), page, 0o644); err != nil {
				return fmt.Errorf("write html: %w", err)
			}
		}
		sum.Documents = append(sum.Documents, name)
	}

	if err := writeJSON(filepath.Join(s.outDir, "run.json"), sum); err != nil {
		return err
	}
	s.logger.Info("export.outputs.ok", "dir", s.outDir, "documents", len(sum.Documents))
	return nil
}

// RunReportXLSX returns an XLSX workbook (as bytes) with one row per document.
func (s *Service) RunReportXLSX(res pipeline.RunResult) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Run"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headers := []string{
		"Document",
		"Status",
		"Degraded",
		"Reasons",
		"Pages",
		"Blocks",
		"Untranslated Units",
		"Tags",
		"Error",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(sheet, 1, 1, style)
	}

	row := 2
	for _, d := range res.Docs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, d.Doc.Key())
		write(2, string(d.Doc.Status))
		write(3, d.Doc.Degraded)
		write(4, strings.Join(d.Doc.DegradedReasons, "; "))
		write(5, len(d.Doc.Pages))
		write(6, d.Doc.BlockCount())
		write(7, untranslated(d.Output))
		write(8, formatTags(d.Doc.Tags))
		write(9, truncate(d.Doc.Error, 300))
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 28) // doc key
	_ = f.SetColWidth(sheet, "B", "C", 14)
	_ = f.SetColWidth(sheet, "D", "D", 40)
	_ = f.SetColWidth(sheet, "E", "G", 12)
	_ = f.SetColWidth(sheet, "H", "H", 60)
	_ = f.SetColWidth(sheet, "I", "I", 60)

	if err := s.summarySheet(f, res); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.xlsx.ok",
		"run_id", res.RunID,
		"rows", len(res.Docs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (s *Service) summarySheet(f *excelize.File, res pipeline.RunResult) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	ok, degraded, failed, skipped := res.Counts()
	rows := [][]any{
		{"Run ID", res.RunID},
		{"Started", res.StartedAt.UTC().Format(time.RFC3339)},
		{"Duration (s)", res.Duration.Seconds()},
		{"Reassembled", ok},
		{"Degraded", degraded},
		{"Failed", failed},
		{"Skipped", skipped},
		{"Aborted", res.Aborted},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(sheet, "A", "A", 16)
	_ = f.SetColWidth(sheet, "B", "B", 40)
	return nil
}

// WriteReport writes the XLSX report to path.
func (s *Service) WriteReport(path string, res pipeline.RunResult) error {
	b, err := s.RunReportXLSX(res)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, b, 0o644)
}

func untranslated(out entity.Output) int {
	n := 0
	for _, u := range out.Units() {
		if u.Untranslated {
			n++
		}
	}
	return n
}

// formatTags renders sorted "facet=v1,v2" pairs, skipping empty facets.
func formatTags(t entity.Tags) string {
	keys := make([]string, 0, len(t))
	for k, v := range t {
		if len(v) > 0 {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+strings.Join(t[k], ","))
	}
	return strings.Join(parts, "; ")
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func fileName(docKey string) string {
	return strings.NewReplacer("/", "_", "\\", "_", ":", "_", "@", "_").Replace(docKey)
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
