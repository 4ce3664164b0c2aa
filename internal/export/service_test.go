package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/papertrans/constants"
	"github.com/joseph-ayodele/papertrans/internal/entity"
	"github.com/joseph-ayodele/papertrans/internal/pipeline"
	"github.com/joseph-ayodele/papertrans/internal/reassemble"
)

func sampleRun(t *testing.T) pipeline.RunResult {
	t.Helper()
	ok := entity.NewDocument("2501.00001", "ab12", "Scaling Laws", "Abstract", "")
	blk, err := entity.NewTextBlock(constants.KindText, 1, entity.BBox{X2: 10, Y2: 10}, "Body")
	if err != nil {
		t.Fatal(err)
	}
	ok.Pages = []entity.Page{{Number: 1, Blocks: []entity.Block{blk}}}
	ok.Tags = entity.EmptyTags()
	ok.Tags[constants.FacetDomain] = []string{"NLP"}
	for _, s := range []constants.DocStatus{constants.DocStatusExtracted, constants.DocStatusTranslated, constants.DocStatusClassified, constants.DocStatusReassembled} {
		if err := ok.Transition(s); err != nil {
			t.Fatal(err)
		}
	}
	ok.MarkDegraded("some blocks untranslated")

	bad := entity.NewDocument("2501.00002", "cd34", "Other", "Abstract", "")
	_ = bad.Fail(errors.New("translate abstract: 503"))

	return pipeline.RunResult{
		RunID:     "run-1",
		StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
		Docs: []pipeline.DocResult{
			{Doc: ok, Output: reassemble.Reassemble(ok)},
			{Doc: bad, Err: errors.New("translate abstract: 503")},
		},
	}
}

func TestRunReportXLSX(t *testing.T) {
	b, err := NewService(t.TempDir(), false, nil).RunReportXLSX(sampleRun(t))
	if err != nil {
		t.Fatalf("RunReportXLSX() error = %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows("Run")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	first := rows[1]
	if first[0] != "2501.00001@ab12" || first[1] != "REASSEMBLED" || first[2] != "TRUE" {
		t.Errorf("first row = %v", first)
	}
	if first[6] != "1" || first[7] != "domain=NLP" {
		t.Errorf("untranslated/tags = %q / %q", first[6], first[7])
	}
	if second := rows[2]; second[1] != "FAILED" || !strings.Contains(second[8], "503") {
		t.Errorf("second row = %v", second)
	}

	summary, err := f.GetRows("Summary")
	if err != nil {
		t.Fatal(err)
	}
	if summary[0][1] != "run-1" || summary[3][1] != "1" || summary[5][1] != "1" {
		t.Errorf("summary = %v", summary)
	}
}

func TestWriteOutputs(t *testing.T) {
	dir := t.TempDir()
	s := NewService(dir, true, nil)
	if err := s.WriteOutputs(context.Background(), sampleRun(t)); err != nil {
		t.Fatalf("WriteOutputs() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "2501.00001_ab12.json"))
	if err != nil {
		t.Fatal(err)
	}
	var out entity.Output
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.DocKey != "2501.00001@ab12" || len(out.Units()) != 1 || !out.Units()[0].Untranslated {
		t.Errorf("output = %+v", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "2501.00001_ab12.html")); err != nil {
		t.Errorf("html not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "2501.00002_cd34.json")); !os.IsNotExist(err) {
		t.Error("failed document must not get an output file")
	}

	var sum RunSummary
	data, err = os.ReadFile(filepath.Join(dir, "run.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &sum); err != nil {
		t.Fatal(err)
	}
	if sum.Reassembled != 1 || sum.Failed != 1 || sum.Degraded != 1 || len(sum.Documents) != 1 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "run.xlsx")
	if err := NewService(t.TempDir(), false, nil).WriteReport(path, sampleRun(t)); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("report not written: %v", err)
	}
}
