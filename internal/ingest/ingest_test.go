package ingest

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/joseph-ayodele/papertrans/internal/common"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func fakePDF(seed byte) []byte {
	return append([]byte("%PDF-1.7\n"), bytes.Repeat([]byte{seed}, 2048)...)
}

func TestParseManifest(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    int
		wantErr error
	}{
		{"valid", `[{"arxiv_id":"2501.00001","title":"T","abstract":"A","authors":["x"],"upvotes":3}]`, 1, nil},
		{"empty list", `[]`, 0, nil},
		{"missing abstract", `[{"arxiv_id":"2501.00001","title":"T"}]`, 0, common.ErrValidation},
		{"empty id", `[{"arxiv_id":"","title":"T","abstract":"A"}]`, 0, common.ErrValidation},
		{"wrong type", `[{"arxiv_id":"x","title":"T","abstract":"A","upvotes":"many"}]`, 0, common.ErrValidation},
		{"not json", `{`, 0, common.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseManifest([]byte(tt.data))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseManifest() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseManifest() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("papers = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestRevision(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.pdf")
	b := filepath.Join(dir, "b.pdf")
	writeFile(t, a, fakePDF('a'))
	writeFile(t, b, fakePDF('b'))

	r1, err := Revision("T", "A", a)
	if err != nil {
		t.Fatal(err)
	}
	r2, _ := Revision("T", "A", a)
	r3, _ := Revision("T", "A", b)
	r4, _ := Revision("T", "A2", a)
	r5, _ := Revision("T", "A", "")

	if len(r1) != 12 || r1 != r2 {
		t.Errorf("revision not stable: %q %q", r1, r2)
	}
	for _, other := range []string{r3, r4, r5} {
		if other == r1 {
			t.Errorf("revision %q should differ from %q", other, r1)
		}
	}
	if _, err := Revision("T", "A", filepath.Join(dir, "missing.pdf")); err == nil {
		t.Error("missing pdf should fail")
	}
}

func TestIndexDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "2501.00001.pdf"), fakePDF('1'))
	writeFile(t, filepath.Join(root, "nested", "2501.00002.PDF"), fakePDF('2'))
	writeFile(t, filepath.Join(root, "2501.00003.pdf"), []byte("<html>rate limited</html>"))
	writeFile(t, filepath.Join(root, ".cache", "2501.00004.pdf"), fakePDF('4'))
	writeFile(t, filepath.Join(root, "notes.txt"), []byte("x"))

	index, stats, err := IndexDirectory(root, true)
	if err != nil {
		t.Fatalf("IndexDirectory() error = %v", err)
	}
	if len(index) != 2 || index["2501.00001.pdf"] == "" || index["2501.00002.PDF"] == "" {
		t.Errorf("index = %v", index)
	}
	if stats.Matched != 2 || stats.Skipped != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if _, _, err := IndexDirectory("", true); err == nil {
		t.Error("empty root should fail")
	}
}

func TestFSIngestorIngest(t *testing.T) {
	dir := t.TempDir()
	pdfs := filepath.Join(dir, "pdfs")
	writeFile(t, filepath.Join(pdfs, "2501.00001.pdf"), fakePDF('1'))
	writeFile(t, filepath.Join(pdfs, "custom.pdf"), fakePDF('2'))
	manifest := filepath.Join(dir, "papers.json")
	writeFile(t, manifest, []byte(`[
		{"arxiv_id":"2501.00001","title":"One","abstract":"A1"},
		{"arxiv_id":"2501.00002","title":"Two","abstract":"A2","pdf":"custom.pdf"},
		{"arxiv_id":"2501.00003","title":"Three","abstract":"A3"},
		{"arxiv_id":"2501.00001","title":"Dup","abstract":"A4"}
	]`))

	docs, results, err := NewFSIngestor(pdfs, nil).Ingest(context.Background(), manifest)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if len(docs) != 3 || len(results) != 4 {
		t.Fatalf("docs = %d results = %d", len(docs), len(results))
	}
	if docs[0].PDFPath == "" || docs[1].PDFPath != filepath.Join(pdfs, "custom.pdf") {
		t.Errorf("pdf paths = %q, %q", docs[0].PDFPath, docs[1].PDFPath)
	}
	if docs[2].PDFPath != "" {
		t.Errorf("missing pdf resolved to %q", docs[2].PDFPath)
	}
	if docs[0].Key() != "2501.00001@"+docs[0].Revision || len(docs[0].Revision) != 12 {
		t.Errorf("key = %q", docs[0].Key())
	}
	if results[3].Err != "duplicate id" {
		t.Errorf("duplicate result = %+v", results[3])
	}
}
