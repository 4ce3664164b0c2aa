package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/joseph-ayodele/papertrans/internal/common"
)

type fakeRunner struct {
	pages int
	w, h  int
	fail  bool
	calls [][]string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.fail {
		return nil, []byte("Syntax Error: Couldn't read xref table"), errors.New("exit status 1")
	}
	prefix := args[len(args)-1]
	for i := 1; i <= f.pages; i++ {
		img := image.NewRGBA(image.Rect(0, 0, f.w, f.h))
		img.Set(0, 0, color.Black)
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, nil, err
		}
		name := fmt.Sprintf("%s-%0*d.png", prefix, len(strconv.Itoa(f.pages)), i)
		if err := os.WriteFile(name, buf.Bytes(), 0o600); err != nil {
			return nil, nil, err
		}
	}
	return nil, nil, nil
}

func TestRenderOrdersPagesAndFallsBackToRasterDims(t *testing.T) {
	pdf := filepath.Join(t.TempDir(), "paper.pdf")
	if err := os.WriteFile(pdf, []byte("not really a pdf"), 0o600); err != nil {
		t.Fatal(err)
	}
	fr := &fakeRunner{pages: 12, w: 200, h: 100}
	r := NewRenderer(Config{DPI: 144}, nil, WithRunner(fr))

	pages, err := r.Render(context.Background(), pdf)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(pages) != 12 {
		t.Fatalf("pages = %d, want 12", len(pages))
	}
	for i, p := range pages {
		if p.Number != i+1 {
			t.Fatalf("page %d has Number %d", i, p.Number)
		}
	}
	if pages[0].WidthPt != 100 || pages[0].HeightPt != 50 {
		t.Fatalf("fallback dims = %vx%v, want 100x50", pages[0].WidthPt, pages[0].HeightPt)
	}
	if got := pages[0].PointsPerPixel(); got != 0.5 {
		t.Fatalf("PointsPerPixel = %v, want 0.5", got)
	}
	if fr.calls[0][0] != "pdftoppm" || fr.calls[0][2] != "144" {
		t.Fatalf("unexpected invocation %v", fr.calls[0])
	}
}

func TestRenderFailureIsExtractionError(t *testing.T) {
	r := NewRenderer(Config{}, nil, WithRunner(&fakeRunner{fail: true}))
	_, err := r.Render(context.Background(), "missing.pdf")
	if !errors.Is(err, common.ErrContentExtraction) {
		t.Fatalf("err = %v, want content extraction error", err)
	}
}

func TestPageIndex(t *testing.T) {
	tests := map[string]int{
		"/tmp/x/page-1.png":   1,
		"/tmp/x/page-09.png":  9,
		"/tmp/x/page-123.png": 123,
	}
	for in, want := range tests {
		if got := pageIndex(in); got != want {
			t.Errorf("pageIndex(%q) = %d, want %d", in, got, want)
		}
	}
}
