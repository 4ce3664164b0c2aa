package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/joseph-ayodele/papertrans/constants"
	"github.com/joseph-ayodele/papertrans/internal/common"
	"github.com/joseph-ayodele/papertrans/internal/entity"
	"github.com/joseph-ayodele/papertrans/internal/llm"
	"github.com/joseph-ayodele/papertrans/internal/render"
)

type onePageRunner struct{}

func (onePageRunner) Run(_ context.Context, _ string, args ...string) ([]byte, []byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 300, 400))
	img.Set(1, 1, color.Black)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, nil, err
	}
	return nil, nil, os.WriteFile(args[len(args)-1]+"-1.png", buf.Bytes(), 0o600)
}

type stubRecognizer struct{}

func (stubRecognizer) Recognize(context.Context, llm.LayoutRequest) ([]llm.LayoutRecord, error) {
	return []llm.LayoutRecord{{Category: "Text", BBox: []float64{10, 10, 200, 50}, Text: "Hello."}}, nil
}

type stubTranslator struct{}

func (stubTranslator) Translate(_ context.Context, req llm.TranslateRequest) ([]string, error) {
	out := make([]string, len(req.Items))
	for i := range out {
		out[i] = "你好。"
	}
	return out, nil
}

type stubClassifier struct{}

func (stubClassifier) Classify(context.Context, llm.ClassifyRequest) (map[string]any, error) {
	return map[string]any{constants.FacetDomain: []any{"NLP"}}, nil
}

func testConfig(t *testing.T) *common.Config {
	cfg := common.DefaultConfig()
	cfg.Cache.Driver = "memory"
	cfg.Figures.Dir = filepath.Join(t.TempDir(), "figures")
	return cfg
}

func TestNewWiresPipeline(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg, nil,
		WithRecognizer(stubRecognizer{}),
		WithTranslator(stubTranslator{}),
		WithClassifier(stubClassifier{}),
		WithRendererOptions(render.WithRunner(onePageRunner{})),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	pdf := filepath.Join(t.TempDir(), "paper.pdf")
	if err := os.WriteFile(pdf, []byte("%PDF-1.7"), 0o600); err != nil {
		t.Fatal(err)
	}
	doc := entity.NewDocument("2501.00001", "ab12", "Title", "Abstract", pdf)
	res, err := a.Orchestrator.Run(context.Background(), []*entity.Document{doc})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	out := res.Docs[0].Output
	if doc.Status != constants.DocStatusReassembled || len(out.Units()) != 1 || out.Units()[0].Text != "你好。" {
		t.Errorf("status = %s units = %+v", doc.Status, out.Units())
	}
}

func TestNewWithoutCredentialsIsFatal(t *testing.T) {
	cfg := testConfig(t)
	_, err := New(context.Background(), cfg, nil)
	if !errors.Is(err, common.ErrFatalConfiguration) {
		t.Fatalf("New() error = %v, want fatal configuration", err)
	}

	_, err = New(context.Background(), cfg, nil, WithRecognizer(stubRecognizer{}))
	if !errors.Is(err, common.ErrFatalConfiguration) {
		t.Fatalf("New() without translator key error = %v, want fatal configuration", err)
	}
}

func TestNewLayoutOnly(t *testing.T) {
	a, err := NewLayoutOnly(context.Background(), testConfig(t), nil, WithRecognizer(stubRecognizer{}))
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	if a.Extractor == nil || a.Renderer == nil || a.Orchestrator != nil {
		t.Errorf("app = %+v", a)
	}
}
