package entity

import (
	"errors"
	"testing"

	"github.com/joseph-ayodele/papertrans/constants"
	"github.com/joseph-ayodele/papertrans/internal/common"
)

func TestNewBlockInvariant(t *testing.T) {
	box := BBox{X1: 10, Y1: 10, X2: 100, Y2: 40}
	tests := []struct {
		name     string
		kind     constants.BlockKind
		page     int
		text     string
		imageRef string
		wantErr  bool
	}{
		{name: "text block", kind: constants.KindText, text: "Hello"},
		{name: "figure block", kind: constants.KindFigure, imageRef: "doc/p1_fig1.png"},
		{name: "formula block", kind: constants.KindFormula, text: `$$E=mc^2$$`},
		{name: "both set", kind: constants.KindText, text: "x", imageRef: "y.png", wantErr: true},
		{name: "neither set", kind: constants.KindText, wantErr: true},
		{name: "figure with text only", kind: constants.KindFigure, text: "caption", wantErr: true},
		{name: "table with image only", kind: constants.KindTable, imageRef: "t.png", wantErr: true},
		{name: "negative page", kind: constants.KindText, page: -1, text: "x", wantErr: true},
		{name: "unknown kind", kind: "Header", text: "x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBlock(tt.kind, tt.page, box, tt.text, tt.imageRef)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewBlock() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, common.ErrValidation) {
				t.Fatalf("error %v does not wrap ErrValidation", err)
			}
		})
	}
}

func TestBlockHashIgnoresPosition(t *testing.T) {
	a, err := NewTextBlock(constants.KindText, 0, BBox{X1: 0, Y1: 0, X2: 10, Y2: 10}, "Copyright 2025")
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewTextBlock(constants.KindTitle, 3, BBox{X1: 50, Y1: 700, X2: 300, Y2: 720}, "Copyright 2025")
	if err != nil {
		t.Fatal(err)
	}
	if a.Hash() != b.Hash() {
		t.Fatalf("hash depends on position or page: %s vs %s", a.Hash(), b.Hash())
	}

	c, _ := NewTextBlock(constants.KindText, 0, a.Position, "Copyright 2026")
	if a.Hash() == c.Hash() {
		t.Fatal("different text produced the same hash")
	}

	fig, _ := NewFigureBlock(0, a.Position, "Copyright 2025")
	if fig.Hash() == a.Hash() {
		t.Fatal("image ref and identical source text collide")
	}
}

func TestSetTranslationRejectsFigure(t *testing.T) {
	fig, err := NewFigureBlock(1, BBox{X2: 1, Y2: 1}, "f.png")
	if err != nil {
		t.Fatal(err)
	}
	if err := fig.SetTranslation("圖"); err == nil {
		t.Fatal("expected error translating a figure")
	}
	txt, _ := NewTextBlock(constants.KindText, 1, BBox{}, "Hello")
	if err := txt.SetTranslation("你好"); err != nil {
		t.Fatal(err)
	}
	if !txt.Translated() || txt.TranslatedText != "你好" {
		t.Fatalf("translation not attached: %+v", txt)
	}
}

func TestFigurePlaceholderIsNotTranslatable(t *testing.T) {
	ph, err := NewTextBlock(constants.KindText, 2, BBox{X2: 10, Y2: 10}, constants.FigurePlaceholder)
	if err != nil {
		t.Fatal(err)
	}
	if !ph.Placeholder() || ph.Translatable() {
		t.Fatalf("placeholder = %v translatable = %v", ph.Placeholder(), ph.Translatable())
	}
	if err := ph.SetTranslation("圖片不可用"); err == nil {
		t.Fatal("expected error translating a placeholder")
	}
	txt, _ := NewTextBlock(constants.KindText, 2, BBox{}, "See "+constants.FigurePlaceholder)
	if txt.Placeholder() || !txt.Translatable() {
		t.Fatal("text merely mentioning the marker is an ordinary block")
	}
}

func TestBBoxClampAndScale(t *testing.T) {
	b := BBox{X1: -5, Y1: 10, X2: 250, Y2: 90}.Clamp(200, 100)
	want := BBox{X1: 0, Y1: 10, X2: 200, Y2: 90}
	if b != want {
		t.Fatalf("Clamp = %+v, want %+v", b, want)
	}
	if s := want.Scale(2); s.X2 != 400 || s.Y2 != 180 {
		t.Fatalf("Scale = %+v", s)
	}
	if !(BBox{X1: 5, X2: 5, Y2: 10}).Empty() {
		t.Fatal("zero-width box should be empty")
	}
}
