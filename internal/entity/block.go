package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/joseph-ayodele/papertrans/constants"
	"github.com/joseph-ayodele/papertrans/internal/common"
)

// BBox is an axis-aligned rectangle in page space: (X1,Y1) top-left, (X2,Y2) bottom-right.
type BBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

func (b BBox) Width() float64  { return b.X2 - b.X1 }
func (b BBox) Height() float64 { return b.Y2 - b.Y1 }

// Empty reports whether the box has no positive area.
func (b BBox) Empty() bool { return b.Width() <= 0 || b.Height() <= 0 }

// Scale multiplies every coordinate by f.
func (b BBox) Scale(f float64) BBox {
	return BBox{X1: b.X1 * f, Y1: b.Y1 * f, X2: b.X2 * f, Y2: b.Y2 * f}
}

// Clamp restricts the box to [0,w]x[0,h].
func (b BBox) Clamp(w, h float64) BBox {
	c := func(v, hi float64) float64 { return math.Max(0, math.Min(v, hi)) }
	return BBox{X1: c(b.X1, w), Y1: c(b.Y1, h), X2: c(b.X2, w), Y2: c(b.Y2, h)}
}

// Block is one positioned unit of extracted content.
// Exactly one of SourceText and ImageRef is set.
type Block struct {
	Kind           constants.BlockKind `json:"kind"`
	Page           int                 `json:"page"`
	Position       BBox                `json:"position"`
	SourceText     string              `json:"source_text,omitempty"`
	ImageRef       string              `json:"image_ref,omitempty"`
	TranslatedText string              `json:"translated_text,omitempty"`
}

// NewBlock validates and builds a block.
func NewBlock(kind constants.BlockKind, page int, pos BBox, sourceText, imageRef string) (Block, error) {
	b := Block{Kind: kind, Page: page, Position: pos, SourceText: sourceText, ImageRef: imageRef}
	if err := b.Validate(); err != nil {
		return Block{}, err
	}
	return b, nil
}

// NewTextBlock builds a text-bearing block (Title, Text, Table or Formula).
func NewTextBlock(kind constants.BlockKind, page int, pos BBox, text string) (Block, error) {
	return NewBlock(kind, page, pos, text, "")
}

// NewFigureBlock builds a figure block referencing a persisted crop.
func NewFigureBlock(page int, pos BBox, imageRef string) (Block, error) {
	return NewBlock(constants.KindFigure, page, pos, "", imageRef)
}

// Validate enforces the block invariants.
func (b Block) Validate() error {
	if !b.Kind.Valid() {
		return common.NewAppError("INVALID_BLOCK", fmt.Sprintf("unknown kind %q", b.Kind), common.ErrValidation)
	}
	if b.Page < 0 {
		return common.NewAppError("INVALID_BLOCK", fmt.Sprintf("negative page %d", b.Page), common.ErrValidation)
	}
	hasText, hasImage := b.SourceText != "", b.ImageRef != ""
	switch {
	case hasText && hasImage:
		return common.NewAppError("INVALID_BLOCK", "both source_text and image_ref set", common.ErrValidation)
	case !hasText && !hasImage:
		return common.NewAppError("INVALID_BLOCK", "neither source_text nor image_ref set", common.ErrValidation)
	case b.Kind == constants.KindFigure && !hasImage:
		return common.NewAppError("INVALID_BLOCK", "figure block without image_ref", common.ErrValidation)
	case b.Kind != constants.KindFigure && !hasText:
		return common.NewAppError("INVALID_BLOCK", fmt.Sprintf("%s block without source_text", b.Kind), common.ErrValidation)
	case b.Kind == constants.KindFigure && b.TranslatedText != "":
		return common.NewAppError("INVALID_BLOCK", "figure block with translated_text", common.ErrValidation)
	}
	return nil
}

// Hash is the stable content identity of the block. Position, page and kind are excluded
// so identical content anywhere shares one cache entry.
func (b Block) Hash() string {
	h := sha256.New()
	if b.ImageRef != "" {
		h.Write([]byte("image\x00"))
		h.Write([]byte(b.ImageRef))
	} else {
		h.Write([]byte("text\x00"))
		h.Write([]byte(b.SourceText))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Placeholder reports whether the block stands in for a figure whose crop failed.
func (b Block) Placeholder() bool {
	return b.Kind != constants.KindFigure && b.SourceText == constants.FigurePlaceholder
}

// Translatable reports whether the block carries text for the translator.
// Figure placeholders keep their marker verbatim.
func (b Block) Translatable() bool {
	return b.Kind != constants.KindFigure && b.SourceText != "" && !b.Placeholder()
}

// Translated reports whether translated text has been attached.
func (b Block) Translated() bool {
	return b.TranslatedText != ""
}

// SetTranslation attaches a translation to a text-bearing block.
func (b *Block) SetTranslation(text string) error {
	if !b.Translatable() {
		return common.NewAppError("INVALID_BLOCK", "figure and placeholder blocks cannot be translated", common.ErrValidation)
	}
	b.TranslatedText = text
	return nil
}
