// Package reassemble turns a translated document into page-grouped rendering units.
package reassemble

import (
	"slices"

	"github.com/joseph-ayodele/papertrans/constants"
	"github.com/joseph-ayodele/papertrans/internal/entity"
)

// Reassemble maps every block to exactly one unit, keeping extraction order.
// Adjacent blocks are never merged. A text block without a translation keeps its
// source text behind constants.UntranslatedMarker; a figure placeholder keeps its marker as is.
func Reassemble(doc *entity.Document) entity.Output {
	out := entity.Output{
		DocKey:      doc.Key(),
		ID:          doc.ID,
		Title:       fallback(doc.TranslatedTitle, doc.Title),
		SourceTitle: doc.Title,
		Abstract:    fallback(doc.TranslatedAbstract, doc.Abstract),
		Tags:        doc.Tags,
		Status:      doc.Status,
		Degraded:    doc.Degraded,
		Pages:       make([]entity.OutputPage, 0, len(doc.Pages)),
	}
	if out.Tags == nil {
		out.Tags = entity.EmptyTags()
	}

	pages := slices.Clone(doc.Pages)
	slices.SortStableFunc(pages, func(a, b entity.Page) int { return a.Number - b.Number })
	for _, p := range pages {
		op := entity.OutputPage{Number: p.Number, Units: make([]entity.Unit, 0, len(p.Blocks))}
		for _, b := range p.Blocks {
			op.Units = append(op.Units, unit(b))
		}
		out.Pages = append(out.Pages, op)
	}
	return out
}

func unit(b entity.Block) entity.Unit {
	u := entity.Unit{Kind: b.Kind, Page: b.Page, Position: b.Position}
	if b.Kind == constants.KindFigure {
		u.ImageRef = b.ImageRef
		return u
	}
	u.SourceText = b.SourceText
	switch {
	case b.Placeholder():
		u.Text = b.SourceText
	case b.Translated():
		u.Text = b.TranslatedText
	default:
		u.Text = constants.UntranslatedMarker + " " + b.SourceText
		u.Untranslated = true
	}
	return u
}

func fallback(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
