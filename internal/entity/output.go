package entity

import "github.com/joseph-ayodele/papertrans/constants"

// Unit is one rendering-ready element of a reassembled document.
type Unit struct {
	Kind         constants.BlockKind `json:"kind"`
	Page         int                 `json:"page"`
	Position     BBox                `json:"position"`
	Text         string              `json:"text,omitempty"`
	SourceText   string              `json:"source_text,omitempty"`
	ImageRef     string              `json:"image_ref,omitempty"`
	Untranslated bool                `json:"untranslated,omitempty"`
}

// IsFigure reports whether the unit references a persisted image.
func (u Unit) IsFigure() bool { return u.ImageRef != "" }

// OutputPage groups units of a single page.
type OutputPage struct {
	Number int    `json:"number"`
	Units  []Unit `json:"units"`
}

// Output is the reassembled, translated document handed to presentation layers.
type Output struct {
	DocKey      string              `json:"doc_key"`
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	SourceTitle string              `json:"source_title"`
	Abstract    string              `json:"abstract"`
	Tags        Tags                `json:"tags"`
	Status      constants.DocStatus `json:"status"`
	Degraded    bool                `json:"degraded"`
	Pages       []OutputPage        `json:"pages"`
}

// Units flattens every page's units in order.
func (o Output) Units() []Unit {
	var out []Unit
	for _, p := range o.Pages {
		out = append(out, p.Units...)
	}
	return out
}
