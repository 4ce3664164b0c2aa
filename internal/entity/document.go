package entity

import (
	"fmt"
	"slices"

	"github.com/joseph-ayodele/papertrans/constants"
	"github.com/joseph-ayodele/papertrans/internal/common"
)

// Page is one page of a document with its blocks in extraction order.
type Page struct {
	Number int     `json:"number"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Blocks []Block `json:"blocks"`
	Failed bool    `json:"failed,omitempty"`
}

// Document is one paper's processing record.
type Document struct {
	ID       string `json:"id"`
	Revision string `json:"revision"`
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	PDFPath  string `json:"pdf_path,omitempty"`

	TranslatedTitle    string `json:"translated_title,omitempty"`
	TranslatedAbstract string `json:"translated_abstract,omitempty"`

	Pages []Page `json:"pages"`
	Tags  Tags   `json:"tags"`

	Status          constants.DocStatus `json:"status"`
	Degraded        bool                `json:"degraded"`
	DegradedReasons []string            `json:"degraded_reasons,omitempty"`
	Error           string              `json:"error,omitempty"`
}

// NewDocument returns a document in the Fetched state.
func NewDocument(id, revision, title, abstract, pdfPath string) *Document {
	return &Document{
		ID:       id,
		Revision: revision,
		Title:    title,
		Abstract: abstract,
		PDFPath:  pdfPath,
		Status:   constants.DocStatusFetched,
	}
}

// Key is the cache identity of the document: catalog id plus content revision.
func (d *Document) Key() string {
	if d.Revision == "" {
		return d.ID
	}
	return d.ID + "@" + d.Revision
}

var transitions = map[constants.DocStatus]constants.DocStatus{
	constants.DocStatusFetched:    constants.DocStatusExtracted,
	constants.DocStatusExtracted:  constants.DocStatusTranslated,
	constants.DocStatusTranslated: constants.DocStatusClassified,
	constants.DocStatusClassified: constants.DocStatusReassembled,
}

// Transition advances the document one step along the state machine.
func (d *Document) Transition(to constants.DocStatus) error {
	if next, ok := transitions[d.Status]; !ok || next != to {
		return common.NewAppError("INVALID_TRANSITION",
			fmt.Sprintf("%s -> %s", d.Status, to), common.ErrInvalidState)
	}
	d.Status = to
	return nil
}

// Fail moves a non-terminal document to Failed.
func (d *Document) Fail(err error) error {
	if d.Status.Terminal() {
		return common.NewAppError("INVALID_TRANSITION",
			fmt.Sprintf("%s -> %s", d.Status, constants.DocStatusFailed), common.ErrInvalidState)
	}
	d.Status = constants.DocStatusFailed
	if err != nil {
		d.Error = err.Error()
	}
	return nil
}

// MarkDegraded sets the orthogonal degraded flag. It never changes Status.
func (d *Document) MarkDegraded(reason string) {
	d.Degraded = true
	if reason != "" && !slices.Contains(d.DegradedReasons, reason) {
		d.DegradedReasons = append(d.DegradedReasons, reason)
	}
}

// Blocks returns pointers to every block in ascending page order, then extraction order.
func (d *Document) Blocks() []*Block {
	slices.SortStableFunc(d.Pages, func(a, b Page) int { return a.Number - b.Number })
	var out []*Block
	for pi := range d.Pages {
		for bi := range d.Pages[pi].Blocks {
			out = append(out, &d.Pages[pi].Blocks[bi])
		}
	}
	return out
}

// BlockCount returns the number of blocks across all pages.
func (d *Document) BlockCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Blocks)
	}
	return n
}
