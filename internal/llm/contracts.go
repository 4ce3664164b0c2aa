package llm

import "context"

// LayoutRecord is one element returned by the layout-recognition capability.
// BBox is [x1, y1, x2, y2] in the pixel space of the image that was sent.
type LayoutRecord struct {
	Category string    `json:"category"`
	BBox     []float64 `json:"bbox"`
	Text     string    `json:"text,omitempty"`
}

// LayoutRecognizer turns one page image into records in reading order.
type LayoutRecognizer interface {
	Recognize(ctx context.Context, req LayoutRequest) ([]LayoutRecord, error)
}

type LayoutRequest struct {
	Image    []byte // encoded raster
	MimeType string
	Width    int
	Height   int
}

// TextKind selects the instruction used for a translation request.
type TextKind string

const (
	TextKindBody     TextKind = "body"
	TextKindTitle    TextKind = "title"
	TextKindAbstract TextKind = "abstract"
)

type TranslateRequest struct {
	Kind  TextKind
	Items []string
}

// Translator translates an ordered batch. The response must have the same count and order.
type Translator interface {
	Translate(ctx context.Context, req TranslateRequest) ([]string, error)
}

type ClassifyRequest struct {
	Text    string
	Domains []string
}

// Classifier returns the raw facet mapping for one document's text.
type Classifier interface {
	Classify(ctx context.Context, req ClassifyRequest) (map[string]any, error)
}
