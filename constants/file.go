package constants

import "strings"

// Operation names scoping content cache entries.
const (
	OpTranslate  = "translate"
	OpClassify   = "classify"
	OpLayout     = "layout"
	OpReassemble = "reassemble"
)

// Facet names produced by the tag classifier. The set is fixed.
const (
	FacetDomain     = "domain"
	FacetMethod     = "method"
	FacetTask       = "task"
	FacetDataset    = "dataset"
	FacetOpenSource = "open_source"
)

// Facets lists every facet name in a stable order.
var Facets = []string{FacetDomain, FacetMethod, FacetTask, FacetDataset, FacetOpenSource}

// DefaultDomains is the default vocabulary for the domain facet.
var DefaultDomains = []string{
	"NLP", "CV", "RL", "Multimodal", "Audio", "Robotics",
	"Theory", "Graph", "Medical", "Code", "Other",
}

// UntranslatedMarker prefixes units whose translation could not be produced.
const UntranslatedMarker = "[UNTRANSLATED]"

// FigurePlaceholder is the source text of a figure whose crop failed.
const FigurePlaceholder = "[FIGURE UNAVAILABLE]"

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
