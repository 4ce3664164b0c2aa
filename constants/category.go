package constants

import (
	"strings"
)

// BlockKind is the typed category of one extracted unit of content.
type BlockKind string

const (
	KindTitle   BlockKind = "Title"
	KindText    BlockKind = "Text"
	KindTable   BlockKind = "Table"
	KindFormula BlockKind = "Formula"
	KindFigure  BlockKind = "Figure"
)

var allKinds = []BlockKind{
	KindTitle,
	KindText,
	KindTable,
	KindFormula,
	KindFigure,
}

// KindsAsStringSlice returns every block kind in declaration order.
func KindsAsStringSlice() []string {
	result := make([]string, len(allKinds))
	for i, k := range allKinds {
		result[i] = string(k)
	}
	return result
}

// Valid reports whether k is one of the known block kinds.
func (k BlockKind) Valid() bool {
	for _, v := range allKinds {
		if v == k {
			return true
		}
	}
	return false
}

// Recognizer categories that are dropped instead of becoming blocks.
var skippedCategories = map[string]struct{}{
	"page-header": {},
	"page-footer": {},
}

// CanonicalizeCategory maps a raw layout-recognizer category onto a BlockKind.
// The second return value is false when the record should be dropped entirely.
// Unknown categories fall back to Text so their content is never lost.
func CanonicalizeCategory(input string) (BlockKind, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")

	if _, skip := skippedCategories[normalized]; skip {
		return "", false
	}

	synonyms := map[string]BlockKind{
		"title":          KindTitle,
		"section-header": KindTitle,
		"text":           KindText,
		"list-item":      KindText,
		"caption":        KindText,
		"footnote":       KindText,
		"table":          KindTable,
		"formula":        KindFormula,
		"equation":       KindFormula,
		"picture":        KindFigure,
		"figure":         KindFigure,
		"image":          KindFigure,
	}
	if k, ok := synonyms[normalized]; ok {
		return k, true
	}
	return KindText, true
}
