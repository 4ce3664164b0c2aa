package entity

import (
	"fmt"
	"slices"
	"strings"

	"github.com/joseph-ayodele/papertrans/constants"
)

// Tags maps each fixed facet name to a sorted set of values.
type Tags map[string][]string

// EmptyTags returns tags with every facet present and empty.
func EmptyTags() Tags {
	t := make(Tags, len(constants.Facets))
	for _, f := range constants.Facets {
		t[f] = []string{}
	}
	return t
}

// NormalizeTags converts a decoded classifier response into Tags.
// Unknown facets are dropped, scalars become one-element sets, anything else becomes empty.
// Domain values outside the vocabulary map to "Other" when the vocabulary contains it.
func NormalizeTags(raw map[string]any, domains []string) Tags {
	t := EmptyTags()
	for _, f := range constants.Facets {
		v, ok := raw[f]
		if !ok {
			continue
		}
		t[f] = toSet(v)
	}
	if len(domains) > 0 {
		var kept []string
		for _, d := range t[constants.FacetDomain] {
			if canon, ok := matchFold(domains, d); ok {
				kept = append(kept, canon)
			} else if slices.Contains(domains, "Other") {
				kept = append(kept, "Other")
			}
		}
		t[constants.FacetDomain] = dedupe(kept)
	}
	return t
}

func toSet(v any) []string {
	var out []string
	switch x := v.(type) {
	case []any:
		for _, item := range x {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	case []string:
		out = append(out, x...)
	case bool:
		out = []string{fmt.Sprintf("%t", x)}
	case string:
		out = []string{x}
	}
	return dedupe(out)
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return out
}

func matchFold(vocab []string, s string) (string, bool) {
	for _, v := range vocab {
		if strings.EqualFold(v, strings.TrimSpace(s)) {
			return v, true
		}
	}
	return "", false
}
