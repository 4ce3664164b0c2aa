package llm

import (
	"regexp"
	"strings"
)

var reFence = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n?(.*?)\\n?```$")

// StripCodeFences removes one surrounding Markdown code fence, if present.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if m := reFence.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// ExtractJSON returns the first balanced JSON value that starts with open ('[' or '{')
// in s, ignoring brackets inside string literals. ok is false when none is found.
func ExtractJSON(s string, open byte) (string, bool) {
	s = StripCodeFences(s)
	var closer byte = ']'
	if open == '{' {
		closer = '}'
	}
	start := strings.IndexByte(s, open)
	for start >= 0 {
		depth, inStr, esc := 0, false, false
		for i := start; i < len(s); i++ {
			c := s[i]
			switch {
			case esc:
				esc = false
			case inStr && c == '\\':
				esc = true
			case c == '"':
				inStr = !inStr
			case inStr:
			case c == open:
				depth++
			case c == closer:
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
		next := strings.IndexByte(s[start+1:], open)
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}
