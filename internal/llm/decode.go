package llm

import (
	"encoding/json"
	"log/slog"

	"github.com/joseph-ayodele/papertrans/internal/common"
)

// DecodeLayout parses recognizer content into records. Any failure is a malformed response.
func DecodeLayout(content string, logger *slog.Logger) ([]LayoutRecord, error) {
	raw, ok := ExtractJSON(content, '[')
	if !ok {
		return nil, common.Malformed("layout", "no JSON array in response (%d bytes)", len(content))
	}
	if err := ValidateJSONAgainstSchema("layout", LayoutRecordsSchema(), []byte(raw)); err != nil {
		cleaned, dropped, sErr := NormalizeLayoutJSON([]byte(raw), logger)
		if sErr != nil {
			return nil, common.Malformed("layout", "%v", sErr)
		}
		if vErr := ValidateJSONAgainstSchema("layout", LayoutRecordsSchema(), cleaned); vErr != nil {
			return nil, common.Malformed("layout", "%v", vErr)
		}
		if logger != nil {
			logger.Warn("llm.layout.lenient_sanitize_applied", "dropped", dropped)
		}
		raw = string(cleaned)
	}
	var records []LayoutRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, common.Malformed("layout", "%v", err)
	}
	return records, nil
}

// DecodeTranslations parses a JSON array of strings and enforces the item count.
func DecodeTranslations(content string, want int) ([]string, error) {
	raw, ok := ExtractJSON(content, '[')
	if !ok {
		return nil, common.Malformed("translate", "no JSON array in response")
	}
	if err := ValidateJSONAgainstSchema("translation", TranslationSchema(), []byte(raw)); err != nil {
		return nil, common.Malformed("translate", "%v", err)
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, common.Malformed("translate", "%v", err)
	}
	if len(items) != want {
		return nil, common.Malformed("translate", "got %d items, want %d", len(items), want)
	}
	return items, nil
}

// DecodeTags parses the classifier's JSON object.
func DecodeTags(content string) (map[string]any, error) {
	raw, ok := ExtractJSON(content, '{')
	if !ok {
		return nil, common.Malformed("classify", "no JSON object in response")
	}
	if err := ValidateJSONAgainstSchema("tags", TagsSchema(), []byte(raw)); err != nil {
		return nil, common.Malformed("classify", "%v", err)
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, common.Malformed("classify", "%v", err)
	}
	return m, nil
}
