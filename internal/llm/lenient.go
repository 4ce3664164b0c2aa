package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// NormalizeLayoutJSON coerces loosely-typed recognizer output into the record schema:
//   - bbox given as strings or nested one level deep becomes four numbers
//   - non-string text is dropped
//   - records without a usable category or bbox are dropped
func NormalizeLayoutJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 4)
	out := make([]map[string]any, 0, len(items))
	for i, m := range items {
		cat, _ := m["category"].(string)
		cat = strings.TrimSpace(cat)
		if cat == "" {
			dropped = append(dropped, fmt.Sprintf("#%d(category)", i))
			continue
		}
		box, ok := coerceBBox(m["bbox"])
		if !ok {
			dropped = append(dropped, fmt.Sprintf("#%d(bbox)", i))
			continue
		}
		rec := map[string]any{"category": cat, "bbox": box}
		switch t := m["text"].(type) {
		case string:
			rec["text"] = t
		case nil:
		default:
			dropped = append(dropped, fmt.Sprintf("#%d.text(type)", i))
		}
		out = append(out, rec)
	}

	b, err := json.Marshal(out)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.layout.normalize_sanitize", "dropped", dropped)
	}
	return b, dropped, nil
}

func coerceBBox(v any) ([]float64, bool) {
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}
	if len(arr) == 1 {
		if inner, ok := arr[0].([]any); ok {
			arr = inner
		}
	}
	if len(arr) != 4 {
		return nil, false
	}
	box := make([]float64, 4)
	for i, x := range arr {
		switch t := x.(type) {
		case float64:
			box[i] = t
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
			if err != nil {
				return nil, false
			}
			box[i] = f
		default:
			return nil, false
		}
	}
	return box, true
}
