package llm

// LayoutRecordsSchema constrains the recognizer output after sanitation.
func LayoutRecordsSchema() map[string]any {
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":     "object",
			"required": []string{"category", "bbox"},
			"properties": map[string]any{
				"category": map[string]any{"type": "string", "minLength": 1},
				"bbox": map[string]any{
					"type":     "array",
					"minItems": 4,
					"maxItems": 4,
					"items":    map[string]any{"type": "number"},
				},
				"text": map[string]any{"type": "string"},
			},
		},
	}
}

// TranslationSchema is an array of non-empty strings; the item count is checked separately.
func TranslationSchema() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string", "minLength": 1},
	}
}

// TagsSchema describes the classifier object. Facet values are validated loosely
// and normalized afterwards.
func TagsSchema() map[string]any {
	listOrScalar := map[string]any{
		"type": []string{"array", "string", "boolean", "null"},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"domain":      listOrScalar,
			"method":      listOrScalar,
			"task":        listOrScalar,
			"dataset":     listOrScalar,
			"open_source": listOrScalar,
		},
	}
}
