package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/papertrans/internal/common"
)

// Paper is one entry of the daily paper list.
type Paper struct {
	ID          string   `json:"arxiv_id"`
	Title       string   `json:"title"`
	Abstract    string   `json:"abstract"`
	Authors     []string `json:"authors,omitempty"`
	Upvotes     int      `json:"upvotes,omitempty"`
	PublishedAt string   `json:"published_at,omitempty"`
	// PDF optionally names the file, relative to the PDF directory.
	PDF string `json:"pdf,omitempty"`
}

var manifestSchema = map[string]any{
	"type": "array",
	"items": map[string]any{
		"type":     "object",
		"required": []any{"arxiv_id", "title", "abstract"},
		"properties": map[string]any{
			"arxiv_id":     map[string]any{"type": "string", "minLength": 1},
			"title":        map[string]any{"type": "string"},
			"abstract":     map[string]any{"type": "string"},
			"authors":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"upvotes":      map[string]any{"type": "integer"},
			"published_at": map[string]any{"type": "string"},
			"pdf":          map[string]any{"type": "string"},
		},
	},
}

var compileManifest = sync.OnceValues(func() (*jsonschema.Schema, error) {
	b, err := json.Marshal(manifestSchema)
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("manifest.json", bytes.NewReader(b)); err != nil {
		return nil, err
	}
	return c.Compile("manifest.json")
})

// ParseManifest validates and decodes a manifest document.
func ParseManifest(data []byte) ([]Paper, error) {
	schema, err := compileManifest()
	if err != nil {
		return nil, fmt.Errorf("compile manifest schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, common.NewAppError("INVALID_MANIFEST", "manifest is not JSON", fmt.Errorf("%w: %w", common.ErrInvalidInput, err))
	}
	if err := schema.Validate(v); err != nil {
		return nil, common.NewAppError("INVALID_MANIFEST", "manifest does not match schema", fmt.Errorf("%w: %w", common.ErrValidation, err))
	}
	var papers []Paper
	if err := json.Unmarshal(data, &papers); err != nil {
		return nil, common.NewAppError("INVALID_MANIFEST", "decode manifest", fmt.Errorf("%w: %w", common.ErrInvalidInput, err))
	}
	return papers, nil
}

// LoadManifest reads and parses the manifest at path.
func LoadManifest(path string) ([]Paper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(data)
}
