package openai

import (
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/papertrans/internal/common"
)

// Config for the layout-recognition client. Any OpenAI-compatible
// chat/completions endpoint serving a vision model works.
type Config struct {
	APIKey    string
	BaseURL   string // e.g. http://dotsocr.internal:8000/v1
	Model     string
	Prompt    string
	MaxTokens int
	Timeout   time.Duration
}

// FromAppConfig picks the layout section of the application config.
func FromAppConfig(c common.LayoutConfig) Config {
	return Config{
		APIKey:    c.APIKey,
		BaseURL:   c.Endpoint,
		Model:     c.Model,
		Prompt:    c.Prompt,
		MaxTokens: c.MaxTokens,
		Timeout:   c.Timeout,
	}
}

func (c *Config) applyDefaults(logger *slog.Logger) *slog.Logger {
	c.BaseURL = normalizeBaseURL(c.BaseURL)
	if c.Prompt == "" {
		c.Prompt = common.DefaultLayoutPrompt
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 24000
	}
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return logger
}

// normalizeBaseURL makes sure OpenAI-compatible endpoints end in /v1/.
func normalizeBaseURL(raw string) string {
	base := strings.TrimRight(strings.TrimSpace(raw), "/")
	if base == "" {
		return ""
	}
	if !strings.HasSuffix(base, "/v1") {
		base += "/v1"
	}
	return base + "/"
}
