// Package anthropic implements the translation and classification capabilities
// on top of the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/papertrans/internal/common"
	"github.com/joseph-ayodele/papertrans/internal/llm"
)

type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	ClassifyModel  string
	TargetLanguage string
	MaxTokens      int
	Timeout        time.Duration
}

// FromAppConfig picks the translate and classify sections of the application config.
func FromAppConfig(t common.TranslateConfig, c common.ClassifyConfig) Config {
	return Config{
		APIKey:         t.APIKey,
		BaseURL:        t.BaseURL,
		Model:          t.Model,
		ClassifyModel:  c.Model,
		TargetLanguage: t.TargetLanguage,
		MaxTokens:      t.MaxTokens,
		Timeout:        t.Timeout,
	}
}

// Client serves both llm.Translator and llm.Classifier.
type Client struct {
	cfg    Config
	sdk    sdk.Client
	logger *slog.Logger
}

var (
	_ llm.Translator = (*Client)(nil)
	_ llm.Classifier = (*Client)(nil)
)

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, common.Fatal("CONFIG_ERROR", "ANTHROPIC_API_KEY is required", nil)
	}
	if cfg.Model == "" {
		cfg.Model = "claude-haiku-4-5-20251001"
	}
	if cfg.ClassifyModel == "" {
		cfg.ClassifyModel = cfg.Model
	}
	if cfg.TargetLanguage == "" {
		cfg.TargetLanguage = "Traditional Chinese (Taiwan)"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 8192
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}
	return &Client{cfg: cfg, sdk: sdk.NewClient(opts...), logger: logger}, nil
}

// Translate sends one ordered batch and returns the same number of items in order.
func (c *Client) Translate(ctx context.Context, req llm.TranslateRequest) ([]string, error) {
	if len(req.Items) == 0 {
		return nil, nil
	}
	system := llm.BuildTranslateSystemPrompt(c.cfg.TargetLanguage)
	if req.Kind == llm.TextKindTitle {
		system = llm.BuildTitleSystemPrompt(c.cfg.TargetLanguage)
	}
	content, err := c.complete(ctx, "translate", c.cfg.Model, system, llm.BuildBatchUserPrompt(req.Items))
	if err != nil {
		return nil, err
	}
	return llm.DecodeTranslations(content, len(req.Items))
}

// Classify returns the raw facet object for one document.
func (c *Client) Classify(ctx context.Context, req llm.ClassifyRequest) (map[string]any, error) {
	content, err := c.complete(ctx, "classify", c.cfg.ClassifyModel, llm.BuildClassifySystemPrompt(req.Domains), req.Text)
	if err != nil {
		return nil, err
	}
	return llm.DecodeTags(content)
}

func (c *Client) complete(ctx context.Context, op, model, system, user string) (string, error) {
	rid := uuid.New().String()
	start := time.Now()
	log := common.LoggerFrom(ctx, c.logger)

	msg, err := c.sdk.Messages.New(ctx, sdk.MessageNewParams{
		Model:       sdk.Model(model),
		MaxTokens:   int64(c.cfg.MaxTokens),
		Temperature: sdk.Float(0),
		System:      []sdk.TextBlockParam{{Text: system}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(user)),
		},
	})
	if err != nil {
		log.Error("llm."+op+".http_error",
			"req_id", rid, "model", model, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			return "", llm.FromStatus(op, apiErr.StatusCode, err)
		}
		return "", llm.FromTransport(op, err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if msg.StopReason == sdk.StopReasonMaxTokens {
		return "", common.Malformed(op, "response truncated at %d tokens", c.cfg.MaxTokens)
	}

	log.Info("llm."+op+".ok",
		"req_id", rid,
		"model", model,
		"input_tokens", msg.Usage.InputTokens,
		"output_tokens", msg.Usage.OutputTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return b.String(), nil
}
