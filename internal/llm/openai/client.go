package openai

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	sdk "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/joseph-ayodele/papertrans/internal/common"
	"github.com/joseph-ayodele/papertrans/internal/llm"
)

// LayoutClient implements llm.LayoutRecognizer over a vision chat model.
type LayoutClient struct {
	cfg    Config
	sdk    sdk.Client
	logger *slog.Logger
}

var _ llm.LayoutRecognizer = (*LayoutClient)(nil)

// NewLayoutClient validates credentials up front; missing ones are fatal for the run.
func NewLayoutClient(cfg Config, logger *slog.Logger) (*LayoutClient, error) {
	logger = cfg.applyDefaults(logger)
	if cfg.BaseURL == "" || cfg.APIKey == "" || cfg.Model == "" {
		return nil, common.Fatal("CONFIG_ERROR", "layout endpoint, api key and model are required", nil)
	}
	client := sdk.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.Timeout),
	)
	return &LayoutClient{cfg: cfg, sdk: client, logger: logger}, nil
}

func (c *LayoutClient) Recognize(ctx context.Context, req llm.LayoutRequest) ([]llm.LayoutRecord, error) {
	rid := uuid.New().String()
	start := time.Now()
	log := common.LoggerFrom(ctx, c.logger)

	log.Debug("llm.layout.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"image_bytes", len(req.Image),
		"width", req.Width,
		"height", req.Height,
	)

	resp, err := c.sdk.Chat.Completions.New(ctx, sdk.ChatCompletionNewParams{
		Model:       sdk.ChatModel(c.cfg.Model),
		MaxTokens:   sdk.Int(int64(c.cfg.MaxTokens)),
		Temperature: sdk.Float(0),
		Messages: []sdk.ChatCompletionMessageParamUnion{
			sdk.UserMessage([]sdk.ChatCompletionContentPartUnionParam{
				sdk.ImageContentPart(sdk.ChatCompletionContentPartImageImageURLParam{
					URL: llm.DataURL(req.Image, req.MimeType),
				}),
				sdk.TextContentPart(c.cfg.Prompt),
			}),
		},
	})
	if err != nil {
		log.Error("llm.layout.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, classify(err)
	}
	if len(resp.Choices) == 0 {
		return nil, common.Malformed("layout", "no choices in response")
	}

	records, err := llm.DecodeLayout(resp.Choices[0].Message.Content, log)
	if err != nil {
		log.Error("llm.layout.decode_error",
			"req_id", rid, "error", err,
			"content_bytes", len(resp.Choices[0].Message.Content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	log.Info("llm.layout.ok",
		"req_id", rid,
		"records", len(records),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return records, nil
}

func classify(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return llm.FromStatus("layout", apiErr.StatusCode, err)
	}
	return llm.FromTransport("layout", err)
}
