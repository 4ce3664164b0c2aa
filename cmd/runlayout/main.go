package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/papertrans/internal/app"
	"github.com/joseph-ayodele/papertrans/internal/common"
	"github.com/joseph-ayodele/papertrans/internal/ingest"
)

// runlayout renders one PDF and prints its extracted pages as JSON, without translating.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "runlayout <paper.pdf>")
		os.Exit(2)
	}
	path := os.Args[1]

	cfg, err := common.LoadConfig(os.Getenv("PAPERTRANS_CONFIG"))
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	a, err := app.NewLayoutOnly(ctx, cfg, logger)
	if err != nil {
		logger.Error("init layout", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	rev, err := ingest.Revision("", "", path)
	if err != nil {
		logger.Error("read pdf", "path", path, "error", err)
		os.Exit(1)
	}
	docKey := "local@" + rev

	start := time.Now()
	pages, err := a.Renderer.Render(ctx, path)
	if err != nil {
		logger.Error("render failed", "path", path, "error", err)
		os.Exit(1)
	}
	res, err := a.Extractor.ExtractDocument(ctx, docKey, pages)
	dur := time.Since(start)
	if err != nil {
		logger.Error("layout extraction failed", "error", err, "duration_ms", dur.Milliseconds())
		os.Exit(1)
	}

	logger.Info("layout extraction OK",
		"doc", docKey,
		"pages", len(res.Pages),
		"failed_pages", res.FailedPages,
		"placeholders", res.Placeholders,
		"duration_ms", dur.Milliseconds(),
	)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res.Pages); err != nil {
		logger.Error("encode", "error", err)
		os.Exit(1)
	}
}
