package common

import (
	"context"
	"log/slog"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRunID contextKey = "run_id"
	ContextKeyDocID contextKey = "doc_id"
)

// WithRunID adds a run ID to the context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, ContextKeyRunID, runID)
}

// RunIDFromContext extracts the run ID from context
func RunIDFromContext(ctx context.Context) string {
	if runID, ok := ctx.Value(ContextKeyRunID).(string); ok {
		return runID
	}
	return ""
}

// WithDocID adds a document key to the context
func WithDocID(ctx context.Context, docID string) context.Context {
	return context.WithValue(ctx, ContextKeyDocID, docID)
}

// DocIDFromContext extracts the document key from context
func DocIDFromContext(ctx context.Context) string {
	if docID, ok := ctx.Value(ContextKeyDocID).(string); ok {
		return docID
	}
	return ""
}

// LoggerFrom decorates base with the run and document ids carried by ctx.
func LoggerFrom(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	if id := RunIDFromContext(ctx); id != "" {
		base = base.With("run_id", id)
	}
	if id := DocIDFromContext(ctx); id != "" {
		base = base.With("doc", id)
	}
	return base
}
