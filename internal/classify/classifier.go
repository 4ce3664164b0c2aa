// Package classify attaches fixed-facet tags to a document, once per document identity.
package classify

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"github.com/joseph-ayodele/papertrans/internal/cache"
	"github.com/joseph-ayodele/papertrans/internal/common"
	"github.com/joseph-ayodele/papertrans/internal/entity"
	"github.com/joseph-ayodele/papertrans/internal/llm"
	"github.com/joseph-ayodele/papertrans/internal/retry"
)

type Config struct {
	MaxInputChars int
	Domains       []string
	Retry         retry.Policy
}

type Classifier struct {
	capability llm.Classifier
	cache      cache.Store
	cfg        Config
	logger     *slog.Logger
}

func NewClassifier(capability llm.Classifier, store cache.Store, cfg Config, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{capability: capability, cache: store, cfg: cfg, logger: logger}
}

// Classify returns the document's tags. A capability failure after retries yields
// empty tags and degraded=true; such a result is not cached so a later run can retry.
// The returned error is non-nil only for fatal configuration errors and cancellation.
func (c *Classifier) Classify(ctx context.Context, docKey, text string) (entity.Tags, bool, error) {
	log := common.LoggerFrom(ctx, c.logger)
	key := cache.ClassifyKey(docKey)

	var cached entity.Tags
	hit, err := cache.GetJSON(ctx, c.cache, key, &cached)
	if err != nil {
		log.Warn("classify.cache.get_failed", "error", err)
	}
	if hit {
		log.Debug("classify.cache.hit")
		return fill(cached), false, nil
	}

	req := llm.ClassifyRequest{Text: truncate(text, c.cfg.MaxInputChars), Domains: c.cfg.Domains}
	var raw map[string]any
	err = retry.Do(ctx, c.cfg.Retry, log, "classify", func(ctx context.Context, attempt int) error {
		var cErr error
		raw, cErr = c.capability.Classify(ctx, req)
		return cErr
	})
	if err != nil {
		if o := common.Decide(err, false); o != common.OutcomeDegradeUnit {
			return entity.EmptyTags(), true, err
		}
		log.Warn("classify.failed", "error", err)
		return entity.EmptyTags(), true, nil
	}

	tags := entity.NormalizeTags(raw, c.cfg.Domains)
	if _, err := cache.PutJSON(ctx, c.cache, key, tags); err != nil {
		log.Warn("classify.cache.put_failed", "error", err)
	}
	log.Info("classify.ok", "facets", len(tags))
	return tags, false, nil
}

// fill restores facets an older cached entry might lack.
func fill(t entity.Tags) entity.Tags {
	out := entity.EmptyTags()
	for k, v := range t {
		if _, ok := out[k]; ok && v != nil {
			out[k] = v
		}
	}
	return out
}

func truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}
