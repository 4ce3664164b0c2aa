// Package translate packs text blocks into budgeted batches and attaches translations.
package translate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/papertrans/internal/cache"
	"github.com/joseph-ayodele/papertrans/internal/common"
	"github.com/joseph-ayodele/papertrans/internal/entity"
	"github.com/joseph-ayodele/papertrans/internal/llm"
	"github.com/joseph-ayodele/papertrans/internal/retry"
)

type Batcher struct {
	translator llm.Translator
	cache      cache.Store
	budget     Budget
	policy     retry.Policy
	logger     *slog.Logger
}

func NewBatcher(translator llm.Translator, store cache.Store, budget Budget, policy retry.Policy, logger *slog.Logger) *Batcher {
	if logger == nil {
		logger = slog.Default()
	}
	if budget.Limit <= 0 {
		budget.Limit = 1
	}
	return &Batcher{translator: translator, cache: store, budget: budget, policy: policy, logger: logger}
}

// Result summarizes one Translate call.
type Result struct {
	CacheHits     int
	Batches       int
	FailedBatches int
	Translated    int
	Untranslated  int
}

// Degraded reports whether some blocks kept only their source text.
func (r Result) Degraded() bool { return r.Untranslated > 0 }

// pending groups every block sharing one content hash so the text is sent once.
type pending struct {
	hash   string
	text   string
	blocks []*entity.Block
}

// Translate fills TranslatedText on every translatable block, in input order.
// Blocks of a batch that keeps failing are left untranslated and counted in the result.
// Only fatal configuration errors and cancellation are returned.
func (b *Batcher) Translate(ctx context.Context, blocks []*entity.Block) (Result, error) {
	log := common.LoggerFrom(ctx, b.logger)
	var res Result

	var queue []*pending
	byHash := map[string]*pending{}
	for _, blk := range blocks {
		if !blk.Translatable() || blk.Translated() {
			continue
		}
		h := blk.Hash()
		if p, ok := byHash[h]; ok {
			p.blocks = append(p.blocks, blk)
			continue
		}
		e, hit, err := b.cache.Get(ctx, cache.TranslateKey(h))
		if err != nil {
			log.Warn("translate.cache.get_failed", "error", err)
		}
		if hit {
			_ = blk.SetTranslation(string(e.Value))
			res.CacheHits++
			res.Translated++
			continue
		}
		p := &pending{hash: h, text: blk.SourceText, blocks: []*entity.Block{blk}}
		byHash[h] = p
		queue = append(queue, p)
	}
	if len(queue) == 0 {
		log.Debug("translate.all_cached", "hits", res.CacheHits)
		return res, nil
	}

	texts := make([]string, len(queue))
	for i, p := range queue {
		texts[i] = p.text
	}
	for n, idx := range Plan(texts, b.budget) {
		items := make([]string, len(idx))
		for i, j := range idx {
			items[i] = texts[j]
		}

		var out []string
		err := retry.Do(ctx, b.policy, log, "translate.batch", func(ctx context.Context, attempt int) error {
			var tErr error
			out, tErr = b.translator.Translate(ctx, llm.TranslateRequest{Kind: llm.TextKindBody, Items: items})
			if tErr != nil {
				return tErr
			}
			return checkItems(items, out)
		})
		res.Batches++

		if err != nil {
			switch common.Decide(err, false) {
			case common.OutcomeAbortRun, common.OutcomeFailDocument:
				return res, err
			}
			res.FailedBatches++
			for _, j := range idx {
				res.Untranslated += len(queue[j].blocks)
			}
			log.Warn("translate.batch.failed", "batch", n, "items", len(items), "error", err)
			continue
		}

		for i, j := range idx {
			p := queue[j]
			for _, blk := range p.blocks {
				_ = blk.SetTranslation(out[i])
				res.Translated++
			}
			if _, err := b.cache.Put(ctx, cache.TranslateKey(p.hash), []byte(out[i])); err != nil {
				log.Warn("translate.cache.put_failed", "error", err)
			}
		}
		log.Info("translate.batch.ok", "batch", n, "items", len(items))
	}
	return res, nil
}

// TranslateText translates a standalone text such as a title or abstract.
// The caller decides whether a failure is fatal to the document.
func (b *Batcher) TranslateText(ctx context.Context, kind llm.TextKind, text string) (string, error) {
	if text == "" {
		return "", nil
	}
	sum := sha256.Sum256([]byte(string(kind) + "\x00" + text))
	key := cache.TranslateKey(hex.EncodeToString(sum[:]))
	log := common.LoggerFrom(ctx, b.logger)

	if e, hit, err := b.cache.Get(ctx, key); err != nil {
		log.Warn("translate.cache.get_failed", "kind", kind, "error", err)
	} else if hit {
		return string(e.Value), nil
	}

	var out []string
	err := retry.Do(ctx, b.policy, log, "translate."+string(kind), func(ctx context.Context, attempt int) error {
		var tErr error
		out, tErr = b.translator.Translate(ctx, llm.TranslateRequest{Kind: kind, Items: []string{text}})
		if tErr != nil {
			return tErr
		}
		return checkItems([]string{text}, out)
	})
	if err != nil {
		return "", err
	}
	if _, err := b.cache.Put(ctx, key, []byte(out[0])); err != nil {
		log.Warn("translate.cache.put_failed", "kind", kind, "error", err)
	}
	return out[0], nil
}

// checkItems rejects a response that cannot be applied item by item. Cache entries are
// immutable, so an empty translation of a non-empty source must never be accepted.
func checkItems(items, out []string) error {
	if len(out) != len(items) {
		return common.Malformed("translate", "got %d items, want %d", len(out), len(items))
	}
	for i, src := range items {
		if strings.TrimSpace(out[i]) == "" && strings.TrimSpace(src) != "" {
			return common.Malformed("translate", "item %d translated to empty text", i)
		}
	}
	return nil
}
