package llm

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Limiter caps external calls in flight across every document of a run.
// No lock is held while a call is outstanding; only a semaphore slot.
type Limiter struct {
	sem *semaphore.Weighted
}

func NewLimiter(n int) *Limiter {
	if n <= 0 {
		n = 1
	}
	return &Limiter{sem: semaphore.NewWeighted(int64(n))}
}

func (l *Limiter) do(ctx context.Context, fn func() error) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer l.sem.Release(1)
	return fn()
}

type limitedRecognizer struct {
	next LayoutRecognizer
	l    *Limiter
}

func (r limitedRecognizer) Recognize(ctx context.Context, req LayoutRequest) (out []LayoutRecord, err error) {
	err = r.l.do(ctx, func() error {
		out, err = r.next.Recognize(ctx, req)
		return err
	})
	return out, err
}

type limitedTranslator struct {
	next Translator
	l    *Limiter
}

func (t limitedTranslator) Translate(ctx context.Context, req TranslateRequest) (out []string, err error) {
	err = t.l.do(ctx, func() error {
		out, err = t.next.Translate(ctx, req)
		return err
	})
	return out, err
}

type limitedClassifier struct {
	next Classifier
	l    *Limiter
}

func (c limitedClassifier) Classify(ctx context.Context, req ClassifyRequest) (out map[string]any, err error) {
	err = c.l.do(ctx, func() error {
		out, err = c.next.Classify(ctx, req)
		return err
	})
	return out, err
}

func (l *Limiter) Recognizer(next LayoutRecognizer) LayoutRecognizer {
	return limitedRecognizer{next: next, l: l}
}

func (l *Limiter) Translator(next Translator) Translator {
	return limitedTranslator{next: next, l: l}
}

func (l *Limiter) Classifier(next Classifier) Classifier {
	return limitedClassifier{next: next, l: l}
}
