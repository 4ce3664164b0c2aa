package classify

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"unicode/utf8"

	"github.com/joseph-ayodele/papertrans/constants"
	"github.com/joseph-ayodele/papertrans/internal/cache"
	"github.com/joseph-ayodele/papertrans/internal/common"
	"github.com/joseph-ayodele/papertrans/internal/entity"
	"github.com/joseph-ayodele/papertrans/internal/llm"
	"github.com/joseph-ayodele/papertrans/internal/retry"
)

type fakeClassifier struct {
	calls int
	last  llm.ClassifyRequest
	out   map[string]any
	err   error
}

func (f *fakeClassifier) Classify(_ context.Context, req llm.ClassifyRequest) (map[string]any, error) {
	f.calls++
	f.last = req
	return f.out, f.err
}

func testConfig() Config {
	return Config{
		MaxInputChars: 10,
		Domains:       []string{"NLP", "Vision", "Other"},
		Retry:         retry.Policy{MaxAttempts: 2, Sleep: retry.NoSleep},
	}
}

func TestClassifyCachesPerDocument(t *testing.T) {
	fc := &fakeClassifier{out: map[string]any{
		constants.FacetDomain:     []any{"nlp", "Robotics"},
		constants.FacetOpenSource: true,
		"unknown":                 "x",
	}}
	store := cache.NewMemoryStore()
	c := NewClassifier(fc, store, testConfig(), nil)
	ctx := context.Background()

	first, degraded, err := c.Classify(ctx, "2501.00001@abc", "这是一段很长很长的翻译文本内容")
	if err != nil || degraded {
		t.Fatalf("Classify() degraded=%v err=%v", degraded, err)
	}
	if got := utf8.RuneCountInString(fc.last.Text); got != 10 {
		t.Errorf("input runes = %d, want truncated to 10", got)
	}
	if want := []string{"NLP", "Other"}; !reflect.DeepEqual(first[constants.FacetDomain], want) {
		t.Errorf("domain = %v, want %v", first[constants.FacetDomain], want)
	}
	if want := []string{"true"}; !reflect.DeepEqual(first[constants.FacetOpenSource], want) {
		t.Errorf("open-source = %v, want %v", first[constants.FacetOpenSource], want)
	}
	if _, ok := first["unknown"]; ok {
		t.Error("unknown facet should be dropped")
	}

	second, _, err := c.Classify(ctx, "2501.00001@abc", "different text")
	if err != nil {
		t.Fatal(err)
	}
	if fc.calls != 1 {
		t.Errorf("calls = %d, want 1", fc.calls)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached tags differ: %v vs %v", first, second)
	}
}

func TestClassifyFailureLeavesEmptyTags(t *testing.T) {
	fc := &fakeClassifier{err: common.Transient("classify", errors.New("503"))}
	store := cache.NewMemoryStore()
	c := NewClassifier(fc, store, testConfig(), nil)

	tags, degraded, err := c.Classify(context.Background(), "doc@1", "text")
	if err != nil {
		t.Fatalf("Classify() error = %v, want nil", err)
	}
	if !degraded {
		t.Error("want degraded")
	}
	if !reflect.DeepEqual(tags, entity.EmptyTags()) {
		t.Errorf("tags = %v, want empty facets", tags)
	}
	if fc.calls != 2 {
		t.Errorf("calls = %d, want 2 attempts", fc.calls)
	}
	if store.Len() != 0 {
		t.Error("failed classification must not be cached")
	}
}

func TestClassifyFatalIsReturned(t *testing.T) {
	fc := &fakeClassifier{err: common.Fatal("AUTH", "rejected key", nil)}
	c := NewClassifier(fc, cache.NewMemoryStore(), testConfig(), nil)
	if _, _, err := c.Classify(context.Background(), "doc@1", "text"); !errors.Is(err, common.ErrFatalConfiguration) {
		t.Fatalf("error = %v, want fatal", err)
	}
}
