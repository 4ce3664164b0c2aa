package llm

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/joseph-ayodele/papertrans/internal/common"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		open byte
		want string
		ok   bool
	}{
		{name: "bare", in: `[1,2]`, open: '[', want: `[1,2]`, ok: true},
		{name: "fenced", in: "```json\n[{\"a\":1}]\n```", open: '[', want: `[{"a":1}]`, ok: true},
		{name: "prose around", in: "Here you go: [\"x\", \"y\"] hope it helps", open: '[', want: `["x", "y"]`, ok: true},
		{name: "brackets in strings", in: `["a]b", "[c"]`, open: '[', want: `["a]b", "[c"]`, ok: true},
		{name: "object", in: `result {"domain": ["NLP"]} end`, open: '{', want: `{"domain": ["NLP"]}`, ok: true},
		{name: "none", in: `no json here`, open: '[', ok: false},
		{name: "unbalanced", in: `[1, 2`, open: '[', ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSON(tt.in, tt.open)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("ExtractJSON() = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestDecodeLayout(t *testing.T) {
	content := "```json\n" + `[
  {"bbox": [10, 20, 300, 60], "category": "Title", "text": "# Attention"},
  {"bbox": ["10", "70", "300", "200"], "category": "Text", "text": "Body"},
  {"bbox": [[40, 220, 280, 400]], "category": "Picture"},
  {"bbox": [1, 2], "category": "Text", "text": "broken"}
]` + "\n```"
	got, err := DecodeLayout(content, nil)
	if err != nil {
		t.Fatalf("DecodeLayout: %v", err)
	}
	want := []LayoutRecord{
		{Category: "Title", BBox: []float64{10, 20, 300, 60}, Text: "# Attention"},
		{Category: "Text", BBox: []float64{10, 70, 300, 200}, Text: "Body"},
		{Category: "Picture", BBox: []float64{40, 220, 280, 400}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("DecodeLayout() = %+v, want %+v", got, want)
	}
}

func TestDecodeLayoutMalformed(t *testing.T) {
	for _, in := range []string{"sorry, I cannot read this page", `{"bbox": [1,2,3,4]}`} {
		if _, err := DecodeLayout(in, nil); !errors.Is(err, common.ErrMalformedResponse) {
			t.Errorf("DecodeLayout(%q) err = %v, want malformed", in, err)
		}
	}
}

func TestDecodeTranslationsCountMismatch(t *testing.T) {
	if _, err := DecodeTranslations(`["一", "二"]`, 3); !errors.Is(err, common.ErrMalformedResponse) {
		t.Fatalf("err = %v, want malformed", err)
	}
	if _, err := DecodeTranslations(`["一", ""]`, 2); !errors.Is(err, common.ErrMalformedResponse) {
		t.Fatalf("empty item err = %v, want malformed", err)
	}
	got, err := DecodeTranslations("```\n[\"一\", \"二\"]\n```", 2)
	if err != nil || !reflect.DeepEqual(got, []string{"一", "二"}) {
		t.Fatalf("DecodeTranslations() = %v, %v", got, err)
	}
}

func TestDecodeTags(t *testing.T) {
	m, err := DecodeTags(`{"domain": ["NLP"], "method": "LoRA", "open_source": true}`)
	if err != nil {
		t.Fatal(err)
	}
	if m["open_source"] != true {
		t.Fatalf("open_source = %v", m["open_source"])
	}
	if _, err := DecodeTags(`{"domain": 3}`); !errors.Is(err, common.ErrMalformedResponse) {
		t.Fatalf("numeric facet err = %v, want malformed", err)
	}
}

func TestFromStatus(t *testing.T) {
	cause := errors.New("api error")
	tests := []struct {
		status int
		want   error
	}{
		{401, common.ErrFatalConfiguration},
		{403, common.ErrFatalConfiguration},
		{404, common.ErrFatalConfiguration},
		{429, common.ErrTransientService},
		{503, common.ErrTransientService},
		{400, common.ErrMalformedResponse},
	}
	for _, tt := range tests {
		if err := FromStatus("translate", tt.status, cause); !errors.Is(err, tt.want) {
			t.Errorf("FromStatus(%d) = %v, want %v", tt.status, err, tt.want)
		}
	}
	if err := FromTransport("layout", context.Canceled); !errors.Is(err, context.Canceled) || common.Retryable(err) {
		t.Errorf("FromTransport(canceled) = %v", err)
	}
}

type slowTranslator struct {
	inFlight, peak atomic.Int32
}

func (s *slowTranslator) Translate(_ context.Context, req TranslateRequest) ([]string, error) {
	n := s.inFlight.Add(1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	s.inFlight.Add(-1)
	return req.Items, nil
}

func TestLimiterCapsInFlight(t *testing.T) {
	inner := &slowTranslator{}
	tr := NewLimiter(2).Translator(inner)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := tr.Translate(context.Background(), TranslateRequest{Items: []string{"x"}}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if p := inner.peak.Load(); p > 2 {
		t.Fatalf("peak in-flight = %d, want <= 2", p)
	}
}
