package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/joseph-ayodele/papertrans/constants"
	"github.com/joseph-ayodele/papertrans/internal/common"
	"github.com/joseph-ayodele/papertrans/internal/llm"
)

func message(text, stop string) map[string]any {
	return map[string]any{
		"id":            "msg_1",
		"type":          "message",
		"role":          "assistant",
		"model":         "claude-haiku-4-5-20251001",
		"content":       []map[string]any{{"type": "text", "text": text}},
		"stop_reason":   stop,
		"stop_sequence": nil,
		"usage":         map[string]any{"input_tokens": 10, "output_tokens": 5},
	}
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestTranslate(t *testing.T) {
	var sent struct {
		System   []map[string]any `json:"system"`
		Messages []struct {
			Content []map[string]any `json:"content"`
		} `json:"messages"`
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &sent)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(message(`["注意力機制", "我們提出 Transformer。"]`, "end_turn"))
	})

	got, err := c.Translate(context.Background(), llm.TranslateRequest{
		Kind:  llm.TextKindBody,
		Items: []string{"Attention", "We propose the Transformer."},
	})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if want := []string{"注意力機制", "我們提出 Transformer。"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Translate() = %v, want %v", got, want)
	}
	if len(sent.System) != 1 || !strings.Contains(sent.System[0]["text"].(string), "same number of items") {
		t.Fatalf("system prompt not sent: %+v", sent.System)
	}
	if text, _ := sent.Messages[0].Content[0]["text"].(string); text != `["Attention","We propose the Transformer."]` {
		t.Fatalf("user content = %q", text)
	}
}

func TestTranslateCountMismatchIsMalformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(message(`["只有一個"]`, "end_turn"))
	})
	_, err := c.Translate(context.Background(), llm.TranslateRequest{Items: []string{"a", "b"}})
	if !errors.Is(err, common.ErrMalformedResponse) {
		t.Fatalf("err = %v, want malformed", err)
	}
}

func TestTranslateTruncatedIsMalformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(message(`["部分`, "max_tokens"))
	})
	_, err := c.Translate(context.Background(), llm.TranslateRequest{Items: []string{"a"}})
	if !errors.Is(err, common.ErrMalformedResponse) {
		t.Fatalf("err = %v, want malformed", err)
	}
}

func TestClassify(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(message(
			"```json\n{\"domain\":[\"NLP\"],\"method\":[\"LoRA\"],\"task\":[],\"dataset\":[\"GLUE\"],\"open_source\":true}\n```",
			"end_turn"))
	})
	raw, err := c.Classify(context.Background(), llm.ClassifyRequest{Text: "abstract", Domains: constants.DefaultDomains})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if raw["open_source"] != true {
		t.Fatalf("open_source = %v", raw["open_source"])
	}
}

func TestStatusTaxonomy(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{401, common.ErrFatalConfiguration},
		{529, common.ErrTransientService},
		{429, common.ErrTransientService},
	}
	for _, tt := range tests {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(tt.status)
			_, _ = io.WriteString(w, `{"type":"error","error":{"type":"api_error","message":"nope"}}`)
		})
		_, err := c.Translate(context.Background(), llm.TranslateRequest{Items: []string{"a"}})
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: err = %v, want %v", tt.status, err, tt.want)
		}
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(Config{}, nil); !errors.Is(err, common.ErrFatalConfiguration) {
		t.Fatalf("err = %v", err)
	}
}
