package ai

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/IshaanNene/ArticleForge/internal/config"
	"github.com/IshaanNene/ArticleForge/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

type fakeGenerator struct {
	out    string
	err    error
	prompt string
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.out, g.err
}

var refs = []types.Reference{
	{SearchResult: types.SearchResult{URL: "https://a.com/1"}, Content: "first reference"},
	{SearchResult: types.SearchResult{URL: "https://b.com/2"}, Content: "second reference"},
}

func TestRewriteSuccess(t *testing.T) {
	g := &fakeGenerator{out: "  # New Article\n\nBody\n"}
	r := NewRewriter(g, 2000, testLogger)

	got := r.Rewrite(context.Background(), "Title", "original body", refs)
	if got.Fallback || got.Content != "# New Article\n\nBody" {
		t.Errorf("unexpected rewrite %+v", got)
	}
	if !strings.Contains(g.prompt, "Source 1 (https://a.com/1):\nfirst reference") ||
		!strings.Contains(g.prompt, "Source 2 (https://b.com/2):\nsecond reference") {
		t.Errorf("prompt missing formatted sources:\n%s", g.prompt)
	}
	if !strings.Contains(g.prompt, "Original Article Title: Title") {
		t.Errorf("prompt missing title:\n%s", g.prompt)
	}
}

func TestRewriteFallbacks(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		marker string
	}{
		{"no credential", types.ErrNoCredential, MarkerMissingKey},
		{"call failed", errors.New("502 bad gateway"), MarkerCallFailed},
		{"empty completion", ErrEmptyCompletion, MarkerCallFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRewriter(&fakeGenerator{err: tt.err}, 2000, testLogger)
			got := r.Rewrite(context.Background(), "T", "original", refs)
			if !got.Fallback {
				t.Error("expected fallback")
			}
			if got.Content != "original"+tt.marker {
				t.Errorf("unexpected content %q", got.Content)
			}
		})
	}
}

func TestPromptTruncatesContent(t *testing.T) {
	r := NewRewriter(&fakeGenerator{}, 10, testLogger)
	p := r.Prompt("T", strings.Repeat("x", 50), nil)
	if !strings.Contains(p, "\n"+strings.Repeat("x", 10)+"...\n") {
		t.Errorf("content not truncated to prefix:\n%s", p)
	}
}

func TestStripMarkers(t *testing.T) {
	in := "body" + MarkerCallFailed + MarkerMissingKey
	if got := StripMarkers(in); got != "body" {
		t.Errorf("expected body, got %q", got)
	}
}

func TestLLMClientNotConfigured(t *testing.T) {
	cfg := config.DefaultConfig().AI
	cfg.APIKey = ""
	c := NewLLMClient(&cfg, testLogger)
	if c.Configured() {
		t.Fatal("openai without key must not be configured")
	}
	if _, err := c.Generate(context.Background(), "hi"); !errors.Is(err, types.ErrNoCredential) {
		t.Errorf("expected ErrNoCredential, got %v", err)
	}
}

func TestLLMClientOpenAI(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": "rewritten"}}},
		})
	}))
	defer server.Close()

	cfg := config.DefaultConfig().AI
	cfg.APIKey = "sk-test"
	cfg.Endpoint = server.URL + "/v1"

	var observed []error
	c := NewLLMClient(&cfg, testLogger, WithObserver(func(provider string, err error) {
		observed = append(observed, err)
	}))

	out, err := c.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "rewritten" {
		t.Errorf("expected 'rewritten', got %q", out)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}
	if len(observed) != 1 || observed[0] != nil {
		t.Errorf("expected one successful observation, got %v", observed)
	}
}

func TestLLMClientOllama(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if r.URL.Path != "/api/generate" || body["stream"] != false {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"response": "from ollama"})
	}))
	defer server.Close()

	cfg := config.DefaultConfig().AI
	cfg.Provider = "ollama"
	cfg.Endpoint = server.URL
	c := NewLLMClient(&cfg, testLogger)

	out, err := c.Generate(context.Background(), "prompt")
	if err != nil || out != "from ollama" {
		t.Errorf("unexpected result %q, %v", out, err)
	}
}

func TestLLMClientCustomErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := config.DefaultConfig().AI
	cfg.Provider = "custom"
	cfg.Endpoint = server.URL
	c := NewLLMClient(&cfg, testLogger)

	_, err := c.Generate(context.Background(), "prompt")
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("expected status error with body, got %v", err)
	}
}
