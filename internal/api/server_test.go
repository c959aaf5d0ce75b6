package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/IshaanNene/ArticleForge/internal/config"
	"github.com/IshaanNene/ArticleForge/internal/observability"
	"github.com/IshaanNene/ArticleForge/internal/storage"
	"github.com/IshaanNene/ArticleForge/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func newTestServer(t *testing.T, cfg config.ServerConfig) (*httptest.Server, storage.Storage) {
	t.Helper()
	store, err := storage.NewSQLStorage(context.Background(), "sqlite", filepath.Join(t.TempDir(), "api.db"), testLogger)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	srv := NewServer(&cfg, store, testLogger, WithMetrics(observability.NewMetrics(testLogger), "/metrics"))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out map[string]any
	json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestArticleLifecycle(t *testing.T) {
	ts, _ := newTestServer(t, config.DefaultConfig().Server)
	base := ts.URL + "/api/articles"

	resp, created := do(t, http.MethodPost, base, `{"title":"Chatbots","content":"<p>body</p>","url":"https://beyondchats.com/blogs/chatbots/"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	if created["status"] != "scraped" {
		t.Errorf("created status = %v", created["status"])
	}
	id := int64(created["id"].(float64))
	item := base + "/" + strconv.FormatInt(id, 10)

	resp, got := do(t, http.MethodGet, item, "")
	if resp.StatusCode != http.StatusOK || got["title"] != "Chatbots" {
		t.Fatalf("get = %d %v", resp.StatusCode, got)
	}

	resp, updated := do(t, http.MethodPut, item, `{"content":"# New","status":"enhanced"}`)
	if resp.StatusCode != http.StatusOK || updated["status"] != "enhanced" {
		t.Fatalf("update = %d %v", resp.StatusCode, updated)
	}

	resp, body := do(t, http.MethodPut, item, `{"status":"scraped"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("regression status = %d, want 409 (%v)", resp.StatusCode, body)
	}

	resp, body = do(t, http.MethodDelete, item, "")
	if resp.StatusCode != http.StatusOK || body["message"] != "Article deleted" {
		t.Errorf("delete = %d %v", resp.StatusCode, body)
	}

	resp, body = do(t, http.MethodGet, item, "")
	if resp.StatusCode != http.StatusNotFound || body["error"] != "Article not found" {
		t.Errorf("get after delete = %d %v", resp.StatusCode, body)
	}
}

func TestListEmptyIsArray(t *testing.T) {
	ts, _ := newTestServer(t, config.DefaultConfig().Server)

	resp, err := http.Get(ts.URL + "/api/articles")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var list []types.Article
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("expected empty array, got %v", list)
	}
}

func TestBadRequests(t *testing.T) {
	ts, _ := newTestServer(t, config.DefaultConfig().Server)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"invalid json", http.MethodPost, "/api/articles", `{`, http.StatusBadRequest},
		{"missing content", http.MethodPost, "/api/articles", `{"title":"x"}`, http.StatusBadRequest},
		{"bad id", http.MethodGet, "/api/articles/abc", "", http.StatusBadRequest},
		{"unknown id", http.MethodPut, "/api/articles/99", `{"title":"x"}`, http.StatusNotFound},
		{"unknown delete", http.MethodDelete, "/api/articles/99", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, tt.method, ts.URL+tt.path, tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			if _, ok := body["error"]; !ok {
				t.Errorf("expected error body, got %v", body)
			}
		})
	}
}

func TestHealthAndCORS(t *testing.T) {
	cfg := config.DefaultConfig().Server
	cfg.CORSOrigin = "https://ui.test"
	ts, _ := newTestServer(t, cfg)

	resp, body := do(t, http.MethodGet, ts.URL+"/api/health", "")
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" || body["version"] != config.Version {
		t.Errorf("health = %d %v", resp.StatusCode, body)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://ui.test" {
		t.Errorf("CORS origin = %q", got)
	}

	resp, _ = do(t, http.MethodOptions, ts.URL+"/api/articles", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("preflight status = %d", resp.StatusCode)
	}
}

func TestMetricsAndStatic(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>ui</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig().Server
	cfg.StaticDir = dir
	ts, _ := newTestServer(t, cfg)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics status = %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	page, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(page), "<h1>ui</h1>") {
		t.Errorf("static body = %q", page)
	}
}
