package search

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"testing"

	"github.com/IshaanNene/ArticleForge/internal/config"
	"github.com/IshaanNene/ArticleForge/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

type fakeRenderer struct {
	body string
	err  error
	urls []string
}

func (f *fakeRenderer) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	f.urls = append(f.urls, req.URLString())
	if f.err != nil {
		return nil, f.err
	}
	return &types.Response{StatusCode: 200, Body: []byte(f.body), Request: req, FinalURL: req.URLString()}, nil
}

func (f *fakeRenderer) Close() error { return nil }
func (f *fakeRenderer) Type() string { return "fake" }

func newTestSearcher(t *testing.T, r *fakeRenderer, max int) *DuckDuckGo {
	t.Helper()
	cfg := config.DefaultConfig().Search
	cfg.MaxResults = max
	s, err := NewDuckDuckGo(&cfg, r, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

const resultsPage = `<html><body>
<div class="result results_links"><a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fpost&amp;rut=abc">Example Post</a></div>
<div class="result"><a class="result__a" href="https://duckduckgo.com/y.js?ad_provider=x">Ad</a></div>
<div class="result"><a class="result__a" href="//duckduckgo.com/l/?rut=missing">Broken</a></div>
<div class="result"><a class="result__a" href="https://other.org/guide"> Other Guide </a></div>
<div class="result"><a class="result__a" href="https://third.net/a">Third</a></div>
</body></html>`

func TestSearchUnwrapsAndFilters(t *testing.T) {
	r := &fakeRenderer{body: resultsPage}
	s := newTestSearcher(t, r, 2)

	got := s.Search(context.Background(), "chatbots for support")

	want := []types.SearchResult{
		{URL: "https://example.com/post", Title: "Example Post"},
		{URL: "https://other.org/guide", Title: "Other Guide"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d results, got %+v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("result %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}

	if len(r.urls) != 1 || r.urls[0] != "https://html.duckduckgo.com/html/?q=chatbots+for+support" {
		t.Errorf("unexpected query url %v", r.urls)
	}
}

func TestSearchFewerResults(t *testing.T) {
	r := &fakeRenderer{body: `<div class="result"><a class="result__a" href="https://only.com/x">Only</a></div>`}
	got := newTestSearcher(t, r, 5).Search(context.Background(), "q")
	if len(got) != 1 || got[0].URL != "https://only.com/x" {
		t.Errorf("unexpected results %+v", got)
	}
}

func TestSearchErrorIsEmpty(t *testing.T) {
	r := &fakeRenderer{err: errors.New("browser crashed")}
	if got := newTestSearcher(t, r, 2).Search(context.Background(), "q"); len(got) != 0 {
		t.Errorf("expected no results, got %+v", got)
	}
}

func TestUnwrapRedirect(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"https://duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fpost", "https://example.com/post", true},
		{"https://example.com/direct", "https://example.com/direct", true},
		{"https://duckduckgo.com/l/?kh=-1", "", false},
		{"https://duckduckgo.com/l/?uddg=%2Frelative", "", false},
		{"https://tracker.io/r?uddg=https%3A%2F%2Fdest.com%2F", "https://dest.com/", true},
	}

	for _, tt := range tests {
		u, _ := url.Parse(tt.in)
		got, ok := UnwrapRedirect(u, "duckduckgo.com")
		if ok != tt.ok {
			t.Errorf("%s: expected ok=%v, got %v", tt.in, tt.ok, ok)
			continue
		}
		if ok && got.String() != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.in, tt.want, got)
		}
	}
}
