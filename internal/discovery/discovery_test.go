package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/IshaanNene/ArticleForge/internal/config"
	"github.com/IshaanNene/ArticleForge/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const site = "https://blog.example.com"

// fakeFetcher serves canned HTML by URL and records what was requested.
type fakeFetcher struct {
	pages     map[string]string
	requested []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	f.requested = append(f.requested, req.URLString())
	body, ok := f.pages[req.URLString()]
	if !ok {
		return nil, &types.FetchError{URL: req.URLString(), StatusCode: 404, Err: fmt.Errorf("not found")}
	}
	return &types.Response{
		StatusCode: 200,
		Body:       []byte(body),
		Request:    req,
		FinalURL:   req.URLString(),
	}, nil
}

func (f *fakeFetcher) Close() error { return nil }
func (f *fakeFetcher) Type() string { return "fake" }

func listing(slugs ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body>`)
	b.WriteString(`<a href="/blogs/">All posts</a><a href="/blogs/tag/ai/">AI</a>`)
	b.WriteString(`<a href="/blogs/category/news/">News</a><a href="/blogs/page/2/">2</a>`)
	b.WriteString(`<a href="https://other.example.com/blogs/x/">elsewhere</a>`)
	for _, s := range slugs {
		fmt.Fprintf(&b, `<a href="/blogs/%s/"><img></a><h2><a href="/blogs/%s/">%s</a></h2>`, s, s, s)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

func testConfig() *config.DiscoveryConfig {
	cfg := config.DefaultConfig().Discovery
	cfg.ListingURL = site + "/blogs/"
	cfg.PageURLTemplate = site + "/blogs/page/{page}/"
	return &cfg
}

func newTestDiscoverer(t *testing.T, pages map[string]string) (*Discoverer, *fakeFetcher) {
	t.Helper()
	f := &fakeFetcher{pages: pages}
	d, err := New(testConfig(), f, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	return d, f
}

func article(slug string) string {
	return site + "/blogs/" + slug + "/"
}

func articles(slugs ...string) []string {
	out := make([]string, len(slugs))
	for i, s := range slugs {
		out[i] = article(s)
	}
	return out
}

func TestDiscoverOldestFirstAcrossPages(t *testing.T) {
	d, _ := newTestDiscoverer(t, map[string]string{
		site + "/blogs/page/15/": listing("a", "b", "c"),
		site + "/blogs/page/14/": listing("d", "e", "f", "g"),
	})

	got, err := d.Discover(context.Background(), Options{LastPage: 15, BatchSize: 5, MaxPages: 2})
	if err != nil {
		t.Fatal(err)
	}

	want := articles("c", "b", "a", "g", "f")
	if !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDiscoverStopsWhenBatchFull(t *testing.T) {
	d, f := newTestDiscoverer(t, map[string]string{
		site + "/blogs/page/9/": listing("a", "b", "c", "d", "e", "f"),
		site + "/blogs/page/8/": listing("g"),
	})

	got, err := d.Discover(context.Background(), Options{LastPage: 9, BatchSize: 5, MaxPages: 2})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, articles("f", "e", "d", "c", "b")) {
		t.Errorf("unexpected batch %v", got)
	}
	if len(f.requested) != 1 {
		t.Errorf("expected a single page fetch, got %v", f.requested)
	}
}

func TestDiscoverSkipsKnownAndDuplicates(t *testing.T) {
	d, _ := newTestDiscoverer(t, map[string]string{
		site + "/blogs/page/3/": listing("a", "b", "a"),
		site + "/blogs/page/2/": listing("b", "c"),
	})

	known := []string{"HTTPS://BLOG.EXAMPLE.COM/blogs/a"} // canonical match
	got, err := d.Discover(context.Background(), Options{LastPage: 3, BatchSize: 5, MaxPages: 2, Known: known})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, articles("b", "c")) {
		t.Errorf("unexpected batch %v", got)
	}
}

func TestDiscoverFailedPageCountsAsEmpty(t *testing.T) {
	d, f := newTestDiscoverer(t, map[string]string{
		site + "/blogs/page/6/": listing("x"),
	})

	got, err := d.Discover(context.Background(), Options{LastPage: 7, BatchSize: 5, MaxPages: 2})
	if err != nil {
		t.Fatalf("page failure must not fail the walk: %v", err)
	}
	if !slices.Equal(got, articles("x")) {
		t.Errorf("unexpected batch %v", got)
	}
	if len(f.requested) != 2 {
		t.Errorf("expected both pages to be tried, got %v", f.requested)
	}
}

func TestDiscoverNoCandidates(t *testing.T) {
	d, _ := newTestDiscoverer(t, map[string]string{
		site + "/blogs/page/2/": listing(),
		site + "/blogs/":        listing(),
	})

	got, err := d.Discover(context.Background(), Options{LastPage: 2, BatchSize: 5, MaxPages: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}

func TestFindLastPage(t *testing.T) {
	root := `<a href="/blogs/page/2/">2</a><a href="/blogs/page/3/">3</a><a href="/blogs/page/15/">15</a><a href="/blogs/page/next/">next</a>`
	d, _ := newTestDiscoverer(t, map[string]string{site + "/blogs/": root})

	n, err := d.FindLastPage(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 15 {
		t.Errorf("expected 15, got %d", n)
	}

	d, _ = newTestDiscoverer(t, map[string]string{site + "/blogs/": `<a href="/blogs/a/">a</a>`})
	if n, _ := d.FindLastPage(context.Background()); n != 1 {
		t.Errorf("expected 1 without pagination, got %d", n)
	}
}

func TestDiscoverAutoDetectsLastPage(t *testing.T) {
	d, _ := newTestDiscoverer(t, map[string]string{
		site + "/blogs/":        `<a href="/blogs/page/4/">4</a>`,
		site + "/blogs/page/4/": listing("old"),
	})

	got, err := d.Discover(context.Background(), Options{BatchSize: 1, MaxPages: 1})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, articles("old")) {
		t.Errorf("unexpected batch %v", got)
	}
}

func TestArticlePredicate(t *testing.T) {
	pred, err := ArticlePredicate(testConfig())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		url  string
		want bool
	}{
		{site + "/blogs/how-to-chat/", true},
		{site + "/blogs/", false},
		{site + "/blogs", false},
		{site + "/blogs/tag/ai/", false},
		{site + "/blogs/category/x/", false},
		{site + "/blogs/page/3/", false},
		{site + "/blogs/author/jo/", false},
		{site + "/pricing/", false},
		{"https://evil.example.org/blogs/post/", false},
	}

	for _, tt := range tests {
		u, _ := url.Parse(tt.url)
		if got := pred(u); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.url, tt.want, got)
		}
	}
}

func TestCanonicalizeURL(t *testing.T) {
	tests := []struct{ in, want string }{
		{"HTTPS://Example.COM:443/a/b/", "https://example.com/a/b"},
		{"http://example.com:80/", "http://example.com/"},
		{"https://example.com/a#frag", "https://example.com/a"},
		{"https://example.com/a?b=2&a=1", "https://example.com/a?a=1&b=2"},
	}
	for _, tt := range tests {
		if got := CanonicalizeURL(tt.in); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.in, tt.want, got)
		}
	}
}

func TestDiscoverDetectionFailureIsEmpty(t *testing.T) {
	d, f := newTestDiscoverer(t, map[string]string{})

	got, err := d.Discover(context.Background(), Options{BatchSize: 5, MaxPages: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty batch, got %v", got)
	}
	if len(f.requested) != 1 || f.requested[0] != site+"/blogs/" {
		t.Errorf("expected only the listing root to be requested, got %v", f.requested)
	}
}
