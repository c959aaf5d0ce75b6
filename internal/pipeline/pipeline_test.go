package pipeline

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/IshaanNene/ArticleForge/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestPipelineBasic(t *testing.T) {
	p := New(testLogger)
	p.Use(&TrimMiddleware{})

	result, err := p.Process(&types.NewArticle{Title: "  Hello World  ", Content: "\n<p>x</p>\n"})
	if err != nil {
		t.Fatalf("pipeline error: %v", err)
	}
	if result.Title != "Hello World" {
		t.Errorf("expected trimmed title, got %q", result.Title)
	}
	if result.Content != "<p>x</p>" {
		t.Errorf("expected trimmed content, got %q", result.Content)
	}
}

func TestRequiredFieldsMiddleware(t *testing.T) {
	m := &RequiredFieldsMiddleware{}

	tests := []struct {
		name    string
		article types.NewArticle
		kept    bool
	}{
		{"complete", types.NewArticle{Title: "T", Content: "C"}, true},
		{"no content", types.NewArticle{Title: "T"}, false},
		{"no title", types.NewArticle{Content: "C"}, false},
	}

	for _, tt := range tests {
		a := tt.article
		result, err := m.Process(&a)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if (result != nil) != tt.kept {
			t.Errorf("%s: expected kept=%v", tt.name, tt.kept)
		}
	}
}

func TestDedupMiddleware(t *testing.T) {
	m := NewDedupMiddleware()

	first, _ := m.Process(&types.NewArticle{Title: "A", Content: "c", URL: "https://x.com/blogs/a/"})
	second, _ := m.Process(&types.NewArticle{Title: "A again", Content: "c", URL: "https://X.com/blogs/a"})
	third, _ := m.Process(&types.NewArticle{Title: "B", Content: "c", URL: "https://x.com/blogs/b/"})

	if first == nil || third == nil {
		t.Error("distinct articles should pass")
	}
	if second != nil {
		t.Error("canonical duplicate should be dropped")
	}
}

func TestTitleSanitize(t *testing.T) {
	m := NewTitleSanitizeMiddleware()
	a, _ := m.Process(&types.NewArticle{Title: "<span>Chatbots &amp;\n  You</span>"})
	if a.Title != "Chatbots & You" {
		t.Errorf("unexpected title %q", a.Title)
	}
}

func TestContentSanitizeKeepsMarkup(t *testing.T) {
	m := NewContentSanitizeMiddleware()
	a, err := m.Process(&types.NewArticle{Content: `<h2>Intro</h2><script>track()</script><p>Body <b>bold</b></p><iframe src="x"></iframe>`})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(a.Content, "script") || strings.Contains(a.Content, "iframe") {
		t.Errorf("unsafe elements survived: %q", a.Content)
	}
	if !strings.Contains(a.Content, "<h2>Intro</h2>") || !strings.Contains(a.Content, "<b>bold</b>") {
		t.Errorf("markup lost: %q", a.Content)
	}
}

func TestDefaultDatePlaceholder(t *testing.T) {
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	m := &DefaultDateMiddleware{Now: func() time.Time { return fixed }}

	a, _ := m.Process(&types.NewArticle{})
	if !a.OriginalDate.Equal(fixed) {
		t.Errorf("expected placeholder %v, got %v", fixed, a.OriginalDate)
	}

	published := time.Date(2020, 5, 5, 0, 0, 0, 0, time.UTC)
	a, _ = m.Process(&types.NewArticle{OriginalDate: published})
	if !a.OriginalDate.Equal(published) {
		t.Errorf("existing date overwritten: %v", a.OriginalDate)
	}
}

func TestDefaultPipelineDropsEmptyContent(t *testing.T) {
	p := Default(testLogger)

	result, err := p.Process(&types.NewArticle{Title: "Title", Content: "   ", URL: "https://x.com/blogs/a/"})
	if err != nil {
		t.Fatal(err)
	}
	if result != nil {
		t.Errorf("expected empty content to be dropped, got %+v", result)
	}

	result, err = p.Process(&types.NewArticle{Title: "Title", Content: "<p>ok</p>", URL: "https://x.com/blogs/b/"})
	if err != nil || result == nil {
		t.Fatalf("expected article to pass, got %v, %v", result, err)
	}
	if result.OriginalDate.IsZero() {
		t.Error("expected placeholder date")
	}
}

type failingMiddleware struct{}

func (failingMiddleware) Name() string { return "boom" }
func (failingMiddleware) Process(a *types.NewArticle) (*types.NewArticle, error) {
	return nil, errors.New("exploded")
}

func TestPipelineErrorNamesStage(t *testing.T) {
	p := New(testLogger)
	p.Use(failingMiddleware{})

	_, err := p.Process(&types.NewArticle{Title: "T", Content: "C"})
	var pe *types.PipelineError
	if !errors.As(err, &pe) || pe.Stage != "boom" {
		t.Errorf("expected PipelineError at stage boom, got %v", err)
	}
}
