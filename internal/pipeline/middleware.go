package pipeline

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/ArticleForge/internal/types"
)

// TitleSanitizeMiddleware strips markup and entities from titles.
type TitleSanitizeMiddleware struct {
	stripRe *regexp.Regexp
}

func NewTitleSanitizeMiddleware() *TitleSanitizeMiddleware {
	return &TitleSanitizeMiddleware{
		stripRe: regexp.MustCompile(`<[^>]*>`),
	}
}

func (m *TitleSanitizeMiddleware) Name() string { return "title_sanitize" }

func (m *TitleSanitizeMiddleware) Process(a *types.NewArticle) (*types.NewArticle, error) {
	cleaned := m.stripRe.ReplaceAllString(a.Title, "")
	cleaned = html.UnescapeString(cleaned)
	a.Title = strings.Join(strings.Fields(cleaned), " ")
	return a, nil
}

// ContentSanitizeMiddleware removes executable and embedded elements from
// article markup while keeping the rest of the structure intact.
type ContentSanitizeMiddleware struct {
	selector string
}

func NewContentSanitizeMiddleware() *ContentSanitizeMiddleware {
	return &ContentSanitizeMiddleware{
		selector: "script, style, noscript, iframe, form",
	}
}

func (m *ContentSanitizeMiddleware) Name() string { return "content_sanitize" }

func (m *ContentSanitizeMiddleware) Process(a *types.NewArticle) (*types.NewArticle, error) {
	if a.Content == "" {
		return a, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(a.Content))
	if err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}

	// Leading scripts land in <head>, so search the whole document.
	unsafe := doc.Find(m.selector)
	if unsafe.Length() == 0 {
		return a, nil
	}
	unsafe.Remove()

	cleaned, err := doc.Find("body").Html()
	if err != nil {
		return nil, fmt.Errorf("render content: %w", err)
	}
	a.Content = strings.TrimSpace(cleaned)
	return a, nil
}
