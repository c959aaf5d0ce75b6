package parser

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// ReadabilityStrategy scores the document with Mozilla's Readability
// algorithm. It is the last resort for sites whose markup no selector fits.
type ReadabilityStrategy struct {
	name   string
	logger *slog.Logger
}

func (s *ReadabilityStrategy) Name() string { return s.name }

// Extract implements ContentStrategy. The document is re-serialized first
// because readability rewrites the tree it is given.
func (s *ReadabilityStrategy) Extract(doc *goquery.Document) (string, bool) {
	raw, err := doc.Html()
	if err != nil {
		return "", false
	}

	pageURL := doc.Url
	if pageURL == nil {
		pageURL = &url.URL{Scheme: "https", Host: "localhost"}
	}

	article, err := readability.FromReader(strings.NewReader(raw), pageURL)
	if err != nil {
		s.logger.Debug("readability failed", "url", pageURL.String(), "error", err)
		return "", false
	}

	content := strings.TrimSpace(article.Content)
	if content == "" || strings.TrimSpace(article.TextContent) == "" {
		return "", false
	}
	return content, true
}
