package parser

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/ArticleForge/internal/config"
)

// ContentStrategy is one way of locating an article body in a document.
// Extract reports false when the strategy found nothing usable, so the next
// strategy in the chain gets a chance.
type ContentStrategy interface {
	Name() string
	Extract(doc *goquery.Document) (string, bool)
}

// NewStrategy builds the strategy described by rule.
func NewStrategy(rule config.ParseRule, logger *slog.Logger) (ContentStrategy, error) {
	name := rule.Name
	if name == "" {
		name = rule.Type + ":" + rule.Selector
	}

	switch rule.Type {
	case "css", "":
		return &CSSStrategy{name: name, selector: rule.Selector}, nil
	case "xpath":
		return NewXPathStrategy(name, rule.Selector)
	case "readability":
		return &ReadabilityStrategy{name: name, logger: logger.With("component", "readability")}, nil
	default:
		return nil, fmt.Errorf("unknown content strategy type %q", rule.Type)
	}
}

// Extracted is the result of article-mode extraction.
type Extracted struct {
	Title       string
	Content     string
	PublishedAt time.Time
	// Strategy names the strategy that produced Content, empty on a miss.
	Strategy string
}

// ArticleExtractor pulls title, body and publish date out of an article page.
type ArticleExtractor struct {
	strategies []ContentStrategy
	logger     *slog.Logger
}

// NewArticleExtractor creates an extractor that tries the rules in order.
func NewArticleExtractor(rules []config.ParseRule, logger *slog.Logger) (*ArticleExtractor, error) {
	strategies := make([]ContentStrategy, 0, len(rules))
	for _, rule := range rules {
		s, err := NewStrategy(rule, logger)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, s)
	}
	return NewArticleExtractorFromStrategies(strategies, logger), nil
}

// NewArticleExtractorFromStrategies creates an extractor over a prepared chain.
func NewArticleExtractorFromStrategies(strategies []ContentStrategy, logger *slog.Logger) *ArticleExtractor {
	return &ArticleExtractor{
		strategies: strategies,
		logger:     logger.With("component", "article_extractor"),
	}
}

// Extract runs the strategy chain. Content is empty when every strategy misses.
func (e *ArticleExtractor) Extract(doc *goquery.Document) Extracted {
	out := Extracted{
		Title:       strings.TrimSpace(doc.Find("h1").First().Text()),
		PublishedAt: PublishedAt(doc),
	}

	for _, s := range e.strategies {
		if content, ok := s.Extract(doc); ok {
			out.Content = content
			out.Strategy = s.Name()
			break
		}
	}

	e.logger.Debug("article extracted",
		"title", out.Title,
		"strategy", out.Strategy,
		"content_len", len(out.Content),
	)

	return out
}
