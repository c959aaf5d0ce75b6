package parser

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CSSStrategy returns the inner HTML of the first element matching a
// CSS selector.
type CSSStrategy struct {
	name     string
	selector string
}

// NewCSSStrategy creates a CSS selector strategy.
func NewCSSStrategy(name, selector string) *CSSStrategy {
	return &CSSStrategy{name: name, selector: selector}
}

func (s *CSSStrategy) Name() string { return s.name }

// Extract implements ContentStrategy.
func (s *CSSStrategy) Extract(doc *goquery.Document) (string, bool) {
	sel := doc.Find(s.selector).First()
	if sel.Length() == 0 {
		return "", false
	}
	html, err := sel.Html()
	if err != nil {
		return "", false
	}
	html = strings.TrimSpace(html)
	if html == "" {
		return "", false
	}
	return html, true
}

// ExtractLinks finds all <a href> links in the document, resolved against
// base, in document order. Fragments are dropped and only http(s) links are
// kept.
func ExtractLinks(doc *goquery.Document, base *url.URL) []string {
	if base == nil {
		return nil
	}

	seen := make(map[string]bool)
	var links []string

	doc.Find("a[href]").Each(func(i int, sel *goquery.Selection) {
		href, exists := sel.Attr("href")
		if !exists {
			return
		}

		href = strings.TrimSpace(href)
		if href == "" ||
			strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "javascript:") ||
			strings.HasPrefix(href, "mailto:") ||
			strings.HasPrefix(href, "tel:") ||
			strings.HasPrefix(href, "data:") {
			return
		}

		parsedHref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(parsedHref)

		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}

		resolved.Fragment = ""

		absURL := resolved.String()
		if !seen[absURL] {
			seen[absURL] = true
			links = append(links, absURL)
		}
	})

	return links
}
