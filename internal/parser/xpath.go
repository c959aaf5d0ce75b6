package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
)

// XPathStrategy returns the inner HTML of the first node matching an XPath
// expression. Useful for markup that CSS selectors cannot address, such as
// "the div after the second h2".
type XPathStrategy struct {
	name string
	expr *xpath.Expr
}

// NewXPathStrategy compiles expr up front so a bad rule fails at startup.
func NewXPathStrategy(name, expr string) (*XPathStrategy, error) {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compile xpath %q: %w", expr, err)
	}
	return &XPathStrategy{name: name, expr: compiled}, nil
}

func (s *XPathStrategy) Name() string { return s.name }

// Extract implements ContentStrategy.
func (s *XPathStrategy) Extract(doc *goquery.Document) (string, bool) {
	if len(doc.Nodes) == 0 {
		return "", false
	}
	node := htmlquery.QuerySelector(doc.Nodes[0], s.expr)
	if node == nil {
		return "", false
	}
	html := strings.TrimSpace(htmlquery.OutputHTML(node, false))
	if html == "" {
		return "", false
	}
	return html, true
}
