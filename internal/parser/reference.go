package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// chromeSelector matches page furniture that is never part of the article.
const chromeSelector = "script, style, nav, header, footer"

// ReferenceText returns the visible text of a reference page with layout
// elements removed, whitespace collapsed, and the result cut to max runes.
// The document is not modified.
func ReferenceText(doc *goquery.Document, max int) string {
	body := doc.Find("body").First()
	if body.Length() == 0 {
		body = doc.Selection
	}

	clone := body.Clone()
	clone.Find(chromeSelector).Remove()

	text := strings.Join(strings.Fields(clone.Text()), " ")
	return Truncate(text, max)
}

// Truncate cuts s to at most max runes. max <= 0 means no limit.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
