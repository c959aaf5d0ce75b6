package parser

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// dateFormats are tried in order when parsing publish dates.
var dateFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	time.RFC1123,
	time.RFC1123Z,
	time.RFC822,
	time.RFC822Z,
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"2006/01/02",
}

// ParseDate parses s with the known publish date layouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// PublishedAt finds the publish date of an article page. It checks the
// article:published_time meta tag, then <time datetime>, then JSON-LD
// datePublished. The zero time means no parseable date was found.
func PublishedAt(doc *goquery.Document) time.Time {
	if v, ok := doc.Find(`meta[property="article:published_time"]`).First().Attr("content"); ok {
		if t, ok := ParseDate(v); ok {
			return t
		}
	}

	var found time.Time
	doc.Find("time[datetime]").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		v, _ := sel.Attr("datetime")
		if t, ok := ParseDate(v); ok {
			found = t
			return false
		}
		return true
	})
	if !found.IsZero() {
		return found
	}

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if t, ok := jsonLDDate([]byte(strings.TrimSpace(sel.Text()))); ok {
			found = t
			return false
		}
		return true
	})
	return found
}

// jsonLDDate looks for datePublished in a JSON-LD object, array, or @graph.
func jsonLDDate(raw []byte) (time.Time, bool) {
	if len(raw) == 0 {
		return time.Time{}, false
	}

	var objects []map[string]any

	var single map[string]any
	if err := json.Unmarshal(raw, &single); err == nil {
		objects = append(objects, single)
		if graph, ok := single["@graph"].([]any); ok {
			for _, node := range graph {
				if m, ok := node.(map[string]any); ok {
					objects = append(objects, m)
				}
			}
		}
	} else {
		var many []map[string]any
		if err := json.Unmarshal(raw, &many); err != nil {
			return time.Time{}, false
		}
		objects = many
	}

	for _, obj := range objects {
		if v, ok := obj["datePublished"].(string); ok {
			if t, ok := ParseDate(v); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
