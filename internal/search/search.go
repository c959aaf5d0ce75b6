// Package search finds reference articles for a title on a web search
// engine's server-rendered results page.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"

	"github.com/IshaanNene/ArticleForge/internal/config"
	"github.com/IshaanNene/ArticleForge/internal/fetcher"
	"github.com/IshaanNene/ArticleForge/internal/types"
)

// Searcher returns organic results for a query. It never fails: any
// problem is logged and yields an empty list.
type Searcher interface {
	Search(ctx context.Context, query string) []types.SearchResult
}

// DuckDuckGo searches html.duckduckgo.com, which needs no script to render
// results, through any Fetcher.
type DuckDuckGo struct {
	base         *url.URL
	engineDomain string
	maxResults   int
	renderer     fetcher.Fetcher
	logger       *slog.Logger
}

// NewDuckDuckGo creates a searcher that loads result pages with renderer.
func NewDuckDuckGo(cfg *config.SearchConfig, renderer fetcher.Fetcher, logger *slog.Logger) (*DuckDuckGo, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse search base url: %w", err)
	}

	domain, err := publicsuffix.EffectiveTLDPlusOne(base.Hostname())
	if err != nil {
		domain = base.Hostname()
	}

	return &DuckDuckGo{
		base:         base,
		engineDomain: strings.ToLower(domain),
		maxResults:   cfg.MaxResults,
		renderer:     renderer,
		logger:       logger.With("component", "search", "engine", "duckduckgo"),
	}, nil
}

// QueryURL returns the results page URL for query.
func (s *DuckDuckGo) QueryURL(query string) string {
	u := *s.base
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()
	return u.String()
}

// Search implements Searcher. Results keep document order.
func (s *DuckDuckGo) Search(ctx context.Context, query string) []types.SearchResult {
	resultsURL := s.QueryURL(query)

	req, err := types.NewTaggedRequest(resultsURL, types.TagSearch)
	if err != nil {
		s.logger.Warn("bad search url", "url", resultsURL, "error", err)
		return nil
	}

	resp, err := s.renderer.Fetch(ctx, req)
	if err != nil {
		s.logger.Warn("search failed", "query", query, "error", err)
		return nil
	}

	doc, err := resp.Document()
	if err != nil {
		s.logger.Warn("search page unparseable", "query", query, "error", err)
		return nil
	}

	results := s.parseResults(doc, resp.BaseURL())
	s.logger.Info("search complete", "query", query, "results", len(results))
	return results
}

func (s *DuckDuckGo) parseResults(doc *goquery.Document, pageURL *url.URL) []types.SearchResult {
	if pageURL == nil {
		pageURL = s.base
	}

	var results []types.SearchResult
	doc.Find(".result").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		link := sel.Find(".result__a").First()
		href, ok := link.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return true
		}

		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}
		resolved := pageURL.ResolveReference(ref)

		target, ok := UnwrapRedirect(resolved, s.engineDomain)
		if !ok {
			s.logger.Debug("dropping undecodable redirect", "href", href)
			return true
		}

		if target.Scheme != "http" && target.Scheme != "https" {
			return true
		}
		if isDomainOrSubdomain(target.Hostname(), s.engineDomain) {
			return true
		}

		results = append(results, types.SearchResult{
			URL:   target.String(),
			Title: strings.TrimSpace(link.Text()),
		})
		return len(results) < s.maxResults
	})

	return results
}

// UnwrapRedirect returns the destination embedded in a search engine
// redirect link. Links that are not redirects are returned unchanged. The
// second result is false when a redirect carries no usable destination.
func UnwrapRedirect(u *url.URL, engineDomain string) (*url.URL, bool) {
	params := u.Query()
	isRedirect := params.Has("uddg") ||
		(isDomainOrSubdomain(u.Hostname(), engineDomain) && strings.HasPrefix(u.Path, "/l/"))
	if !isRedirect {
		return u, true
	}

	dest := strings.TrimSpace(params.Get("uddg"))
	if dest == "" {
		return nil, false
	}
	target, err := url.Parse(dest)
	if err != nil || target.Host == "" {
		return nil, false
	}
	return target, true
}

func isDomainOrSubdomain(host, domain string) bool {
	host = strings.ToLower(host)
	return host == domain || strings.HasSuffix(host, "."+domain)
}
