// Package discovery finds article URLs on a paginated blog listing.
//
// Listings put the newest posts on page 1, so the walk starts at the last
// page and moves backward, collecting the oldest posts first.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/ArticleForge/internal/config"
	"github.com/IshaanNene/ArticleForge/internal/fetcher"
	"github.com/IshaanNene/ArticleForge/internal/parser"
	"github.com/IshaanNene/ArticleForge/internal/types"
)

// Options bound a single discovery walk.
type Options struct {
	// LastPage is the page the walk starts from. 0 means detect it.
	LastPage int
	// BatchSize is the maximum number of URLs returned.
	BatchSize int
	// MaxPages is the maximum number of listing pages fetched.
	MaxPages int
	// Known URLs are skipped, typically articles already stored.
	Known []string
}

// DefaultOptions returns walk options from configuration.
func DefaultOptions(cfg *config.DiscoveryConfig) Options {
	return Options{
		LastPage:  cfg.LastPage,
		BatchSize: cfg.BatchSize,
		MaxPages:  cfg.MaxPages,
	}
}

// Discoverer walks listing pages and selects article URLs.
type Discoverer struct {
	cfg       *config.DiscoveryConfig
	fetcher   fetcher.Fetcher
	isArticle Predicate
	logger    *slog.Logger
}

// New creates a Discoverer that fetches listing pages with f.
func New(cfg *config.DiscoveryConfig, f fetcher.Fetcher, logger *slog.Logger) (*Discoverer, error) {
	pred, err := ArticlePredicate(cfg)
	if err != nil {
		return nil, err
	}
	return &Discoverer{
		cfg:       cfg,
		fetcher:   f,
		isArticle: pred,
		logger:    logger.With("component", "discovery"),
	}, nil
}

// PageURL returns the listing URL for page n. Page 1 is the listing root.
func (d *Discoverer) PageURL(n int) string {
	if n <= 1 {
		return d.cfg.ListingURL
	}
	return strings.ReplaceAll(d.cfg.PageURLTemplate, "{page}", strconv.Itoa(n))
}

// Discover returns up to opts.BatchSize article URLs, oldest first. An
// empty result is not an error.
func (d *Discoverer) Discover(ctx context.Context, opts Options) ([]string, error) {
	if opts.BatchSize < 1 {
		return nil, fmt.Errorf("batch size must be >= 1, got %d", opts.BatchSize)
	}
	if opts.MaxPages < 1 {
		opts.MaxPages = 1
	}

	page := opts.LastPage
	if page <= 0 {
		detected, err := d.FindLastPage(ctx)
		if err != nil {
			d.logger.Warn("last page detection failed, nothing to walk", "error", err)
			return nil, nil
		}
		page = detected
	}

	skip := NewURLSet(opts.Known...)
	var batch []string

	for walked := 1; ; walked++ {
		links := d.pageLinks(ctx, page)

		added := 0
		for _, link := range links {
			if !skip.Add(link) {
				continue
			}
			batch = append(batch, link)
			added++
		}

		d.logger.Info("listing page scanned",
			"page", page,
			"candidates", len(links),
			"added", added,
			"batch", len(batch),
		)

		if len(batch) >= opts.BatchSize || walked >= opts.MaxPages || page <= 1 {
			break
		}
		page--
	}

	if len(batch) > opts.BatchSize {
		batch = batch[:opts.BatchSize]
	}
	return batch, nil
}

// pageLinks fetches one listing page and returns its article links deduped
// and reversed, so the oldest post on the page comes first. A failed fetch
// yields no links.
func (d *Discoverer) pageLinks(ctx context.Context, page int) []string {
	pageURL := d.PageURL(page)

	doc, base, err := d.load(ctx, pageURL)
	if err != nil {
		d.logger.Warn("listing page failed", "page", page, "url", pageURL, "error", err)
		return nil
	}

	seen := NewURLSet()
	var links []string
	for _, raw := range parser.ExtractLinks(doc, base) {
		u, err := url.Parse(raw)
		if err != nil || !d.isArticle(u) {
			continue
		}
		if seen.Add(raw) {
			links = append(links, raw)
		}
	}

	slices.Reverse(links)
	return links
}

// FindLastPage reads the listing root and returns the highest page number
// it links to, or 1 when it has no pagination links.
func (d *Discoverer) FindLastPage(ctx context.Context) (int, error) {
	doc, base, err := d.load(ctx, d.cfg.ListingURL)
	if err != nil {
		return 0, fmt.Errorf("find last page: %w", err)
	}

	last := 1
	for _, raw := range parser.ExtractLinks(doc, base) {
		u, err := url.Parse(raw)
		if err != nil {
			continue
		}
		if n, ok := pageNumber(u); ok && n > last {
			last = n
		}
	}

	d.logger.Info("last page detected", "page", last)
	return last, nil
}

// pageNumber extracts N from a path containing "/page/N".
func pageNumber(u *url.URL) (int, bool) {
	segs := segments(u)
	for i := 0; i+1 < len(segs); i++ {
		if segs[i] != "page" {
			continue
		}
		if n, err := strconv.Atoi(segs[i+1]); err == nil && n > 0 {
			return n, true
		}
	}
	return 0, false
}

func (d *Discoverer) load(ctx context.Context, rawURL string) (*goquery.Document, *url.URL, error) {
	req, err := types.NewTaggedRequest(rawURL, types.TagListing)
	if err != nil {
		return nil, nil, err
	}
	resp, err := d.fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	doc, err := resp.Document()
	if err != nil {
		return nil, nil, err
	}
	return doc, resp.BaseURL(), nil
}
