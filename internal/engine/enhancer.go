package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"unicode/utf8"

	"github.com/IshaanNene/ArticleForge/internal/ai"
	"github.com/IshaanNene/ArticleForge/internal/config"
	"github.com/IshaanNene/ArticleForge/internal/fetcher"
	"github.com/IshaanNene/ArticleForge/internal/parser"
	"github.com/IshaanNene/ArticleForge/internal/search"
	"github.com/IshaanNene/ArticleForge/internal/storage"
	"github.com/IshaanNene/ArticleForge/internal/types"
)

// EnhanceOptions bound a single enhance run.
type EnhanceOptions struct {
	// Limit caps how many articles are processed. 0 means no cap.
	Limit int
	// RetryFallback also selects articles whose previous rewrite fell back.
	RetryFallback bool
}

// Enhancer rewrites stored articles using web references.
type Enhancer struct {
	runner
	store    storage.Storage
	searcher search.Searcher
	fetcher  fetcher.Fetcher
	rewriter Rewriter
	cfg      *config.EnhanceConfig
	refMax   int
}

// NewEnhancer wires an enhance run. refMax bounds each reference's text.
func NewEnhancer(
	cfg *config.EnhanceConfig,
	refMax int,
	store storage.Storage,
	searcher search.Searcher,
	f fetcher.Fetcher,
	rewriter Rewriter,
	logger *slog.Logger,
	opts ...Option,
) *Enhancer {
	return &Enhancer{
		runner:   newRunner(logger.With("component", "enhancer"), opts),
		store:    store,
		searcher: searcher,
		fetcher:  f,
		rewriter: rewriter,
		cfg:      cfg,
		refMax:   refMax,
	}
}

// DefaultEnhanceOptions returns run options from configuration.
func DefaultEnhanceOptions(cfg *config.EnhanceConfig) EnhanceOptions {
	return EnhanceOptions{Limit: cfg.Limit, RetryFallback: cfg.RetryFallback}
}

// Enhance processes every eligible article in sequence. Only a failure to
// list the store is returned; everything else lands in the report.
func (e *Enhancer) Enhance(ctx context.Context, opts EnhanceOptions) (*types.Report, error) {
	report, logger := e.begin("enhance")

	logger.Info("fetching articles", "stage", StageFetching)
	all, err := e.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stored articles: %w", err)
	}

	pending := Select(all, opts)
	logger.Info("articles to enhance", "count", len(pending), "stored", len(all))

	for i, a := range pending {
		if i > 0 {
			if err := sleep(ctx, e.cfg.Delay); err != nil {
				logger.Warn("run interrupted", "error", err)
				break
			}
		}
		subject := strconv.FormatInt(a.ID, 10)
		o := guard(subject, func() types.Outcome { return e.enhanceOne(ctx, logger, a) })
		o.ArticleID = a.ID
		if o.Title == "" {
			o.Title = a.Title
		}
		report.Add(o)
	}

	e.finish(report, logger)
	return report, nil
}

// Select returns the articles an enhance run should process, in store order.
func Select(all []types.Article, opts EnhanceOptions) []types.Article {
	var out []types.Article
	for _, a := range all {
		switch {
		case a.Status == types.StatusScraped:
		case a.Status == types.StatusFallback && opts.RetryFallback:
		default:
			continue
		}
		out = append(out, a)
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out
}

func (e *Enhancer) enhanceOne(ctx context.Context, logger *slog.Logger, a types.Article) types.Outcome {
	out := types.Outcome{Subject: strconv.FormatInt(a.ID, 10), Title: a.Title}
	logger = logger.With("article_id", a.ID, "title", a.Title)

	logger.Info("searching references", "stage", StageSearching)
	results := e.searcher.Search(ctx, a.Title)
	if len(results) == 0 {
		logger.Info("article skipped", "reason", "no search results")
		out.Kind = types.OutcomeSkipped
		out.Reason = "no search results"
		return out
	}

	logger.Debug("scraping references", "stage", StageScraping, "results", len(results))
	refs := e.references(ctx, logger, results)
	if len(refs) == 0 {
		logger.Info("article skipped", "reason", "no usable references")
		out.Kind = types.OutcomeSkipped
		out.Reason = "no usable references"
		return out
	}

	content := a.Content
	if a.Status == types.StatusFallback {
		content = ai.StripMarkers(content)
	}

	logger.Info("rewriting article", "stage", StageGenerating, "references", len(refs))
	rw := e.rewriter.Rewrite(ctx, a.Title, content, refs)

	status := types.StatusEnhanced
	out.Kind = types.OutcomeEnhanced
	if rw.Fallback {
		status = types.StatusFallback
		out.Kind = types.OutcomeFallback
		out.Reason = rw.Reason
	}

	logger.Debug("persisting article", "stage", StagePersisting, "status", status)
	if _, err := e.store.Update(ctx, a.ID, types.ArticlePatch{Content: &rw.Content, Status: &status}); err != nil {
		logger.Error("article update failed", "error", err)
		return failed(out, "store", err)
	}

	logger.Info("article updated", "status", status)
	return out
}

// references fetches each result and keeps those with enough text.
func (e *Enhancer) references(ctx context.Context, logger *slog.Logger, results []types.SearchResult) []types.Reference {
	var refs []types.Reference
	for _, r := range results {
		req, err := types.NewTaggedRequest(r.URL, types.TagReference)
		if err != nil {
			continue
		}
		resp, err := e.fetcher.Fetch(ctx, req)
		if err != nil {
			logger.Warn("reference fetch failed", "url", r.URL, "error", err)
			continue
		}
		doc, err := resp.Document()
		if err != nil {
			logger.Warn("reference unparseable", "url", r.URL, "error", err)
			continue
		}

		text := parser.ReferenceText(doc, e.refMax)
		if n := utf8.RuneCountInString(text); n <= e.cfg.MinReferenceChars {
			logger.Debug("reference too short", "url", r.URL, "chars", n)
			continue
		}
		refs = append(refs, types.Reference{SearchResult: r, Content: text})
	}
	return refs
}
