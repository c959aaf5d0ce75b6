package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/ArticleForge/internal/discovery"
	"github.com/IshaanNene/ArticleForge/internal/fetcher"
	"github.com/IshaanNene/ArticleForge/internal/parser"
	"github.com/IshaanNene/ArticleForge/internal/pipeline"
	"github.com/IshaanNene/ArticleForge/internal/storage"
	"github.com/IshaanNene/ArticleForge/internal/types"
)

// Harvester runs the scrape: discovery, fetch, extract, pipeline, create.
type Harvester struct {
	runner
	discoverer Discoverer
	fetcher    fetcher.Fetcher
	extractor  *parser.ArticleExtractor
	pipeline   *pipeline.Pipeline
	store      storage.Storage
}

// NewHarvester wires a scrape run.
func NewHarvester(
	d Discoverer,
	f fetcher.Fetcher,
	extractor *parser.ArticleExtractor,
	p *pipeline.Pipeline,
	store storage.Storage,
	logger *slog.Logger,
	opts ...Option,
) *Harvester {
	return &Harvester{
		runner:     newRunner(logger.With("component", "harvester"), opts),
		discoverer: d,
		fetcher:    f,
		extractor:  extractor,
		pipeline:   p,
		store:      store,
	}
}

// Harvest discovers up to opts.BatchSize new articles and stores them.
// Articles already in the store are passed to discovery as known URLs.
// Only a failure to read the store or discover at all is returned as an
// error; per-article failures are recorded in the report.
func (h *Harvester) Harvest(ctx context.Context, opts discovery.Options) (*types.Report, error) {
	report, logger := h.begin("scrape")

	existing, err := h.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stored articles: %w", err)
	}
	for _, a := range existing {
		if a.URL != "" {
			opts.Known = append(opts.Known, a.URL)
		}
	}

	logger.Info("discovering articles", "stage", StageFetching, "known", len(opts.Known))
	urls, err := h.discoverer.Discover(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("discover articles: %w", err)
	}
	h.metrics.Discovered(len(urls))
	logger.Info("articles selected", "count", len(urls))

	for _, u := range urls {
		o := guard(u, func() types.Outcome { return h.harvestOne(ctx, logger, u) })
		report.Add(o)
	}

	h.finish(report, logger)
	return report, nil
}

func (h *Harvester) harvestOne(ctx context.Context, logger *slog.Logger, rawURL string) types.Outcome {
	out := types.Outcome{Subject: rawURL}
	logger = logger.With("url", rawURL)

	req, err := types.NewTaggedRequest(rawURL, types.TagArticle)
	if err != nil {
		return failed(out, "invalid url", err)
	}

	logger.Debug("fetching article", "stage", StageFetching)
	resp, err := h.fetcher.Fetch(ctx, req)
	if err != nil {
		logger.Warn("article fetch failed", "error", err)
		return failed(out, "fetch", err)
	}

	doc, err := resp.Document()
	if err != nil {
		return failed(out, "parse", &types.ParseError{URL: rawURL, Err: err})
	}

	ex := h.extractor.Extract(doc)
	out.Title = ex.Title

	article, err := h.pipeline.Process(&types.NewArticle{
		Title:        ex.Title,
		Content:      ex.Content,
		URL:          rawURL,
		OriginalDate: ex.PublishedAt,
	})
	if err != nil {
		return failed(out, "pipeline", err)
	}
	if article == nil {
		logger.Info("article skipped", "reason", "missing title or content")
		out.Kind = types.OutcomeSkipped
		out.Reason = "missing title or content"
		return out
	}

	logger.Debug("storing article", "stage", StagePersisting)
	stored, err := h.store.Create(ctx, *article)
	if err != nil {
		logger.Error("article not stored", "error", err)
		return failed(out, "store", err)
	}

	logger.Info("article stored", "id", stored.ID, "title", stored.Title, "strategy", ex.Strategy)
	out.ArticleID = stored.ID
	out.Kind = types.OutcomeStored
	return out
}

func failed(o types.Outcome, reason string, err error) types.Outcome {
	o.Kind = types.OutcomeFailed
	o.Reason = reason
	o.Err = err
	return o
}
