package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/ArticleForge/internal/config"
	"github.com/IshaanNene/ArticleForge/internal/discovery"
	"github.com/IshaanNene/ArticleForge/internal/engine"
	"github.com/IshaanNene/ArticleForge/internal/fetcher"
	"github.com/IshaanNene/ArticleForge/internal/parser"
	"github.com/IshaanNene/ArticleForge/internal/pipeline"
	"github.com/IshaanNene/ArticleForge/internal/types"
)

var (
	scrapeLastPage  int
	scrapeBatchSize int
	scrapeMaxPages  int
)

// scrapeCmd creates the "scrape" subcommand.
func scrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Discover and store the oldest not-yet-collected articles",
		Long: `Walk the blog listing backward from its last page, select the oldest
articles that are not stored yet, extract them and create them in storage.`,
		Args: cobra.NoArgs,
		RunE: runScrape,
	}

	cmd.Flags().IntVar(&scrapeLastPage, "last-page", -1, "listing page to start from (0 = detect)")
	cmd.Flags().IntVarP(&scrapeBatchSize, "batch", "n", 0, "number of articles to collect")
	cmd.Flags().IntVar(&scrapeMaxPages, "max-pages", 0, "maximum listing pages to walk")

	return cmd
}

// runScrape executes the scrape command.
func runScrape(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := loadApp(func(cfg *config.Config) {
		if scrapeLastPage >= 0 {
			cfg.Discovery.LastPage = scrapeLastPage
		}
		if scrapeBatchSize > 0 {
			cfg.Discovery.BatchSize = scrapeBatchSize
		}
		if scrapeMaxPages > 0 {
			cfg.Discovery.MaxPages = scrapeMaxPages
		}
	})
	if err != nil {
		return err
	}
	defer a.close()
	a.startMetrics()

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}

	httpFetcher := fetcher.Instrument(fetcher.NewHTTPFetcher(&a.cfg.Fetcher, a.logger), a.metrics.ObserveFetch)
	a.closers = append(a.closers, httpFetcher.Close)

	disc, err := discovery.New(&a.cfg.Discovery, httpFetcher, a.logger)
	if err != nil {
		return fmt.Errorf("create discoverer: %w", err)
	}
	extractor, err := parser.NewArticleExtractor(a.cfg.Extract.ContentRules, a.logger)
	if err != nil {
		return fmt.Errorf("create extractor: %w", err)
	}

	h := engine.NewHarvester(disc, httpFetcher, extractor, pipeline.Default(a.logger), store, a.logger,
		engine.WithMetrics(a.metrics))

	a.logger.Info("starting scrape",
		"listing", a.cfg.Discovery.ListingURL,
		"batch", a.cfg.Discovery.BatchSize,
		"max_pages", a.cfg.Discovery.MaxPages,
		"storage", store.Name(),
	)

	report, err := h.Harvest(ctx, discovery.DefaultOptions(&a.cfg.Discovery))
	if err != nil {
		return err
	}

	printReport(report)
	return nil
}

// printReport writes the batch summary of a run.
func printReport(r *types.Report) {
	fmt.Printf("\n✅ %s run %s complete in %s\n", r.Run, r.RunID, r.Elapsed().Round(time.Millisecond))
	for _, o := range r.Outcomes {
		line := fmt.Sprintf("   %-8s %s", o.Kind, o.Subject)
		if o.Title != "" {
			line += fmt.Sprintf(" (%s)", o.Title)
		}
		if o.Reason != "" {
			line += ": " + o.Reason
		}
		fmt.Println(line)
	}
	fmt.Printf("   Processed: %d, skipped: %d, failed: %d\n",
		r.Processed(), r.Count(types.OutcomeSkipped), r.Count(types.OutcomeFailed))
	if r.Count(types.OutcomeFallback) > 0 {
		fmt.Printf("   %d article(s) kept their content with a fallback marker; rerun with --retry-fallback once the LLM is reachable.\n",
			r.Count(types.OutcomeFallback))
	}
}
