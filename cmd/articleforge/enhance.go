package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/ArticleForge/internal/ai"
	"github.com/IshaanNene/ArticleForge/internal/config"
	"github.com/IshaanNene/ArticleForge/internal/engine"
	"github.com/IshaanNene/ArticleForge/internal/fetcher"
	"github.com/IshaanNene/ArticleForge/internal/search"
)

var (
	enhanceRetryFallback bool
	enhanceLimit         int
)

// enhanceCmd creates the "enhance" subcommand.
func enhanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enhance",
		Short: "Rewrite stored articles using web references",
		Long: `For every stored article that has not been enhanced: search the web for its
title, scrape the top results as references and ask the configured LLM to
rewrite the article. Without an API key the article keeps its content with a
marker and the status "fallback".`,
		Args: cobra.NoArgs,
		RunE: runEnhance,
	}

	cmd.Flags().BoolVar(&enhanceRetryFallback, "retry-fallback", false, "also process articles whose last rewrite fell back")
	cmd.Flags().IntVar(&enhanceLimit, "limit", 0, "maximum articles to process (0 = all)")

	return cmd
}

// runEnhance executes the enhance command.
func runEnhance(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := loadApp(func(cfg *config.Config) {
		if enhanceRetryFallback {
			cfg.Enhance.RetryFallback = true
		}
		if enhanceLimit > 0 {
			cfg.Enhance.Limit = enhanceLimit
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

	renderer := httpFetcher
	if a.cfg.Search.Renderer == "browser" {
		renderer = fetcher.Instrument(fetcher.NewBrowserFetcher(&a.cfg.Browser, a.logger), a.metrics.ObserveFetch)
		a.closers = append(a.closers, renderer.Close)
	}

	searcher, err := search.NewDuckDuckGo(&a.cfg.Search, renderer, a.logger)
	if err != nil {
		return fmt.Errorf("create searcher: %w", err)
	}

	llm := ai.NewLLMClient(&a.cfg.AI, a.logger, ai.WithObserver(a.metrics.ObserveLLM))
	if !llm.Configured() {
		a.logger.Warn("no LLM credential configured, articles will be marked as fallback", "provider", a.cfg.AI.Provider)
	}
	rewriter := ai.NewRewriter(llm, a.cfg.Enhance.ContentPrefixChars, a.logger)

	e := engine.NewEnhancer(&a.cfg.Enhance, a.cfg.Extract.ReferenceMaxChars, store, searcher, httpFetcher, rewriter, a.logger,
		engine.WithMetrics(a.metrics))

	a.logger.Info("starting enhance",
		"storage", store.Name(),
		"provider", a.cfg.AI.Provider,
		"model", a.cfg.AI.Model,
		"retry_fallback", a.cfg.Enhance.RetryFallback,
		"limit", a.cfg.Enhance.Limit,
	)

	report, err := e.Enhance(ctx, engine.DefaultEnhanceOptions(&a.cfg.Enhance))
	if err != nil {
		return err
	}

	printReport(report)
	return nil
}
