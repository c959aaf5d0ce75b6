package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/ArticleForge/internal/config"
	"github.com/IshaanNene/ArticleForge/internal/observability"
	"github.com/IshaanNene/ArticleForge/internal/storage"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "articleforge",
		Short: "ArticleForge: blog harvesting and reference-driven rewriting",
		Long: `ArticleForge harvests the oldest articles from a paginated blog, stores them,
and rewrites each one with a language model using high-ranking related pages
found on the web as references.

Runs:
  • scrape   discover and store the oldest not-yet-collected articles
  • enhance  search, scrape references and rewrite stored articles
  • serve    run the article storage API`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(enhanceCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(pagesCmd())
	rootCmd.AddCommand(clearCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// app is what every run needs: validated config, a logger and metrics.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	closers []func() error
}

// loadApp loads and validates configuration and builds the root logger.
// apply runs after loading so flags override file and env values.
func loadApp(apply func(cfg *config.Config)) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if apply != nil {
		apply(cfg)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &app{cfg: cfg}
	logger, closeLog, err := setupLogger(&cfg.Logging)
	if err != nil {
		return nil, err
	}
	a.logger = logger
	a.closers = append(a.closers, closeLog)

	a.metrics = observability.NewMetrics(logger)
	return a, nil
}

// startMetrics runs the standalone metrics listener when enabled.
func (a *app) startMetrics() {
	if !a.cfg.Metrics.Enabled {
		return
	}
	srv := a.metrics.StartServer(a.cfg.Metrics.Port, a.cfg.Metrics.Path)
	a.closers = append(a.closers, func() error { return srv.Stop(context.Background()) })
}

// openStore opens the configured storage backend.
func (a *app) openStore(ctx context.Context) (storage.Storage, error) {
	store, err := storage.New(ctx, &a.cfg.Storage, a.logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a.closers = append(a.closers, store.Close)
	return store, nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.logger != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ArticleForge %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			out, err := config.Dump(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

// setupLogger creates the root structured logger from config. The returned
// func closes the log file when output is a path.
func setupLogger(cfg *config.LoggingConfig) (*slog.Logger, func() error, error) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	var (
		w       io.Writer = os.Stderr
		closeFn           = func() error { return nil }
	)
	switch cfg.Output {
	case "", "stderr":
	case "stdout":
		w = os.Stdout
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closeFn = f, f.Close
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), closeFn, nil
}
