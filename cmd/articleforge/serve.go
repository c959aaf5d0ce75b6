package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/IshaanNene/ArticleForge/internal/api"
	"github.com/IshaanNene/ArticleForge/internal/config"
)

var (
	serveAddr      string
	serveStaticDir string
)

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the article storage API",
		Long: `Serve the article CRUD API under /api backed by a SQL or document store.
When storage.type is "api" the server falls back to SQLite at storage.dsn,
since it cannot be a client of itself.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&serveStaticDir, "static", "", "directory of static UI files to serve at /")

	return cmd
}

// runServe executes the serve command.
func runServe(cmd *cobra.Command, args []string) error {
	a, err := loadApp(func(cfg *config.Config) {
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		if serveStaticDir != "" {
			cfg.Server.StaticDir = serveStaticDir
		}
		if cfg.Storage.Type == "api" {
			cfg.Storage.Type = "sqlite"
		}
	})
	if err != nil {
		return err
	}
	defer a.close()

	g, ctx := errgroup.WithContext(cmd.Context())

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}

	srv := api.NewServer(&a.cfg.Server, store, a.logger, api.WithMetrics(a.metrics, a.cfg.Metrics.Path))
	httpSrv := srv.HTTPServer(ctx)

	g.Go(func() error {
		a.logger.Info("API server starting", "addr", httpSrv.Addr, "storage", store.Name(), "static", a.cfg.Server.StaticDir)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info("shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
