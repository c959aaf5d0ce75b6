package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/ArticleForge/internal/discovery"
	"github.com/IshaanNene/ArticleForge/internal/fetcher"
	"github.com/IshaanNene/ArticleForge/internal/storage"
)

var clearYes bool

// pagesCmd creates the "pages" subcommand.
func pagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pages",
		Short: "Detect the last page of the blog listing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(nil)
			if err != nil {
				return err
			}
			defer a.close()

			f := fetcher.NewHTTPFetcher(&a.cfg.Fetcher, a.logger)
			a.closers = append(a.closers, f.Close)

			d, err := discovery.New(&a.cfg.Discovery, f, a.logger)
			if err != nil {
				return err
			}
			last, err := d.FindLastPage(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("Last listing page: %d\n", last)
			fmt.Printf("   %s\n", d.PageURL(last))
			return nil
		},
	}
}

// clearCmd creates the "clear" subcommand.
func clearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored article",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !clearYes {
				return fmt.Errorf("refusing to delete all articles without --yes")
			}

			a, err := loadApp(nil)
			if err != nil {
				return err
			}
			defer a.close()

			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}

			n, err := storage.Clear(cmd.Context(), store)
			if err != nil {
				return fmt.Errorf("cleared %d article(s) before failing: %w", n, err)
			}
			a.logger.Info("articles cleared", "count", n, "storage", store.Name())
			fmt.Printf("🗑  Deleted %d article(s)\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "confirm deletion")
	return cmd
}
