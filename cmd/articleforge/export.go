package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/ArticleForge/internal/storage"
)

var (
	exportFormat string
	exportDir    string
)

// exportCmd creates the "export" subcommand.
func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all stored articles to a file",
		Args:  cobra.NoArgs,
		RunE:  runExport,
	}

	cmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "output format: json, jsonl, csv")
	cmd.Flags().StringVarP(&exportDir, "output", "o", "./output", "output directory")

	return cmd
}

// runExport executes the export command.
func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := loadApp(nil)
	if err != nil {
		return err
	}
	defer a.close()

	exporter, err := storage.NewExporter(strings.ToLower(exportFormat), exportDir, a.logger)
	if err != nil {
		return err
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}

	articles, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("list articles: %w", err)
	}
	if err := exporter.Export(articles); err != nil {
		return fmt.Errorf("export %s: %w", exporter.Name(), err)
	}

	fmt.Printf("✅ Exported %d article(s) to %s\n", len(articles), exporter.Path())
	return nil
}
