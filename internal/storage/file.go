package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/IshaanNene/ArticleForge/internal/types"
)

// Exporter writes a snapshot of articles to a file.
type Exporter interface {
	Export(articles []types.Article) error
	Path() string
	Name() string
}

// --- JSON ---

// JSONExporter writes articles as a single indented JSON array.
type JSONExporter struct {
	path   string
	logger *slog.Logger
}

func NewJSONExporter(outputPath string, logger *slog.Logger) *JSONExporter {
	return &JSONExporter{path: outputPath, logger: logger.With("component", "json_export")}
}

func (e *JSONExporter) Name() string { return "json" }
func (e *JSONExporter) Path() string { return e.path }

func (e *JSONExporter) Export(articles []types.Article) error {
	f, err := createOutput(e.path)
	if err != nil {
		return err
	}
	defer f.Close()

	if articles == nil {
		articles = []types.Article{}
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(articles); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}

	e.logger.Info("JSON written", "path", e.path, "articles", len(articles))
	return f.Close()
}

// --- JSONL ---

// JSONLExporter writes one JSON object per line.
type JSONLExporter struct {
	path   string
	logger *slog.Logger
}

func NewJSONLExporter(outputPath string, logger *slog.Logger) *JSONLExporter {
	return &JSONLExporter{path: outputPath, logger: logger.With("component", "jsonl_export")}
}

func (e *JSONLExporter) Name() string { return "jsonl" }
func (e *JSONLExporter) Path() string { return e.path }

func (e *JSONLExporter) Export(articles []types.Article) error {
	f, err := createOutput(e.path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, a := range articles {
		if err := enc.Encode(a); err != nil {
			return fmt.Errorf("encode JSONL: %w", err)
		}
	}

	e.logger.Info("JSONL written", "path", e.path, "articles", len(articles))
	return f.Close()
}

// --- CSV ---

var csvHeader = []string{"id", "title", "url", "status", "original_date", "created_at", "updated_at", "content"}

// CSVExporter writes a header row followed by one row per article.
type CSVExporter struct {
	path   string
	logger *slog.Logger
}

func NewCSVExporter(outputPath string, logger *slog.Logger) *CSVExporter {
	return &CSVExporter{path: outputPath, logger: logger.With("component", "csv_export")}
}

func (e *CSVExporter) Name() string { return "csv" }
func (e *CSVExporter) Path() string { return e.path }

func (e *CSVExporter) Export(articles []types.Article) error {
	f, err := createOutput(e.path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, a := range articles {
		row := []string{
			strconv.FormatInt(a.ID, 10),
			a.Title,
			a.URL,
			string(a.Status),
			a.OriginalDate.Format(time.RFC3339),
			a.CreatedAt.Format(time.RFC3339),
			a.UpdatedAt.Format(time.RFC3339),
			a.Content,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush CSV: %w", err)
	}

	e.logger.Info("CSV written", "path", e.path, "articles", len(articles))
	return f.Close()
}

// NewExporter creates the file exporter for format, writing to
// outputDir/articles.<format>.
func NewExporter(format, outputDir string, logger *slog.Logger) (Exporter, error) {
	switch format {
	case "json":
		return NewJSONExporter(filepath.Join(outputDir, "articles.json"), logger), nil
	case "jsonl":
		return NewJSONLExporter(filepath.Join(outputDir, "articles.jsonl"), logger), nil
	case "csv":
		return NewCSVExporter(filepath.Join(outputDir, "articles.csv"), logger), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

func createOutput(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return f, nil
}
