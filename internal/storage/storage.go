package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IshaanNene/ArticleForge/internal/config"
	"github.com/IshaanNene/ArticleForge/internal/types"
)

// Storage is the interface for all article stores.
type Storage interface {
	// List returns every article, oldest first.
	List(ctx context.Context) ([]types.Article, error)

	// Get returns one article or an error wrapping types.ErrNotFound.
	Get(ctx context.Context, id int64) (*types.Article, error)

	// Create persists a new article with status scraped.
	Create(ctx context.Context, a types.NewArticle) (*types.Article, error)

	// Update applies a partial update. Status regressions are rejected with
	// types.ErrInvalidTransition.
	Update(ctx context.Context, id int64, patch types.ArticlePatch) (*types.Article, error)

	// Delete removes an article.
	Delete(ctx context.Context, id int64) error

	// Close releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// New opens the store selected by cfg.
func New(ctx context.Context, cfg *config.StorageConfig, logger *slog.Logger) (Storage, error) {
	switch cfg.Type {
	case "api":
		return NewAPIStorage(cfg.APIURL, nil, logger), nil
	case "sqlite", "postgres":
		return NewSQLStorage(ctx, cfg.Type, cfg.DSN, logger)
	case "mongodb":
		return NewMongoStorage(ctx, cfg.DSN, cfg.Database, cfg.Collection, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", cfg.Type)
	}
}

// Clear deletes every article and returns how many were removed.
func Clear(ctx context.Context, s Storage) (int, error) {
	articles, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	for i, a := range articles {
		if err := s.Delete(ctx, a.ID); err != nil {
			return i, fmt.Errorf("delete article %d: %w", a.ID, err)
		}
	}
	return len(articles), nil
}

// newRecord builds the article a store persists on create.
func newRecord(a types.NewArticle, now time.Time) types.Article {
	date := a.OriginalDate
	if date.IsZero() {
		date = now
	}
	return types.Article{
		Title:        a.Title,
		Content:      a.Content,
		URL:          a.URL,
		OriginalDate: date.UTC(),
		Status:       types.StatusScraped,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
