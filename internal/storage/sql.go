package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/IshaanNene/ArticleForge/internal/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS articles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	url TEXT NOT NULL DEFAULT '',
	original_date DATETIME NOT NULL,
	status TEXT NOT NULL DEFAULT 'scraped',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS articles (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	url TEXT NOT NULL DEFAULT '',
	original_date TIMESTAMPTZ NOT NULL,
	status TEXT NOT NULL DEFAULT 'scraped',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`

var articleColumns = []string{
	"id", "title", "content", "url", "original_date", "status", "created_at", "updated_at",
}

// SQLStorage keeps articles in SQLite or PostgreSQL.
type SQLStorage struct {
	db      *sql.DB
	dialect string
	qb      sq.StatementBuilderType
	now     func() time.Time
	logger  *slog.Logger
}

// NewSQLStorage opens dsn with the driver for dialect ("sqlite" or
// "postgres") and creates the articles table if needed.
func NewSQLStorage(ctx context.Context, dialect, dsn string, logger *slog.Logger) (*SQLStorage, error) {
	var (
		driver string
		schema string
		format sq.PlaceholderFormat
	)
	switch dialect {
	case "sqlite":
		driver, schema, format = "sqlite", sqliteSchema, sq.Question
	case "postgres":
		driver, schema, format = "pgx", postgresSchema, sq.Dollar
	default:
		return nil, fmt.Errorf("unsupported SQL dialect %q", dialect)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, &types.StorageError{Backend: dialect, Op: "open", Err: err}
	}
	if dialect == "sqlite" {
		// One writer keeps SQLite free of "database is locked" errors.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &types.StorageError{Backend: dialect, Op: "ping", Err: err}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, &types.StorageError{Backend: dialect, Op: "migrate", Err: err}
	}

	return &SQLStorage{
		db:      db,
		dialect: dialect,
		qb:      sq.StatementBuilder.PlaceholderFormat(format),
		now:     func() time.Time { return time.Now().UTC() },
		logger:  logger.With("component", "sql_storage", "dialect", dialect),
	}, nil
}

func (s *SQLStorage) Name() string { return s.dialect }

func (s *SQLStorage) List(ctx context.Context) ([]types.Article, error) {
	query, args, err := s.qb.Select(articleColumns...).From("articles").OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, s.wrap("list", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.wrap("list", err)
	}
	defer rows.Close()

	var out []types.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, s.wrap("list", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap("list", err)
	}
	return out, nil
}

func (s *SQLStorage) Get(ctx context.Context, id int64) (*types.Article, error) {
	return s.get(ctx, s.db, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLStorage) get(ctx context.Context, q queryer, id int64) (*types.Article, error) {
	query, args, err := s.qb.Select(articleColumns...).From("articles").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, s.wrap("get", err)
	}

	a, err := scanArticle(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, s.wrap("get", fmt.Errorf("%w: id %d", types.ErrNotFound, id))
	}
	if err != nil {
		return nil, s.wrap("get", err)
	}
	return a, nil
}

func (s *SQLStorage) Create(ctx context.Context, in types.NewArticle) (*types.Article, error) {
	if err := in.Validate(); err != nil {
		return nil, s.wrap("create", err)
	}

	a := newRecord(in, s.now())
	query, args, err := s.qb.Insert("articles").
		Columns("title", "content", "url", "original_date", "status", "created_at", "updated_at").
		Values(a.Title, a.Content, a.URL, a.OriginalDate, string(a.Status), a.CreatedAt, a.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, s.wrap("create", err)
	}

	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&a.ID); err != nil {
		return nil, s.wrap("create", err)
	}

	s.logger.Debug("article created", "id", a.ID, "title", a.Title)
	return &a, nil
}

func (s *SQLStorage) Update(ctx context.Context, id int64, patch types.ArticlePatch) (*types.Article, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, s.wrap("update", err)
	}
	defer tx.Rollback()

	current, err := s.get(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	next, err := patch.Apply(*current)
	if err != nil {
		return nil, s.wrap("update", err)
	}
	next.UpdatedAt = s.now()

	query, args, err := s.qb.Update("articles").
		Set("title", next.Title).
		Set("content", next.Content).
		Set("url", next.URL).
		Set("original_date", next.OriginalDate.UTC()).
		Set("status", string(next.Status)).
		Set("updated_at", next.UpdatedAt).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, s.wrap("update", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, s.wrap("update", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, s.wrap("update", err)
	}

	s.logger.Debug("article updated", "id", id, "status", next.Status)
	return &next, nil
}

func (s *SQLStorage) Delete(ctx context.Context, id int64) error {
	query, args, err := s.qb.Delete("articles").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return s.wrap("delete", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return s.wrap("delete", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return s.wrap("delete", fmt.Errorf("%w: id %d", types.ErrNotFound, id))
	}
	return nil
}

func (s *SQLStorage) Close() error {
	return s.db.Close()
}

func (s *SQLStorage) wrap(op string, err error) error {
	return &types.StorageError{Backend: s.dialect, Op: op, Err: err}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*types.Article, error) {
	var (
		a      types.Article
		status string
	)
	if err := row.Scan(&a.ID, &a.Title, &a.Content, &a.URL, &a.OriginalDate, &status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Status = types.Status(status)
	return &a, nil
}
