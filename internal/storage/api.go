package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/IshaanNene/ArticleForge/internal/types"
)

// APIStorage talks to the article service over HTTP.
type APIStorage struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewAPIStorage creates a client for the service rooted at baseURL
// (for example http://localhost:3000/api). A nil client gets a default one.
func NewAPIStorage(baseURL string, client *http.Client, logger *slog.Logger) *APIStorage {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &APIStorage{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger.With("component", "api_storage"),
	}
}

func (s *APIStorage) Name() string { return "api" }

func (s *APIStorage) List(ctx context.Context) ([]types.Article, error) {
	var out []types.Article
	if err := s.do(ctx, "list", http.MethodGet, "/articles", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *APIStorage) Get(ctx context.Context, id int64) (*types.Article, error) {
	var out types.Article
	if err := s.do(ctx, "get", http.MethodGet, articlePath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *APIStorage) Create(ctx context.Context, a types.NewArticle) (*types.Article, error) {
	var out types.Article
	if err := s.do(ctx, "create", http.MethodPost, "/articles", a, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *APIStorage) Update(ctx context.Context, id int64, patch types.ArticlePatch) (*types.Article, error) {
	var out types.Article
	if err := s.do(ctx, "update", http.MethodPut, articlePath(id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *APIStorage) Delete(ctx context.Context, id int64) error {
	return s.do(ctx, "delete", http.MethodDelete, articlePath(id), nil, nil)
}

func (s *APIStorage) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func articlePath(id int64) string {
	return "/articles/" + strconv.FormatInt(id, 10)
}

// do sends one request and decodes a JSON response into out. Error bodies
// of the form {"error": "..."} become the error message; 404 and 409 map to
// the matching sentinel.
func (s *APIStorage) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return &types.StorageError{Backend: s.Name(), Op: op, Err: err}
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}

		var cause error = fmt.Errorf("HTTP %d: %s", resp.StatusCode, msg)
		switch resp.StatusCode {
		case http.StatusNotFound:
			cause = fmt.Errorf("%w: %s", types.ErrNotFound, msg)
		case http.StatusConflict:
			cause = fmt.Errorf("%w: %s", types.ErrInvalidTransition, msg)
		}
		return &types.StorageError{Backend: s.Name(), Op: op, Err: cause}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &types.StorageError{Backend: s.Name(), Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
