package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IshaanNene/ArticleForge/internal/config"
	"github.com/IshaanNene/ArticleForge/internal/observability"
	"github.com/IshaanNene/ArticleForge/internal/storage"
	"github.com/IshaanNene/ArticleForge/internal/types"
)

// Server provides the article CRUD API over a storage backend.
type Server struct {
	mux    *http.ServeMux
	cfg    *config.ServerConfig
	store  storage.Storage
	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics mounts the Prometheus handler at path.
func WithMetrics(m *observability.Metrics, path string) Option {
	return func(s *Server) {
		if m != nil && path != "" {
			s.mux.Handle("GET "+path, m.Handler())
		}
	}
}

// NewServer creates a new API server.
func NewServer(cfg *config.ServerConfig, store storage.Storage, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		mux:    http.NewServeMux(),
		cfg:    cfg,
		store:  store,
		logger: logger.With("component", "api_server"),
	}

	s.registerRoutes()
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the root handler with CORS applied.
func (s *Server) Handler() http.Handler {
	return s.cors(s.mux)
}

// HTTPServer builds the listener for cfg.Addr.
func (s *Server) HTTPServer(ctx context.Context) *http.Server {
	return &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	s.mux.HandleFunc("GET /api/articles", s.handleList)
	s.mux.HandleFunc("POST /api/articles", s.handleCreate)
	s.mux.HandleFunc("GET /api/articles/{id}", s.handleGet)
	s.mux.HandleFunc("PUT /api/articles/{id}", s.handleUpdate)
	s.mux.HandleFunc("DELETE /api/articles/{id}", s.handleDelete)

	if s.cfg.StaticDir != "" {
		s.mux.Handle("GET /", http.FileServer(http.Dir(s.cfg.StaticDir)))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": config.Version,
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	articles, err := s.store.List(r.Context())
	if err != nil {
		s.storageError(w, "list", err)
		return
	}
	if articles == nil {
		articles = []types.Article{}
	}
	s.jsonResponse(w, http.StatusOK, articles)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	a, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.storageError(w, "get", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, a)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body types.NewArticle
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := body.Validate(); err != nil {
		s.jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := s.store.Create(r.Context(), body)
	if err != nil {
		s.storageError(w, "create", err)
		return
	}
	s.logger.Info("article created", "id", a.ID, "title", a.Title)
	s.jsonResponse(w, http.StatusCreated, a)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var patch types.ArticlePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	a, err := s.store.Update(r.Context(), id, patch)
	if err != nil {
		s.storageError(w, "update", err)
		return
	}
	s.logger.Info("article updated", "id", a.ID, "status", a.Status)
	s.jsonResponse(w, http.StatusOK, a)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.storageError(w, "delete", err)
		return
	}
	s.logger.Info("article deleted", "id", id)
	s.jsonResponse(w, http.StatusOK, map[string]string{"message": "Article deleted"})
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		s.jsonError(w, http.StatusBadRequest, "invalid article id")
		return 0, false
	}
	return id, true
}

// storageError maps store errors onto status codes.
func (s *Server) storageError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		s.jsonError(w, http.StatusNotFound, "Article not found")
	case errors.Is(err, types.ErrInvalidTransition):
		s.jsonError(w, http.StatusConflict, types.ErrInvalidTransition.Error())
	case errors.Is(err, types.ErrEmptyTitle):
		s.jsonError(w, http.StatusBadRequest, types.ErrEmptyTitle.Error())
	case errors.Is(err, types.ErrEmptyContent):
		s.jsonError(w, http.StatusBadRequest, types.ErrEmptyContent.Error())
	case errors.Is(err, types.ErrInvalidStatus):
		s.jsonError(w, http.StatusBadRequest, types.ErrInvalidStatus.Error())
	default:
		s.logger.Error("storage failure", "op", op, "error", err)
		s.jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.CORSOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", s.cfg.CORSOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) jsonError(w http.ResponseWriter, status int, msg string) {
	s.jsonResponse(w, status, map[string]string{"error": msg})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
