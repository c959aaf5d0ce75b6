package pipeline

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/IshaanNene/ArticleForge/internal/discovery"
	"github.com/IshaanNene/ArticleForge/internal/types"
)

// Middleware processes an article and returns the (possibly modified) article.
// Return nil to drop the article from the pipeline.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process transforms an article. Return nil to drop it.
	Process(a *types.NewArticle) (*types.NewArticle, error)
}

// Pipeline chains middleware processors together.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Default returns the chain every scraped article goes through before it is
// stored: cleanup, required fields, duplicate suppression, date placeholder.
func Default(logger *slog.Logger) *Pipeline {
	p := New(logger)
	p.Use(&TrimMiddleware{})
	p.Use(NewTitleSanitizeMiddleware())
	p.Use(NewContentSanitizeMiddleware())
	p.Use(&RequiredFieldsMiddleware{})
	p.Use(NewDedupMiddleware())
	p.Use(&DefaultDateMiddleware{Now: time.Now})
	return p
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the article through all middleware in order. A nil article
// with a nil error means it was dropped.
func (p *Pipeline) Process(a *types.NewArticle) (*types.NewArticle, error) {
	current := a

	for _, mw := range p.middlewares {
		result, err := mw.Process(current)
		if err != nil {
			return nil, &types.PipelineError{
				Stage:   mw.Name(),
				Article: current,
				Err:     err,
			}
		}
		if result == nil {
			p.logger.Debug("article dropped", "stage", mw.Name(), "url", a.URL)
			return nil, nil
		}
		current = result
	}

	return current, nil
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}

// --- Built-in Middleware ---

// RequiredFieldsMiddleware drops articles without a title or content.
type RequiredFieldsMiddleware struct{}

func (m *RequiredFieldsMiddleware) Name() string { return "required_fields" }

func (m *RequiredFieldsMiddleware) Process(a *types.NewArticle) (*types.NewArticle, error) {
	if a.Validate() != nil {
		return nil, nil
	}
	return a, nil
}

// DedupMiddleware drops articles whose URL was already seen in this run.
// Articles without a URL are keyed by title.
type DedupMiddleware struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewDedupMiddleware() *DedupMiddleware {
	return &DedupMiddleware{
		seen: make(map[string]struct{}),
	}
}

func (m *DedupMiddleware) Name() string { return "dedup" }

func (m *DedupMiddleware) Process(a *types.NewArticle) (*types.NewArticle, error) {
	key := "title:" + a.Title
	if a.URL != "" {
		key = discovery.CanonicalizeURL(a.URL)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.seen[key]; exists {
		return nil, nil
	}
	m.seen[key] = struct{}{}
	return a, nil
}

// DefaultDateMiddleware stamps a placeholder publish date when none was found.
type DefaultDateMiddleware struct {
	Now func() time.Time
}

func (m *DefaultDateMiddleware) Name() string { return "default_date" }

func (m *DefaultDateMiddleware) Process(a *types.NewArticle) (*types.NewArticle, error) {
	if a.OriginalDate.IsZero() {
		a.OriginalDate = m.Now().UTC()
	}
	return a, nil
}

// TrimMiddleware trims whitespace from all text fields.
type TrimMiddleware struct{}

func (m *TrimMiddleware) Name() string { return "trim" }

func (m *TrimMiddleware) Process(a *types.NewArticle) (*types.NewArticle, error) {
	a.Title = strings.TrimSpace(a.Title)
	a.Content = strings.TrimSpace(a.Content)
	a.URL = strings.TrimSpace(a.URL)
	return a, nil
}
