package types

import (
	"time"
)

// Status is the enhancement state of a stored article.
type Status string

const (
	// StatusScraped marks an article created by the scrape run.
	StatusScraped Status = "scraped"

	// StatusEnhanced marks an article rewritten with reference material.
	StatusEnhanced Status = "enhanced"

	// StatusFallback marks an article whose rewrite was attempted but the
	// generative service was unavailable. Its content carries a marker.
	StatusFallback Status = "fallback"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusScraped, StatusEnhanced, StatusFallback:
		return true
	}
	return false
}

// CanTransition reports whether an article in status s may move to next.
// Statuses only move forward; staying put is always allowed.
func (s Status) CanTransition(next Status) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusScraped:
		return next == StatusEnhanced || next == StatusFallback
	case StatusFallback:
		return next == StatusEnhanced
	default:
		return false
	}
}

// Article is the unit of work and storage.
type Article struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	URL          string    `json:"url,omitempty"`
	OriginalDate time.Time `json:"original_date"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewArticle is the payload used to create an article.
type NewArticle struct {
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	URL          string    `json:"url,omitempty"`
	OriginalDate time.Time `json:"original_date"`
}

// Validate checks the invariants every stored article must hold.
func (n *NewArticle) Validate() error {
	if n.Title == "" {
		return ErrEmptyTitle
	}
	if n.Content == "" {
		return ErrEmptyContent
	}
	return nil
}

// ArticlePatch is a partial update. Nil fields are left unchanged.
type ArticlePatch struct {
	Title        *string    `json:"title,omitempty"`
	Content      *string    `json:"content,omitempty"`
	URL          *string    `json:"url,omitempty"`
	OriginalDate *time.Time `json:"original_date,omitempty"`
	Status       *Status    `json:"status,omitempty"`
}

// Apply validates the patch against the current article and returns the
// updated copy. The caller persists the result.
func (p ArticlePatch) Apply(current Article) (Article, error) {
	next := current
	if p.Title != nil {
		if *p.Title == "" {
			return current, ErrEmptyTitle
		}
		next.Title = *p.Title
	}
	if p.Content != nil {
		if *p.Content == "" {
			return current, ErrEmptyContent
		}
		next.Content = *p.Content
	}
	if p.URL != nil {
		next.URL = *p.URL
	}
	if p.OriginalDate != nil {
		next.OriginalDate = *p.OriginalDate
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return current, ErrInvalidStatus
		}
		if !current.Status.CanTransition(*p.Status) {
			return current, ErrInvalidTransition
		}
		next.Status = *p.Status
	}
	return next, nil
}

// SearchResult is a single organic hit from the reference search stage.
type SearchResult struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Reference is a search result with its extracted, length-bounded text.
type Reference struct {
	SearchResult
	Content string `json:"content"`
}
