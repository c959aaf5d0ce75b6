package types

import (
	"errors"
	"testing"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusScraped, StatusEnhanced, true},
		{StatusScraped, StatusFallback, true},
		{StatusFallback, StatusEnhanced, true},
		{StatusEnhanced, StatusEnhanced, true},
		{StatusEnhanced, StatusScraped, false},
		{StatusEnhanced, StatusFallback, false},
		{StatusFallback, StatusScraped, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.ok {
			t.Errorf("%s -> %s: expected %v, got %v", tt.from, tt.to, tt.ok, got)
		}
	}
}

func TestPatchApply(t *testing.T) {
	current := Article{ID: 1, Title: "Old", Content: "body", Status: StatusEnhanced}

	back := StatusScraped
	if _, err := (ArticlePatch{Status: &back}).Apply(current); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}

	empty := ""
	if _, err := (ArticlePatch{Content: &empty}).Apply(current); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("expected ErrEmptyContent, got %v", err)
	}

	bogus := Status("archived")
	if _, err := (ArticlePatch{Status: &bogus}).Apply(current); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}

	title := "New"
	next, err := (ArticlePatch{Title: &title}).Apply(current)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.Title != "New" || next.Content != "body" || next.Status != StatusEnhanced {
		t.Errorf("unexpected result: %+v", next)
	}
}

func TestNewArticleValidate(t *testing.T) {
	if err := (&NewArticle{Title: "t"}).Validate(); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("expected ErrEmptyContent, got %v", err)
	}
	if err := (&NewArticle{Content: "c"}).Validate(); !errors.Is(err, ErrEmptyTitle) {
		t.Errorf("expected ErrEmptyTitle, got %v", err)
	}
	if err := (&NewArticle{Title: "t", Content: "c"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestReportCounts(t *testing.T) {
	r := &Report{}
	r.Add(Outcome{Kind: OutcomeStored})
	r.Add(Outcome{Kind: OutcomeSkipped})
	r.Add(Outcome{Kind: OutcomeFallback})
	r.Add(Outcome{Kind: OutcomeFailed})

	if r.Processed() != 2 {
		t.Errorf("expected 2 processed, got %d", r.Processed())
	}
	if r.Count(OutcomeSkipped) != 1 || r.Count(OutcomeFailed) != 1 {
		t.Errorf("unexpected counts: %+v", r.Outcomes)
	}
}

func TestNewRequestRejectsRelative(t *testing.T) {
	if _, err := NewRequest("/blogs/post"); !errors.Is(err, ErrInvalidURL) {
		t.Errorf("expected ErrInvalidURL, got %v", err)
	}
	req, err := NewTaggedRequest("https://example.com/a", TagArticle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Tag != TagArticle || req.Domain() != "example.com" {
		t.Errorf("unexpected request: %+v", req)
	}
}
