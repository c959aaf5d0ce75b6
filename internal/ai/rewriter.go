package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IshaanNene/ArticleForge/internal/parser"
	"github.com/IshaanNene/ArticleForge/internal/types"
)

// Markers appended to unchanged content when a rewrite could not happen.
const (
	MarkerMissingKey = "\n\n[System: LLM Key missing, content not rewritten.]"
	MarkerCallFailed = "\n\n[System: LLM call failed. Content unchanged.]"
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Rewrite is the outcome of rewriting one article.
type Rewrite struct {
	Content string
	// Fallback is set when Content is the original plus a marker.
	Fallback bool
	// Reason explains a fallback.
	Reason string
}

// Rewriter asks an LLM to rewrite an article using reference material.
type Rewriter struct {
	gen         Generator
	prefixChars int
	logger      *slog.Logger
}

// NewRewriter creates a Rewriter. Only the first prefixChars runes of the
// article body are sent to the model.
func NewRewriter(gen Generator, prefixChars int, logger *slog.Logger) *Rewriter {
	return &Rewriter{
		gen:         gen,
		prefixChars: prefixChars,
		logger:      logger.With("component", "rewriter"),
	}
}

// Rewrite never fails. Without a credential, or when the call errors, it
// returns the original content with a marker and Fallback set.
func (r *Rewriter) Rewrite(ctx context.Context, title, content string, refs []types.Reference) Rewrite {
	out, err := r.gen.Generate(ctx, r.Prompt(title, content, refs))
	switch {
	case errors.Is(err, types.ErrNoCredential):
		r.logger.Warn("skipping LLM call: no credential configured", "title", title)
		return Rewrite{Content: content + MarkerMissingKey, Fallback: true, Reason: "no credential"}
	case err != nil:
		r.logger.Error("LLM call failed", "title", title, "error", err)
		return Rewrite{Content: content + MarkerCallFailed, Fallback: true, Reason: err.Error()}
	}
	return Rewrite{Content: strings.TrimSpace(out)}
}

// Prompt builds the rewrite instructions for an article.
func (r *Rewriter) Prompt(title, content string, refs []types.Reference) string {
	sources := make([]string, len(refs))
	for i, ref := range refs {
		sources[i] = fmt.Sprintf("Source %d (%s):\n%s", i+1, ref.URL, ref.Content)
	}

	var b strings.Builder
	b.WriteString("You are an expert content editor.\n\n")
	fmt.Fprintf(&b, "Original Article Title: %s\n", title)
	b.WriteString("Original Content:\n")
	b.WriteString(parser.Truncate(content, r.prefixChars))
	b.WriteString("...\n\n")
	fmt.Fprintf(&b, "I have found %d high-ranking articles on the same topic:\n", len(refs))
	b.WriteString(strings.Join(sources, "\n\n"))
	b.WriteString("\n\nTask:\nRewrite and improve the original article.\n")
	fmt.Fprintf(&b, "1. Make it more comprehensive using insights from the %d new sources.\n", len(refs))
	b.WriteString("2. Improve formatting (use markdown headers, lists).\n")
	b.WriteString("3. Keep the tone professional and engaging.\n")
	b.WriteString("4. CRITICAL: At the very end, add a \"References\" section citing the new sources with their URLs.\n\n")
	b.WriteString("Return ONLY the new article content in Markdown format.\n")
	return b.String()
}

// StripMarkers removes any fallback marker from content so a retry starts
// from the original text.
func StripMarkers(content string) string {
	for {
		trimmed := strings.TrimSuffix(strings.TrimSuffix(content, MarkerMissingKey), MarkerCallFailed)
		if trimmed == content {
			return content
		}
		content = trimmed
	}
}
