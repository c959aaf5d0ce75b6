package discovery

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/IshaanNene/ArticleForge/internal/config"
)

// Predicate decides whether a resolved link qualifies.
type Predicate func(u *url.URL) bool

// segments splits a URL path into its non-empty segments.
func segments(u *url.URL) []string {
	parts := strings.Split(u.Path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// HasSegment matches URLs with a path segment equal to seg.
func HasSegment(seg string) Predicate {
	return func(u *url.URL) bool {
		for _, s := range segments(u) {
			if strings.EqualFold(s, seg) {
				return true
			}
		}
		return false
	}
}

// IsListingRoot matches the listing page itself, ignoring trailing slashes.
func IsListingRoot(root *url.URL) Predicate {
	want := strings.Join(segments(root), "/")
	return func(u *url.URL) bool {
		return SameHost(root)(u) && strings.Join(segments(u), "/") == want
	}
}

// SameHost matches URLs on the same host as ref.
func SameHost(ref *url.URL) Predicate {
	host := strings.ToLower(ref.Hostname())
	return func(u *url.URL) bool {
		return strings.ToLower(u.Hostname()) == host
	}
}

// Not negates p.
func Not(p Predicate) Predicate {
	return func(u *url.URL) bool { return !p(u) }
}

// All matches when every predicate matches.
func All(ps ...Predicate) Predicate {
	return func(u *url.URL) bool {
		for _, p := range ps {
			if !p(u) {
				return false
			}
		}
		return true
	}
}

// Any matches when at least one predicate matches.
func Any(ps ...Predicate) Predicate {
	return func(u *url.URL) bool {
		for _, p := range ps {
			if p(u) {
				return true
			}
		}
		return false
	}
}

// ArticlePredicate builds the article link classifier for a listing: same
// host, inside the article segment, outside every excluded segment, and not
// the listing root.
func ArticlePredicate(cfg *config.DiscoveryConfig) (Predicate, error) {
	root, err := url.Parse(cfg.ListingURL)
	if err != nil {
		return nil, fmt.Errorf("parse listing url: %w", err)
	}

	excluded := make([]Predicate, 0, len(cfg.ExcludeSegments))
	for _, seg := range cfg.ExcludeSegments {
		excluded = append(excluded, HasSegment(seg))
	}

	return All(
		SameHost(root),
		HasSegment(cfg.ArticleSegment),
		Not(Any(excluded...)),
		Not(IsListingRoot(root)),
	), nil
}
