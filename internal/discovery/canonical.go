package discovery

import (
	"net/url"
	"sort"
	"strings"
)

// CanonicalizeURL normalizes a URL for deduplication:
//   - lowercases scheme and host
//   - removes fragment
//   - sorts query parameters
//   - removes trailing slash (except root)
//   - removes default ports (80 for http, 443 for https)
func CanonicalizeURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		u.Host = u.Hostname()
	}

	if u.RawQuery != "" {
		params := u.Query()
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var sorted []string
		for _, k := range keys {
			vals := params[k]
			sort.Strings(vals)
			for _, v := range vals {
				sorted = append(sorted, url.QueryEscape(k)+"="+url.QueryEscape(v))
			}
		}
		u.RawQuery = strings.Join(sorted, "&")
	}

	if len(u.Path) > 1 {
		u.Path = strings.TrimRight(u.Path, "/")
		u.RawPath = ""
	}
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String()
}

// URLSet records URLs by canonical form. It is not safe for concurrent use;
// discovery walks pages sequentially.
type URLSet struct {
	seen map[string]struct{}
}

// NewURLSet creates a set seeded with urls.
func NewURLSet(urls ...string) *URLSet {
	s := &URLSet{seen: make(map[string]struct{}, len(urls))}
	for _, u := range urls {
		s.Add(u)
	}
	return s
}

// Add records u and reports whether it was new.
func (s *URLSet) Add(u string) bool {
	key := CanonicalizeURL(u)
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Has reports whether u was recorded.
func (s *URLSet) Has(u string) bool {
	_, ok := s.seen[CanonicalizeURL(u)]
	return ok
}

// Len returns the number of distinct URLs recorded.
func (s *URLSet) Len() int {
	return len(s.seen)
}
