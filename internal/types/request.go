package types

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Request tags describe why a page is being fetched.
const (
	TagListing   = "listing"
	TagArticle   = "article"
	TagSearch    = "search"
	TagReference = "reference"
)

// Request represents a single page fetch.
type Request struct {
	// URL is the target URL to fetch.
	URL *url.URL

	// Method is the HTTP method. Defaults to GET.
	Method string

	// Headers are custom HTTP headers to send with the request.
	Headers http.Header

	// Timeout overrides the fetcher's default timeout for this request.
	Timeout time.Duration

	// Tag categorizes this request (listing, article, search, reference).
	Tag string

	// CreatedAt is when this request was created.
	CreatedAt time.Time
}

// NewRequest creates a GET request for rawURL. Only absolute http(s) URLs
// are accepted.
func NewRequest(rawURL string) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidURL, rawURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w %q: must be absolute http(s)", ErrInvalidURL, rawURL)
	}

	return &Request{
		URL:       u,
		Method:    http.MethodGet,
		Headers:   make(http.Header),
		CreatedAt: time.Now(),
	}, nil
}

// NewTaggedRequest is NewRequest with a tag attached.
func NewTaggedRequest(rawURL, tag string) (*Request, error) {
	req, err := NewRequest(rawURL)
	if err != nil {
		return nil, err
	}
	req.Tag = tag
	return req, nil
}

// URLString returns the string representation of the request URL.
func (r *Request) URLString() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.String()
}

// Domain returns the hostname of the request URL.
func (r *Request) Domain() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.Hostname()
}
