package fetcher

import (
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"sync/atomic"
)

// ProxyRotator hands out configured proxies per request.
type ProxyRotator struct {
	proxies  []*url.URL
	rotation string
	index    atomic.Int64
}

// NewProxyRotator parses rawURLs, skipping invalid entries. rotation is
// "random" or anything else for round robin.
func NewProxyRotator(rawURLs []string, rotation string, logger *slog.Logger) *ProxyRotator {
	pr := &ProxyRotator{
		proxies:  make([]*url.URL, 0, len(rawURLs)),
		rotation: rotation,
	}
	for _, raw := range rawURLs {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			logger.Warn("invalid proxy URL", "url", raw, "error", err)
			continue
		}
		pr.proxies = append(pr.proxies, u)
	}
	logger.Info("proxy rotation enabled", "count", len(pr.proxies), "rotation", rotation)
	return pr
}

// Next returns the proxy for the next request, or nil for a direct connection.
func (pr *ProxyRotator) Next() *url.URL {
	if len(pr.proxies) == 0 {
		return nil
	}
	if pr.rotation == "random" {
		return pr.proxies[rand.IntN(len(pr.proxies))]
	}
	idx := (pr.index.Add(1) - 1) % int64(len(pr.proxies))
	return pr.proxies[idx]
}

// ProxyFunc returns an http.Transport-compatible proxy function.
func (pr *ProxyRotator) ProxyFunc() func(*http.Request) (*url.URL, error) {
	return func(*http.Request) (*url.URL, error) {
		return pr.Next(), nil
	}
}

// Count returns the number of usable proxies.
func (pr *ProxyRotator) Count() int { return len(pr.proxies) }
