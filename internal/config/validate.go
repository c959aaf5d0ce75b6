package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if err := ValidateURL(cfg.Discovery.ListingURL); err != nil {
		return fmt.Errorf("discovery.listing_url: %w", err)
	}
	if !strings.Contains(cfg.Discovery.PageURLTemplate, "{page}") {
		return fmt.Errorf("discovery.page_url_template must contain {page}, got %q", cfg.Discovery.PageURLTemplate)
	}
	if cfg.Discovery.LastPage < 0 {
		return fmt.Errorf("discovery.last_page must be >= 0, got %d", cfg.Discovery.LastPage)
	}
	if cfg.Discovery.BatchSize < 1 {
		return fmt.Errorf("discovery.batch_size must be >= 1, got %d", cfg.Discovery.BatchSize)
	}
	if cfg.Discovery.MaxPages < 1 {
		return fmt.Errorf("discovery.max_pages must be >= 1, got %d", cfg.Discovery.MaxPages)
	}
	if cfg.Discovery.ArticleSegment == "" {
		return fmt.Errorf("discovery.article_segment must not be empty")
	}

	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}
	switch cfg.Fetcher.ProxyRotation {
	case "", "round_robin", "random":
	default:
		return fmt.Errorf("fetcher.proxy_rotation must be 'round_robin' or 'random', got %q", cfg.Fetcher.ProxyRotation)
	}
	for _, p := range cfg.Fetcher.ProxyURLs {
		if err := ValidateURL(p); err != nil {
			return fmt.Errorf("fetcher.proxy_urls: %w", err)
		}
	}

	if cfg.Browser.NavigationTimeout <= 0 {
		return fmt.Errorf("browser.navigation_timeout must be > 0")
	}

	if cfg.Search.Engine != "duckduckgo" {
		return fmt.Errorf("search.engine %q is not supported (valid: duckduckgo)", cfg.Search.Engine)
	}
	if err := ValidateURL(cfg.Search.BaseURL); err != nil {
		return fmt.Errorf("search.base_url: %w", err)
	}
	if cfg.Search.MaxResults < 1 {
		return fmt.Errorf("search.max_results must be >= 1, got %d", cfg.Search.MaxResults)
	}
	if cfg.Search.Renderer != "browser" && cfg.Search.Renderer != "http" {
		return fmt.Errorf("search.renderer must be 'browser' or 'http', got %q", cfg.Search.Renderer)
	}

	if len(cfg.Extract.ContentRules) == 0 {
		return fmt.Errorf("extract.content_rules must not be empty")
	}
	for i, rule := range cfg.Extract.ContentRules {
		switch rule.Type {
		case "css", "xpath":
			if rule.Selector == "" {
				return fmt.Errorf("extract.content_rules[%d]: selector is required for %s", i, rule.Type)
			}
		case "readability":
		default:
			return fmt.Errorf("extract.content_rules[%d]: type must be css/xpath/readability, got %q", i, rule.Type)
		}
	}
	if cfg.Extract.ReferenceMaxChars < 1 {
		return fmt.Errorf("extract.reference_max_chars must be >= 1, got %d", cfg.Extract.ReferenceMaxChars)
	}

	if cfg.Enhance.MinReferenceChars < 0 {
		return fmt.Errorf("enhance.min_reference_chars must be >= 0")
	}
	if cfg.Enhance.ContentPrefixChars < 1 {
		return fmt.Errorf("enhance.content_prefix_chars must be >= 1")
	}
	if cfg.Enhance.Delay < 0 {
		return fmt.Errorf("enhance.delay must be >= 0")
	}
	if cfg.Enhance.Limit < 0 {
		return fmt.Errorf("enhance.limit must be >= 0")
	}

	switch cfg.AI.Provider {
	case "openai", "ollama", "custom":
	default:
		return fmt.Errorf("ai.provider must be openai/ollama/custom, got %q", cfg.AI.Provider)
	}
	if cfg.AI.Provider != "openai" && cfg.AI.Endpoint != "" {
		if err := ValidateURL(cfg.AI.Endpoint); err != nil {
			return fmt.Errorf("ai.endpoint: %w", err)
		}
	}
	if cfg.AI.Temperature < 0 || cfg.AI.Temperature > 2 {
		return fmt.Errorf("ai.temperature must be within [0, 2], got %v", cfg.AI.Temperature)
	}

	switch cfg.Storage.Type {
	case "api":
		if err := ValidateURL(cfg.Storage.APIURL); err != nil {
			return fmt.Errorf("storage.api_url: %w", err)
		}
	case "sqlite", "postgres", "mongodb":
		if cfg.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for %s", cfg.Storage.Type)
		}
	default:
		return fmt.Errorf("storage.type %q is not supported (valid: api, sqlite, postgres, mongodb)", cfg.Storage.Type)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks if a URL string is an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
