package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from file, environment, and CLI flags.
// Priority (highest to lowest): CLI flags > env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("ARTICLEFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("articleforge")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".articleforge"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Conventional credential variables win only when nothing else set a key.
	if cfg.AI.APIKey == "" {
		for _, name := range []string{"LLM_API_KEY", "OPENAI_API_KEY"} {
			if key := os.Getenv(name); key != "" {
				cfg.AI.APIKey = key
				break
			}
		}
	}

	return cfg, nil
}

// Dump renders cfg as YAML with the API key redacted.
func Dump(cfg *Config) ([]byte, error) {
	redacted := *cfg
	if redacted.AI.APIKey != "" {
		redacted.AI.APIKey = "****"
	}
	out, err := yaml.Marshal(&redacted)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return out, nil
}

// setDefaults registers default values in viper so env overrides resolve.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("discovery.listing_url", cfg.Discovery.ListingURL)
	v.SetDefault("discovery.page_url_template", cfg.Discovery.PageURLTemplate)
	v.SetDefault("discovery.last_page", cfg.Discovery.LastPage)
	v.SetDefault("discovery.batch_size", cfg.Discovery.BatchSize)
	v.SetDefault("discovery.max_pages", cfg.Discovery.MaxPages)
	v.SetDefault("discovery.article_segment", cfg.Discovery.ArticleSegment)
	v.SetDefault("discovery.exclude_segments", cfg.Discovery.ExcludeSegments)

	v.SetDefault("fetcher.request_timeout", cfg.Fetcher.RequestTimeout)
	v.SetDefault("fetcher.follow_redirects", cfg.Fetcher.FollowRedirects)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.tls_insecure", cfg.Fetcher.TLSInsecure)
	v.SetDefault("fetcher.idle_conn_timeout", cfg.Fetcher.IdleConnTimeout)
	v.SetDefault("fetcher.max_idle_conns", cfg.Fetcher.MaxIdleConns)
	v.SetDefault("fetcher.user_agents", cfg.Fetcher.UserAgents)
	v.SetDefault("fetcher.proxy_urls", cfg.Fetcher.ProxyURLs)
	v.SetDefault("fetcher.proxy_rotation", cfg.Fetcher.ProxyRotation)

	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.bin", cfg.Browser.Bin)
	v.SetDefault("browser.no_sandbox", cfg.Browser.NoSandbox)
	v.SetDefault("browser.stealth", cfg.Browser.Stealth)
	v.SetDefault("browser.navigation_timeout", cfg.Browser.NavigationTimeout)
	v.SetDefault("browser.user_agent", cfg.Browser.UserAgent)
	v.SetDefault("browser.window_width", cfg.Browser.WindowWidth)
	v.SetDefault("browser.window_height", cfg.Browser.WindowHeight)

	v.SetDefault("search.engine", cfg.Search.Engine)
	v.SetDefault("search.base_url", cfg.Search.BaseURL)
	v.SetDefault("search.max_results", cfg.Search.MaxResults)
	v.SetDefault("search.renderer", cfg.Search.Renderer)

	v.SetDefault("extract.reference_max_chars", cfg.Extract.ReferenceMaxChars)

	v.SetDefault("enhance.min_reference_chars", cfg.Enhance.MinReferenceChars)
	v.SetDefault("enhance.content_prefix_chars", cfg.Enhance.ContentPrefixChars)
	v.SetDefault("enhance.delay", cfg.Enhance.Delay)
	v.SetDefault("enhance.limit", cfg.Enhance.Limit)
	v.SetDefault("enhance.retry_fallback", cfg.Enhance.RetryFallback)

	v.SetDefault("ai.provider", cfg.AI.Provider)
	v.SetDefault("ai.model", cfg.AI.Model)
	v.SetDefault("ai.endpoint", cfg.AI.Endpoint)
	v.SetDefault("ai.api_key", cfg.AI.APIKey)
	v.SetDefault("ai.max_tokens", cfg.AI.MaxTokens)
	v.SetDefault("ai.temperature", cfg.AI.Temperature)
	v.SetDefault("ai.timeout", cfg.AI.Timeout)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.api_url", cfg.Storage.APIURL)
	v.SetDefault("storage.dsn", cfg.Storage.DSN)
	v.SetDefault("storage.database", cfg.Storage.Database)
	v.SetDefault("storage.collection", cfg.Storage.Collection)

	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.static_dir", cfg.Server.StaticDir)
	v.SetDefault("server.cors_origin", cfg.Server.CORSOrigin)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
