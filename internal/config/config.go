package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for ArticleForge.
type Config struct {
	Discovery DiscoveryConfig `mapstructure:"discovery" yaml:"discovery"`
	Fetcher   FetcherConfig   `mapstructure:"fetcher"   yaml:"fetcher"`
	Browser   BrowserConfig   `mapstructure:"browser"   yaml:"browser"`
	Search    SearchConfig    `mapstructure:"search"    yaml:"search"`
	Extract   ExtractConfig   `mapstructure:"extract"   yaml:"extract"`
	Enhance   EnhanceConfig   `mapstructure:"enhance"   yaml:"enhance"`
	AI        AIConfig        `mapstructure:"ai"        yaml:"ai"`
	Storage   StorageConfig   `mapstructure:"storage"   yaml:"storage"`
	Server    ServerConfig    `mapstructure:"server"    yaml:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"   yaml:"metrics"`
}

// DiscoveryConfig controls the paginated listing walk.
type DiscoveryConfig struct {
	ListingURL      string   `mapstructure:"listing_url"       yaml:"listing_url"`
	PageURLTemplate string   `mapstructure:"page_url_template" yaml:"page_url_template"`
	LastPage        int      `mapstructure:"last_page"         yaml:"last_page"`
	BatchSize       int      `mapstructure:"batch_size"        yaml:"batch_size"`
	MaxPages        int      `mapstructure:"max_pages"         yaml:"max_pages"`
	ArticleSegment  string   `mapstructure:"article_segment"   yaml:"article_segment"`
	ExcludeSegments []string `mapstructure:"exclude_segments"  yaml:"exclude_segments"`
}

// FetcherConfig controls the static HTTP fetcher.
type FetcherConfig struct {
	RequestTimeout  time.Duration `mapstructure:"request_timeout"   yaml:"request_timeout"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	UserAgents      []string      `mapstructure:"user_agents"       yaml:"user_agents"`
	ProxyURLs       []string      `mapstructure:"proxy_urls"        yaml:"proxy_urls"`
	ProxyRotation   string        `mapstructure:"proxy_rotation"    yaml:"proxy_rotation"` // round_robin, random
}

// BrowserConfig controls the headless page renderer.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless"           yaml:"headless"`
	Bin               string        `mapstructure:"bin"                yaml:"bin"`
	NoSandbox         bool          `mapstructure:"no_sandbox"         yaml:"no_sandbox"`
	Stealth           bool          `mapstructure:"stealth"            yaml:"stealth"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	UserAgent         string        `mapstructure:"user_agent"         yaml:"user_agent"`
	WindowWidth       int           `mapstructure:"window_width"       yaml:"window_width"`
	WindowHeight      int           `mapstructure:"window_height"      yaml:"window_height"`
}

// SearchConfig controls the reference search stage.
type SearchConfig struct {
	Engine     string `mapstructure:"engine"      yaml:"engine"`
	BaseURL    string `mapstructure:"base_url"    yaml:"base_url"`
	MaxResults int    `mapstructure:"max_results" yaml:"max_results"`
	Renderer   string `mapstructure:"renderer"    yaml:"renderer"` // browser, http
}

// ExtractConfig controls article and reference extraction.
type ExtractConfig struct {
	ContentRules      []ParseRule `mapstructure:"content_rules"       yaml:"content_rules"`
	ReferenceMaxChars int         `mapstructure:"reference_max_chars" yaml:"reference_max_chars"`
}

// ParseRule defines a single content extraction strategy.
type ParseRule struct {
	Name     string `mapstructure:"name"     yaml:"name"`
	Selector string `mapstructure:"selector" yaml:"selector"`
	Type     string `mapstructure:"type"     yaml:"type"` // css, xpath, readability
}

// EnhanceConfig controls the enhancement run.
type EnhanceConfig struct {
	MinReferenceChars  int           `mapstructure:"min_reference_chars"  yaml:"min_reference_chars"`
	ContentPrefixChars int           `mapstructure:"content_prefix_chars" yaml:"content_prefix_chars"`
	Delay              time.Duration `mapstructure:"delay"                yaml:"delay"`
	Limit              int           `mapstructure:"limit"                yaml:"limit"`
	RetryFallback      bool          `mapstructure:"retry_fallback"       yaml:"retry_fallback"`
}

// AIConfig controls LLM integration.
type AIConfig struct {
	Provider    string        `mapstructure:"provider"    yaml:"provider"`
	Model       string        `mapstructure:"model"       yaml:"model"`
	Endpoint    string        `mapstructure:"endpoint"    yaml:"endpoint"`
	APIKey      string        `mapstructure:"api_key"     yaml:"api_key"`
	MaxTokens   int           `mapstructure:"max_tokens"  yaml:"max_tokens"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"     yaml:"timeout"`
}

// StorageConfig selects and configures the article store.
type StorageConfig struct {
	Type       string `mapstructure:"type"       yaml:"type"` // api, sqlite, postgres, mongodb
	APIURL     string `mapstructure:"api_url"    yaml:"api_url"`
	DSN        string `mapstructure:"dsn"        yaml:"dsn"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
}

// ServerConfig controls the storage service.
type ServerConfig struct {
	Addr       string `mapstructure:"addr"        yaml:"addr"`
	StaticDir  string `mapstructure:"static_dir"  yaml:"static_dir"`
	CORSOrigin string `mapstructure:"cors_origin" yaml:"cors_origin"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Discovery: DiscoveryConfig{
			ListingURL:      "https://beyondchats.com/blogs/",
			PageURLTemplate: "https://beyondchats.com/blogs/page/{page}/",
			LastPage:        0,
			BatchSize:       5,
			MaxPages:        2,
			ArticleSegment:  "blogs",
			ExcludeSegments: []string{"tag", "category", "page", "author"},
		},
		Fetcher: FetcherConfig{
			RequestTimeout:  10 * time.Second,
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    100,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			},
			ProxyRotation: "round_robin",
		},
		Browser: BrowserConfig{
			Headless:          true,
			NoSandbox:         true,
			Stealth:           true,
			NavigationTimeout: 30 * time.Second,
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			WindowWidth:       1920,
			WindowHeight:      1080,
		},
		Search: SearchConfig{
			Engine:     "duckduckgo",
			BaseURL:    "https://html.duckduckgo.com/html/",
			MaxResults: 2,
			Renderer:   "browser",
		},
		Extract: ExtractConfig{
			ContentRules: []ParseRule{
				{Name: "rich-text", Selector: ".rich-text-block", Type: "css"},
				{Name: "entry-content", Selector: ".entry-content", Type: "css"},
				{Name: "article", Selector: "article", Type: "css"},
			},
			ReferenceMaxChars: 3000,
		},
		Enhance: EnhanceConfig{
			MinReferenceChars:  100,
			ContentPrefixChars: 2000,
			Delay:              time.Second,
		},
		AI: AIConfig{
			Provider:    "openai",
			Model:       "gpt-3.5-turbo",
			MaxTokens:   1500,
			Temperature: 0.7,
			Timeout:     60 * time.Second,
		},
		Storage: StorageConfig{
			Type:       "api",
			APIURL:     "http://localhost:3000/api",
			DSN:        "articles.db",
			Database:   "articleforge",
			Collection: "articles",
		},
		Server: ServerConfig{
			Addr:       ":3000",
			CORSOrigin: "*",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
