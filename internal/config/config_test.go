package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"batch size", func(c *Config) { c.Discovery.BatchSize = 0 }, "batch_size"},
		{"template", func(c *Config) { c.Discovery.PageURLTemplate = "https://x.com/page/" }, "{page}"},
		{"renderer", func(c *Config) { c.Search.Renderer = "curl" }, "search.renderer"},
		{"rule type", func(c *Config) { c.Extract.ContentRules = []ParseRule{{Type: "regex"}} }, "content_rules[0]"},
		{"xpath selector", func(c *Config) { c.Extract.ContentRules = []ParseRule{{Type: "xpath"}} }, "selector is required"},
		{"provider", func(c *Config) { c.AI.Provider = "bard" }, "ai.provider"},
		{"storage", func(c *Config) { c.Storage.Type = "redis" }, "storage.type"},
		{"sql dsn", func(c *Config) { c.Storage.Type = "sqlite"; c.Storage.DSN = "" }, "storage.dsn"},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "articleforge.yaml")
	content := `
discovery:
  batch_size: 3
  last_page: 15
enhance:
  delay: 250ms
storage:
  type: sqlite
  dsn: test.db
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ARTICLEFORGE_SEARCH_MAX_RESULTS", "4")
	t.Setenv("ARTICLEFORGE_AI_API_KEY", "")
	t.Setenv("LLM_API_KEY", "sk-test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Discovery.BatchSize != 3 || cfg.Discovery.LastPage != 15 {
		t.Errorf("file values not applied: %+v", cfg.Discovery)
	}
	if cfg.Discovery.MaxPages != 2 {
		t.Errorf("expected default max_pages 2, got %d", cfg.Discovery.MaxPages)
	}
	if cfg.Enhance.Delay != 250*time.Millisecond {
		t.Errorf("expected 250ms delay, got %v", cfg.Enhance.Delay)
	}
	if cfg.Search.MaxResults != 4 {
		t.Errorf("expected env override 4, got %d", cfg.Search.MaxResults)
	}
	if cfg.AI.APIKey != "sk-test" {
		t.Errorf("expected key from LLM_API_KEY, got %q", cfg.AI.APIKey)
	}
	if cfg.Storage.Type != "sqlite" || cfg.Storage.DSN != "test.db" {
		t.Errorf("unexpected storage config: %+v", cfg.Storage)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestDumpRedactsKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AI.APIKey = "sk-secret"

	out, err := Dump(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(out), "sk-secret") {
		t.Error("dump leaked the API key")
	}
	if !strings.Contains(string(out), "batch_size: 5") {
		t.Errorf("dump missing discovery settings:\n%s", out)
	}
	if cfg.AI.APIKey != "sk-secret" {
		t.Error("dump mutated the config")
	}
}
