package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/IshaanNene/ArticleForge/internal/config"
	"github.com/IshaanNene/ArticleForge/internal/types"
)

// LLMProvider specifies which LLM backend to use.
type LLMProvider string

const (
	ProviderOllama LLMProvider = "ollama"
	ProviderOpenAI LLMProvider = "openai"
	ProviderCustom LLMProvider = "custom"
)

// ErrEmptyCompletion is returned when the model answers with no text.
var ErrEmptyCompletion = errors.New("empty completion")

// LLMClient communicates with an LLM for article rewriting.
type LLMClient struct {
	cfg     *config.AIConfig
	client  *http.Client
	openai  *openai.Client
	observe func(provider string, err error)
	logger  *slog.Logger
}

// LLMOption configures the LLMClient.
type LLMOption func(*LLMClient)

// WithHTTPClient replaces the HTTP client used for every provider.
func WithHTTPClient(c *http.Client) LLMOption {
	return func(lc *LLMClient) { lc.client = c }
}

// WithObserver reports the outcome of every generate call.
func WithObserver(fn func(provider string, err error)) LLMOption {
	return func(lc *LLMClient) { lc.observe = fn }
}

// NewLLMClient creates a new LLM client.
func NewLLMClient(cfg *config.AIConfig, logger *slog.Logger, opts ...LLMOption) *LLMClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	c := &LLMClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger.With("component", "llm_client", "provider", cfg.Provider),
	}
	for _, opt := range opts {
		opt(c)
	}

	if LLMProvider(cfg.Provider) == ProviderOpenAI && cfg.APIKey != "" {
		oc := openai.DefaultConfig(cfg.APIKey)
		if cfg.Endpoint != "" {
			oc.BaseURL = strings.TrimRight(cfg.Endpoint, "/")
		}
		oc.HTTPClient = c.client
		c.openai = openai.NewClientWithConfig(oc)
	}

	return c
}

// Configured reports whether the client has what it needs to call its
// provider. OpenAI needs an API key; self-hosted providers need an endpoint.
func (c *LLMClient) Configured() bool {
	switch LLMProvider(c.cfg.Provider) {
	case ProviderOpenAI:
		return c.cfg.APIKey != ""
	case ProviderOllama, ProviderCustom:
		return c.cfg.Endpoint != ""
	default:
		return false
	}
}

// Generate sends a prompt to the LLM and returns the response.
func (c *LLMClient) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", types.ErrNoCredential
	}

	start := time.Now()
	var (
		out string
		err error
	)
	switch LLMProvider(c.cfg.Provider) {
	case ProviderOllama:
		out, err = c.generateOllama(ctx, prompt)
	case ProviderOpenAI:
		out, err = c.generateOpenAI(ctx, prompt)
	case ProviderCustom:
		out, err = c.generateCustom(ctx, prompt)
	default:
		err = fmt.Errorf("unsupported LLM provider: %s", c.cfg.Provider)
	}

	if err == nil && strings.TrimSpace(out) == "" {
		err = ErrEmptyCompletion
	}
	if c.observe != nil {
		c.observe(c.cfg.Provider, err)
	}

	c.logger.Debug("generate complete",
		"model", c.cfg.Model,
		"prompt_len", len(prompt),
		"response_len", len(out),
		"duration", time.Since(start),
		"error", err,
	)
	return out, err
}

func (c *LLMClient) generateOpenAI(ctx context.Context, prompt string) (string, error) {
	resp, err := c.openai.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: float32(c.cfg.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in openai response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *LLMClient) generateOllama(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":  c.cfg.Model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]any{
			"temperature": c.cfg.Temperature,
			"num_predict": c.cfg.MaxTokens,
		},
	}

	respBody, err := c.post(ctx, strings.TrimRight(c.cfg.Endpoint, "/")+"/api/generate", payload)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}

	var result struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	return result.Response, nil
}

func (c *LLMClient) generateCustom(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"prompt": prompt,
		"model":  c.cfg.Model,
	}
	respBody, err := c.post(ctx, c.cfg.Endpoint, payload)
	if err != nil {
		return "", fmt.Errorf("custom request: %w", err)
	}
	return string(respBody), nil
}

// post sends payload as JSON and returns the body of a successful response.
func (c *LLMClient) post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return respBody, nil
}
