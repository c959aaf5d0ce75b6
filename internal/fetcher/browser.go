package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/ArticleForge/internal/config"
	"github.com/IshaanNene/ArticleForge/internal/types"
)

// browserSession is one launched browser. It is opened per fetch and must
// be closed on every exit path.
type browserSession interface {
	Load(ctx context.Context, target string) (html string, finalURL string, err error)
	Close() error
}

type launchFunc func(ctx context.Context) (browserSession, error)

// BrowserFetcher implements Fetcher by driving a headless Chromium via Rod.
// Each Fetch launches its own browser and tears it down before returning,
// so no process outlives the call that needed it.
type BrowserFetcher struct {
	cfg    *config.BrowserConfig
	launch launchFunc
	logger *slog.Logger
}

// NewBrowserFetcher creates a new headless browser fetcher.
func NewBrowserFetcher(cfg *config.BrowserConfig, logger *slog.Logger) *BrowserFetcher {
	return &BrowserFetcher{
		cfg:    cfg,
		launch: rodLauncher(cfg),
		logger: logger.With("component", "browser_fetcher"),
	}
}

// Fetch navigates to a URL and returns the rendered DOM.
func (bf *BrowserFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	start := time.Now()

	session, err := bf.launch(ctx)
	if err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err, Retryable: true}
	}
	defer func() {
		if err := session.Close(); err != nil {
			bf.logger.Warn("browser close failed", "url", req.URLString(), "error", err)
		}
	}()

	html, finalURL, err := session.Load(ctx, req.URLString())
	if err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err, Retryable: true}
	}
	if finalURL == "" {
		finalURL = req.URLString()
	}

	duration := time.Since(start)
	resp := types.NewBrowserResponse(req, []byte(html), finalURL, duration)

	bf.logger.Debug("browser fetch complete",
		"url", req.URLString(),
		"final_url", finalURL,
		"size", len(html),
		"duration", duration,
	)

	return resp, nil
}

// Close is a no-op: sessions are released per fetch.
func (bf *BrowserFetcher) Close() error {
	return nil
}

// Type returns the fetcher type identifier.
func (bf *BrowserFetcher) Type() string {
	return "browser"
}

// rodLauncher returns a launchFunc that starts Chromium with the configured
// flags and connects to it.
func rodLauncher(cfg *config.BrowserConfig) launchFunc {
	return func(ctx context.Context) (browserSession, error) {
		l := launcher.New().
			Context(ctx).
			Headless(cfg.Headless).
			Set("disable-gpu").
			Set("disable-dev-shm-usage").
			Set("disable-blink-features", "AutomationControlled")

		if cfg.NoSandbox {
			l = l.Set("no-sandbox").Set("disable-setuid-sandbox")
		}
		if cfg.Bin != "" {
			l = l.Bin(cfg.Bin)
		}
		if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
			l = l.Set("window-size", fmt.Sprintf("%d,%d", cfg.WindowWidth, cfg.WindowHeight))
		}

		controlURL, err := l.Launch()
		if err != nil {
			l.Cleanup()
			return nil, fmt.Errorf("launch browser: %w", err)
		}

		browser := rod.New().ControlURL(controlURL).Context(ctx)
		if err := browser.Connect(); err != nil {
			l.Kill()
			l.Cleanup()
			return nil, fmt.Errorf("connect browser: %w", err)
		}

		return &rodSession{launcher: l, browser: browser, cfg: cfg}, nil
	}
}

type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	cfg      *config.BrowserConfig
}

// Load opens a tab, waits for DOMContentLoaded and returns the serialized DOM.
func (s *rodSession) Load(ctx context.Context, target string) (string, string, error) {
	var (
		page *rod.Page
		err  error
	)
	if s.cfg.Stealth {
		page, err = stealth.Page(s.browser)
	} else {
		page, err = s.browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return "", "", fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	p := page.Context(ctx)
	if s.cfg.NavigationTimeout > 0 {
		p = p.Timeout(s.cfg.NavigationTimeout)
		defer p.CancelTimeout()
	}

	if s.cfg.UserAgent != "" {
		if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: s.cfg.UserAgent}); err != nil {
			return "", "", fmt.Errorf("set user agent: %w", err)
		}
	}

	wait := p.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := p.Navigate(target); err != nil {
		return "", "", fmt.Errorf("navigate: %w", err)
	}
	wait()

	html, err := p.HTML()
	if err != nil {
		return "", "", fmt.Errorf("read DOM: %w", err)
	}

	finalURL := target
	if info, err := p.Info(); err == nil && info != nil && info.URL != "" {
		finalURL = info.URL
	}

	return html, finalURL, nil
}

// Close shuts the browser down and kills the process if that fails.
func (s *rodSession) Close() error {
	err := s.browser.Close()
	if err != nil {
		s.launcher.Kill()
	}
	s.launcher.Cleanup()
	return err
}
