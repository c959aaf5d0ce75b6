package observability

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/IshaanNene/ArticleForge/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestRecordReport(t *testing.T) {
	m := NewMetrics(testLogger)

	r := &types.Report{Run: "enhance"}
	r.Add(types.Outcome{Kind: types.OutcomeEnhanced})
	r.Add(types.Outcome{Kind: types.OutcomeSkipped})
	r.Add(types.Outcome{Kind: types.OutcomeSkipped})
	m.RecordReport(r)
	m.Discovered(5)

	out := scrape(t, m)
	for _, want := range []string{
		`articleforge_outcomes_total{kind="skipped",run="enhance"} 2`,
		`articleforge_outcomes_total{kind="enhanced",run="enhance"} 1`,
		`articleforge_articles_discovered_total 5`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output", want)
		}
	}
}

func TestObserveLLM(t *testing.T) {
	m := NewMetrics(testLogger)
	m.ObserveLLM("openai", nil)
	m.ObserveLLM("openai", fmt.Errorf("wrap: %w", types.ErrNoCredential))
	m.ObserveLLM("openai", errors.New("boom"))

	out := scrape(t, m)
	for _, result := range []string{"ok", "no_credential", "error"} {
		want := fmt.Sprintf(`articleforge_llm_requests_total{provider="openai",result="%s"} 1`, result)
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output", want)
		}
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics(testLogger)
	m.ObserveFetch("http", 250*time.Millisecond, nil)

	if out := scrape(t, m); !strings.Contains(out, `articleforge_fetch_duration_seconds_count{fetcher="http"} 1`) {
		t.Errorf("fetch histogram missing from output:\n%s", out)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Discovered(3)
	m.RecordReport(&types.Report{})
	m.ObserveFetch("http", time.Second, nil)
	m.ObserveLLM("openai", nil)
	if s := m.StartServer(0, "/metrics"); s != nil {
		t.Error("expected nil server")
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 404 {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
