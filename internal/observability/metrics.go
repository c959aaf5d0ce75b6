package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/IshaanNene/ArticleForge/internal/types"
)

// Metrics holds the pipeline's Prometheus collectors. A nil *Metrics is
// valid and records nothing, so components can take one unconditionally.
type Metrics struct {
	registry *prometheus.Registry

	ArticlesDiscovered prometheus.Counter
	Outcomes           *prometheus.CounterVec
	FetchDuration      *prometheus.HistogramVec
	LLMRequests        *prometheus.CounterVec

	logger *slog.Logger
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics(logger *slog.Logger) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ArticlesDiscovered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "articleforge_articles_discovered_total",
			Help: "Article URLs selected by discovery",
		}),
		Outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "articleforge_outcomes_total",
			Help: "Per-article run outcomes",
		}, []string{"run", "kind"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "articleforge_fetch_duration_seconds",
			Help:    "Page fetch duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"fetcher"}),
		LLMRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "articleforge_llm_requests_total",
			Help: "Generative service calls by provider and result",
		}, []string{"provider", "result"}),
		logger: logger.With("component", "metrics"),
	}

	m.registry.MustRegister(
		m.ArticlesDiscovered,
		m.Outcomes,
		m.FetchDuration,
		m.LLMRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Discovered adds n selected article URLs.
func (m *Metrics) Discovered(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ArticlesDiscovered.Add(float64(n))
}

// RecordReport counts every outcome in a finished run.
func (m *Metrics) RecordReport(r *types.Report) {
	if m == nil || r == nil {
		return
	}
	for _, o := range r.Outcomes {
		m.Outcomes.WithLabelValues(r.Run, string(o.Kind)).Inc()
	}
}

// ObserveFetch records one fetch. It matches fetcher.ObserveFunc.
func (m *Metrics) ObserveFetch(fetcherType string, d time.Duration, _ error) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(fetcherType).Observe(d.Seconds())
}

// ObserveLLM records one generative call.
func (m *Metrics) ObserveLLM(provider string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
		if errors.Is(err, types.ErrNoCredential) {
			result = "no_credential"
		}
	}
	m.LLMRequests.WithLabelValues(provider, result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Server is a standalone metrics listener.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// StartServer starts the metrics HTTP server in the background.
func (m *Metrics) StartServer(port int, path string) *Server {
	if m == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	s := &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: m.logger,
	}
	s.logger.Info("metrics server starting", "addr", s.srv.Addr, "path", path)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server error", "error", err)
		}
	}()
	return s
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
