package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/IshaanNene/ArticleForge/internal/ai"
	"github.com/IshaanNene/ArticleForge/internal/discovery"
	"github.com/IshaanNene/ArticleForge/internal/observability"
	"github.com/IshaanNene/ArticleForge/internal/types"
)

// Stage names the step an article is in, logged as the "stage" attribute.
type Stage string

const (
	StageFetching   Stage = "fetching"
	StageSearching  Stage = "searching"
	StageScraping   Stage = "scraping"
	StageGenerating Stage = "generating"
	StagePersisting Stage = "persisting"
	StageDone       Stage = "done"
)

// Discoverer selects article URLs for a scrape run.
type Discoverer interface {
	Discover(ctx context.Context, opts discovery.Options) ([]string, error)
}

// Rewriter turns an article plus references into new content.
type Rewriter interface {
	Rewrite(ctx context.Context, title, content string, refs []types.Reference) ai.Rewrite
}

// Option configures a Harvester or Enhancer.
type Option func(*runner)

// WithMetrics records run outcomes on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *runner) { r.metrics = m }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *runner) { r.now = now }
}

// runner holds what both run kinds share.
type runner struct {
	metrics *observability.Metrics
	now     func() time.Time
	logger  *slog.Logger
}

func newRunner(logger *slog.Logger, opts []Option) runner {
	r := runner{now: time.Now, logger: logger}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// begin starts a report and a logger tagged with its run id.
func (r *runner) begin(run string) (*types.Report, *slog.Logger) {
	report := &types.Report{
		RunID:   uuid.NewString(),
		Run:     run,
		Started: r.now(),
	}
	return report, r.logger.With("run", run, "run_id", report.RunID)
}

func (r *runner) finish(report *types.Report, logger *slog.Logger) {
	report.Finished = r.now()
	r.metrics.RecordReport(report)
	logger.Info("run complete",
		"stage", StageDone,
		"processed", report.Processed(),
		"skipped", report.Count(types.OutcomeSkipped),
		"failed", report.Count(types.OutcomeFailed),
		"elapsed", report.Elapsed().Round(time.Millisecond),
	)
}

// guard converts a panic inside one item's processing into a failed outcome.
func guard(subject string, fn func() types.Outcome) (out types.Outcome) {
	defer func() {
		if v := recover(); v != nil {
			out = types.Outcome{
				Subject: subject,
				Kind:    types.OutcomeFailed,
				Reason:  "panic",
				Err:     fmt.Errorf("panic: %v", v),
			}
		}
	}()
	return fn()
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
