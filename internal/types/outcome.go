package types

import (
	"time"
)

// OutcomeKind classifies what happened to one item in a run.
type OutcomeKind string

const (
	OutcomeStored   OutcomeKind = "stored"
	OutcomeEnhanced OutcomeKind = "enhanced"
	OutcomeFallback OutcomeKind = "fallback"
	OutcomeSkipped  OutcomeKind = "skipped"
	OutcomeFailed   OutcomeKind = "failed"
)

// Outcome is the per-item result of a scrape or enhance run.
type Outcome struct {
	// Subject identifies the item: a URL for scrape runs, an article ID for
	// enhance runs.
	Subject   string
	ArticleID int64
	Title     string
	Kind      OutcomeKind
	Reason    string
	Err       error
}

// Report collects the outcomes of one run.
type Report struct {
	RunID    string
	Run      string
	Started  time.Time
	Finished time.Time
	Outcomes []Outcome
}

// Add appends an outcome.
func (r *Report) Add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
}

// Count returns how many outcomes have the given kind.
func (r *Report) Count(kind OutcomeKind) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == kind {
			n++
		}
	}
	return n
}

// Processed returns the number of items that were persisted.
func (r *Report) Processed() int {
	return r.Count(OutcomeStored) + r.Count(OutcomeEnhanced) + r.Count(OutcomeFallback)
}

// Elapsed returns the wall time of the run.
func (r *Report) Elapsed() time.Duration {
	if r.Finished.IsZero() {
		return time.Since(r.Started)
	}
	return r.Finished.Sub(r.Started)
}
