package dispatch

import "time"

// FailureCategory separates publish failures from store write failures.
// Persistence failures matter operationally: the publish attempt may have
// succeeded on the platform without being recorded locally.
type FailureCategory string

const (
	CategoryPublish     FailureCategory = "publish"
	CategoryPersistence FailureCategory = "persistence"
)

type Failure struct {
	ID       string          `json:"id"`
	Category FailureCategory `json:"category"`
	Message  string          `json:"message"`
}

// Report summarizes one dispatch cycle. Per-post failures are enumerated
// here instead of aborting the cycle.
type Report struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Attempted int           `json:"attempted"`
	Published int           `json:"published"`
	Retried   int           `json:"retried"`
	Cancelled int           `json:"cancelled"`
	Skipped   int           `json:"skipped"`
	Failures  []Failure     `json:"failures,omitempty"`
}

func (r *Report) record(o outcome) {
	if o.kind != outcomeSkipped {
		r.Attempted++
	}
	switch o.kind {
	case outcomePublished:
		r.Published++
	case outcomeRetried:
		r.Retried++
	case outcomeCancelled:
		r.Cancelled++
	case outcomeSkipped:
		r.Skipped++
	}
	if o.failure != nil {
		r.Failures = append(r.Failures, *o.failure)
	}
}

type outcomeKind int

const (
	outcomePublished outcomeKind = iota
	outcomeRetried
	outcomeCancelled
	outcomeSkipped
	outcomeFailed
)

type outcome struct {
	kind    outcomeKind
	failure *Failure
}
