package model

import (
	"context"
	"time"
)

// Project is a single open listing from the Karlancer search API.
// Immutable once fetched; the poller owns it for one processing step.
type Project struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	MinBudget   int64   `json:"min_budget"`   // toman
	MaxBudget   int64   `json:"max_budget"`   // toman
	JobDuration int     `json:"job_duration"` // days
	Rate        float64 `json:"rate"`         // employer rating, 0 when absent
	Country     string  `json:"country"`      // city/location string
	URL         string  `json:"url"`          // relative to the site root
	Skills      []Skill `json:"skills"`
}

type Skill struct {
	Name string `json:"name"`
}

// ProjectDetail is the authoritative budget/duration from the detail endpoint.
type ProjectDetail struct {
	MinBudget   int64 `json:"min_budget"`
	MaxBudget   int64 `json:"max_budget"`
	JobDuration int   `json:"job_duration"`
}

// Analysis is the cleaned output of the external analyzer for one project.
type Analysis struct {
	ProjectID int64
	Text      string // cleaned stdout, noise lines removed
	File      string // path of the persisted analysis file
	Stars     int    // recommendation stars parsed from the text, 0 when absent
	Decision  string // "Take", "Skip" or "" when not stated
}

// Outcome is the per-project ledger record. Last write for an ID wins.
type Outcome struct {
	ProjectID    int64
	Title        string
	FetchedAt    time.Time
	Analyzed     bool
	Submitted    bool
	Detail       string // submit reason or error message
	AnalysisFile string
}

// Totals are the aggregate counters derived from the ledger.
type Totals struct {
	Fetched   int
	Analyzed  int
	Submitted int
	Failed    int
}

// SubmitResult reports what the submission gateway did for one project.
type SubmitResult struct {
	OK     bool
	Detail string // rejection reason or remote error, empty on success
}

// ProjectFetcher fetches the current set of open projects for a query.
type ProjectFetcher interface {
	FetchProjects(ctx context.Context, query string) ([]Project, error)
}

// SeenStore tracks which project IDs have been processed, for deduplication.
// An ID once marked seen is never reprocessed, across restarts included.
type SeenStore interface {
	HasSeen(projectID int64) (bool, error)
	MarkSeen(projectID int64) error
}

// Ledger records per-project outcomes and exposes aggregate counters.
type Ledger interface {
	Record(o Outcome) error
	Totals() (Totals, error)
}

// Analyzer runs the external analysis tool against one project.
type Analyzer interface {
	SaveInput(project Project) (string, error)
	Analyze(ctx context.Context, project Project) (*Analysis, error)
}

// Submitter turns an analysis into a bid and posts it. Never panics and never
// propagates transport errors; everything surfaces in the SubmitResult.
type Submitter interface {
	Submit(ctx context.Context, project Project, analysis *Analysis) SubmitResult
}

// Notifier relays a status message to the side channel. Failures are logged by
// implementations and never fatal to the loop.
type Notifier interface {
	Send(text string) error
}

// ProjectFilter decides whether a fetched project is worth processing at all.
type ProjectFilter interface {
	Match(project Project) bool
}
