package model

import "time"

// RunReport is the complete outcome of one reconciliation run. Everything
// non-fatal that happened during the run accumulates here; only load
// failures abort before a report exists.
type RunReport struct {
	RunID     string    `json:"run_id"`     // ULID, unique per run
	Store     string    `json:"store"`      // canonical store path
	StartedAt time.Time `json:"started_at"` // UTC
	DryRun    bool      `json:"dry_run"`

	Sources []SourceReport `json:"sources"` // per-adapter breakdown, in application order

	Applied          int `json:"applied"`           // proposals written into the dataset
	RejectedConflict int `json:"rejected_conflict"` // target field already non-empty
	RejectedInvalid  int `json:"rejected_invalid"`  // failed date/category/URL validation

	Rejections   []Rejection  `json:"rejections,omitempty"`    // full audit trail
	Ambiguities  []Ambiguity  `json:"ambiguities,omitempty"`   // unresolved source rows
	Violations   []Violation  `json:"violations,omitempty"`    // checker findings after merge
	Suggestions  []Suggestion `json:"suggestions,omitempty"`   // minimal status fixes
	FixesApplied []Suggestion `json:"fixes_applied,omitempty"` // suggestions confirmed via --fix

	Changed bool `json:"changed"` // whether the dataset differs from what was loaded
}

// SourceReport is the per-adapter slice of the run counts
type SourceReport struct {
	Source           string `json:"source"`
	Proposals        int    `json:"proposals"`
	Applied          int    `json:"applied"`
	RejectedConflict int    `json:"rejected_conflict"`
	RejectedInvalid  int    `json:"rejected_invalid"`
	Ambiguous        int    `json:"ambiguous"`
}

// Rejection is one proposal the merge engine refused. Kept verbatim so a
// human can audit what each source tried to write.
type Rejection struct {
	Name     string `json:"name"`
	Column   string `json:"column"`
	OldValue string `json:"old_value,omitempty"` // non-empty for conflict rejections
	Proposed string `json:"proposed"`
	Source   string `json:"source"`
	Reason   string `json:"reason"` // "target not empty" or the validation failure
}

// Violation is one invariant the checker found broken
type Violation struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Rule   string `json:"rule"`   // stable rule id, e.g. "held-has-release-date"
	Detail string `json:"detail"` // human-readable finding
}

// Suggestion is the minimal status change that would resolve a violation.
// Never applied without explicit confirmation.
type Suggestion struct {
	Name       string `json:"name"`
	FromStatus Status `json:"from_status"`
	ToStatus   Status `json:"to_status"`
	Rule       string `json:"rule"`   // the violation rule this resolves
	Reason     string `json:"reason"`
}

// CitationReport is the outcome of a citation verification pass. Read-only
// with respect to the store.
type CitationReport struct {
	RunID     string    `json:"run_id"`
	Store     string    `json:"store"`
	StartedAt time.Time `json:"started_at"`

	URLsChecked int `json:"urls_checked"`
	Dead        int `json:"dead"`
	Redirected  int `json:"redirected"`
	Stale       int `json:"stale"`

	Results []CitationResult `json:"results"`
}

// CitationResult is the verification outcome for one distinct citation URL
type CitationResult struct {
	URL          string     `json:"url"`
	Records      []string   `json:"records"` // canonical keys citing this URL
	IsAccessible bool       `json:"is_accessible"`
	StatusCode   int        `json:"status_code,omitempty"`
	IsDead       bool       `json:"is_dead"` // 404, 410, or unreachable after retries
	IsStale      bool       `json:"is_stale"` // Last-Modified more than a year old
	RedirectURL  string     `json:"redirect_url,omitempty"`
	LastModified *time.Time `json:"last_modified,omitempty"`
	Skipped      string     `json:"skipped,omitempty"` // e.g. "robots.txt disallows"
	Error        string     `json:"error,omitempty"`
}
