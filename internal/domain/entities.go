package domain

import "time"

// RawMessage is an immutable snapshot of the newest message in a mail thread.
// The mail system stays the source of truth; state transitions go through
// MailSource, never through this value.
type RawMessage struct {
	ThreadID   string
	Subject    string
	Body       string
	ReceivedAt time.Time
	Permalink  string
}

// SectionText is one named long-text field extracted from a message body.
// Order matters: sections are persisted in rule order.
type SectionText struct {
	Name string
	Text string
}

// Record is the canonical extracted entity, consumed by exactly one
// CreatePage call and then discarded. LogicalKey (the thread permalink)
// is the deduplication identity: at steady state at most one non-archived
// page exists per key.
type Record struct {
	Profile       string
	LogicalKey    string
	PublishedDate string
	Title         string
	Sections      []SectionText
	Companies     []string
	Kind          string
	FullBody      string
	// AttachBody appends the full body as chunked page content.
	AttachBody bool
	ReceivedAt time.Time
}

// PageRef identifies a page created in the document store.
type PageRef struct {
	ID  string
	URL string
}

// PageSummary is the read model used by the dedup maintainer. Pages whose
// LogicalKey is empty are never grouped and never archived.
type PageSummary struct {
	ID          string
	LogicalKey  string
	CreatedTime time.Time
}

// CreatedItem is one persisted record reported in the run summary.
type CreatedItem struct {
	Title   string
	PageURL string
}

// RunReport aggregates the outcome of a single sync run across profiles.
type RunReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Selected   int
	Created    []CreatedItem
	Failed     int
}

// MaintenanceReport aggregates the outcome of a single dedup run.
type MaintenanceReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Fetched    int
	Duplicates int
	Archived   int
}
