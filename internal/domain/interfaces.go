package domain

import (
	"context"
	"time"
)

// MailSource supplies unseen threads and records handled-state transitions.
type MailSource interface {
	// Search returns the newest message of every thread matching the query.
	Search(ctx context.Context, query string) ([]RawMessage, error)
	// MarkHandled labels the thread and marks it read so the next Search
	// no longer selects it.
	MarkHandled(ctx context.Context, threadID, label string) error
	// Reset strips the label and marks the threads unread again. Returns
	// the number of threads reset.
	Reset(ctx context.Context, label string) (int, error)
}

// PageStore wraps the document store bound to a single database.
type PageStore interface {
	CreatePage(ctx context.Context, rec Record) (PageRef, error)
	// QueryAll fetches every page summary, following cursors until the
	// store reports no more results. A failure mid-pagination fails the
	// whole call; callers must never act on a partial page set.
	QueryAll(ctx context.Context) ([]PageSummary, error)
	// Archive soft-deletes a page. Reversible at the store level.
	Archive(ctx context.Context, pageID string) error
}

// Notifier delivers a human-readable run summary. Best effort: callers log
// and swallow errors, never retry or escalate.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// RunGuard executes fn at most once per key within ttl. Advisory only;
// correctness does not depend on it.
type RunGuard interface {
	Once(key string, ttl time.Duration, fn func() error) error
}

// RunReportRepo persists run outcomes for auditing. Failures are logged by
// callers and never affect the pipeline outcome.
type RunReportRepo interface {
	RecordSyncRun(ctx context.Context, report RunReport) error
	RecordMaintenanceRun(ctx context.Context, report MaintenanceReport) error
}
