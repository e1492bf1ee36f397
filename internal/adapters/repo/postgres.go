package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"mailclip/internal/domain"
)

// Postgres implements domain.RunReportRepo on pgxpool. It only audits run
// outcomes; the pipeline never reads this state back.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ domain.RunReportRepo = (*Postgres)(nil)

// NewPostgres creates the repository.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the audit tables when they do not exist yet.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sync_runs (
			id          uuid PRIMARY KEY,
			started_at  timestamptz NOT NULL,
			finished_at timestamptz NOT NULL,
			selected    int NOT NULL,
			created     int NOT NULL,
			failed      int NOT NULL
		);
		CREATE TABLE IF NOT EXISTS maintenance_runs (
			id          uuid PRIMARY KEY,
			started_at  timestamptz NOT NULL,
			finished_at timestamptz NOT NULL,
			fetched     int NOT NULL,
			duplicates  int NOT NULL,
			archived    int NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// RecordSyncRun stores the outcome of one sync run.
func (p *Postgres) RecordSyncRun(ctx context.Context, report domain.RunReport) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO sync_runs (id, started_at, finished_at, selected, created, failed)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		report.RunID, report.StartedAt, report.FinishedAt,
		report.Selected, len(report.Created), report.Failed,
	)
	if err != nil {
		return fmt.Errorf("record sync run: %w", err)
	}
	return nil
}

// RecordMaintenanceRun stores the outcome of one maintenance run.
func (p *Postgres) RecordMaintenanceRun(ctx context.Context, report domain.MaintenanceReport) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO maintenance_runs (id, started_at, finished_at, fetched, duplicates, archived)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		report.RunID, report.StartedAt, report.FinishedAt,
		report.Fetched, report.Duplicates, report.Archived,
	)
	if err != nil {
		return fmt.Errorf("record maintenance run: %w", err)
	}
	return nil
}
