package maintenance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mailclip/internal/domain"
	"mailclip/internal/infra/metrics"
)

// Service is the dedup maintainer: it scans the whole store, groups pages
// by their logical key and archives every page but the newest per group.
// Running it twice in a row with no writes in between archives nothing on
// the second pass.
type Service struct {
	store   domain.PageStore
	reports domain.RunReportRepo
	log     zerolog.Logger
}

// NewService creates the maintainer. reports may be nil.
func NewService(store domain.PageStore, reports domain.RunReportRepo, logger zerolog.Logger) *Service {
	return &Service{store: store, reports: reports, log: logger}
}

// Run executes one maintenance pass. A pagination failure aborts the whole
// run: archival decisions over a partial page set could retire the wrong
// page. A single failed archive call is logged and the pass continues.
func (s *Service) Run(ctx context.Context) (domain.MaintenanceReport, error) {
	report := domain.MaintenanceReport{RunID: uuid.NewString(), StartedAt: time.Now().UTC()}
	runLog := s.log.With().Str("run_id", report.RunID).Logger()

	pages, err := s.store.QueryAll(ctx)
	if err != nil {
		return report, fmt.Errorf("fetching page set: %w", err)
	}
	report.Fetched = len(pages)

	groups := make(map[string][]domain.PageSummary)
	var order []string
	for _, page := range pages {
		if page.LogicalKey == "" {
			// No identity, never archived blindly.
			continue
		}
		if _, ok := groups[page.LogicalKey]; !ok {
			order = append(order, page.LogicalKey)
		}
		groups[page.LogicalKey] = append(groups[page.LogicalKey], page)
	}

	for _, key := range order {
		group := groups[key]
		if len(group) < 2 {
			continue
		}
		report.Duplicates++

		// Newest first; equal creation times fall back to the page id so
		// the retained page is the same on every run.
		sort.Slice(group, func(i, j int) bool {
			if !group[i].CreatedTime.Equal(group[j].CreatedTime) {
				return group[i].CreatedTime.After(group[j].CreatedTime)
			}
			return group[i].ID > group[j].ID
		})

		runLog.Info().
			Str("logical_key", key).
			Int("pages", len(group)).
			Str("retained", group[0].ID).
			Msg("maintenance: duplicate group found")

		for _, page := range group[1:] {
			if err := s.store.Archive(ctx, page.ID); err != nil {
				runLog.Error().Err(err).
					Str("page", page.ID).
					Str("logical_key", key).
					Msg("maintenance: archive failed, continuing")
				continue
			}
			metrics.PagesArchived.Inc()
			report.Archived++
		}
	}
	report.FinishedAt = time.Now().UTC()

	if s.reports != nil {
		if err := s.reports.RecordMaintenanceRun(ctx, report); err != nil {
			runLog.Error().Err(err).Msg("maintenance: recording run report failed")
		}
	}

	runLog.Info().
		Int("fetched", report.Fetched).
		Int("duplicate_groups", report.Duplicates).
		Int("archived", report.Archived).
		Msg("maintenance: run finished")
	return report, nil
}
