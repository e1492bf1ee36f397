package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mailclip/internal/domain"
	"mailclip/internal/extract"
	"mailclip/internal/infra/metrics"
)

// Service drives one ingestion pass: select unseen threads, build records,
// persist pages, acknowledge threads, notify once. It holds no state
// between runs; running it twice against the same mailbox state is safe
// because acknowledgement removes threads from the next selection and the
// dedup maintainer reconciles the ack-failed-after-create gap.
type Service struct {
	mail     domain.MailSource
	store    domain.PageStore
	notifier domain.Notifier
	reports  domain.RunReportRepo
	profiles []extract.Profile
	loc      *time.Location
	log      zerolog.Logger
}

// NewService creates the orchestrator. notifier and reports may be nil.
func NewService(mail domain.MailSource, store domain.PageStore, notifier domain.Notifier, reports domain.RunReportRepo, profiles []extract.Profile, loc *time.Location, logger zerolog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{mail: mail, store: store, notifier: notifier, reports: reports, profiles: profiles, loc: loc, log: logger}
}

// Run executes one pass over every configured profile. A failing profile
// does not stop the others; the first error is returned after the pass.
func (s *Service) Run(ctx context.Context) (domain.RunReport, error) {
	start := time.Now()
	report := domain.RunReport{RunID: uuid.NewString(), StartedAt: start.UTC()}
	runLog := s.log.With().Str("run_id", report.RunID).Logger()

	var firstErr error
	for _, profile := range s.profiles {
		if err := s.runProfile(ctx, profile, &report, runLog); err != nil {
			runLog.Error().Err(err).Str("profile", profile.Name).Msg("sync: profile run failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	report.FinishedAt = time.Now().UTC()
	metrics.SyncRunSeconds.Observe(time.Since(start).Seconds())

	// One summary per run; an empty run stays silent to avoid noise.
	if len(report.Created) > 0 && s.notifier != nil {
		if err := s.notifier.Notify(ctx, FormatSummary(report)); err != nil {
			metrics.NotifyFailures.Inc()
			runLog.Error().Err(err).Msg("sync: summary notification failed")
		}
	}

	if s.reports != nil {
		if err := s.reports.RecordSyncRun(ctx, report); err != nil {
			runLog.Error().Err(err).Msg("sync: recording run report failed")
		}
	}

	runLog.Info().
		Int("selected", report.Selected).
		Int("created", len(report.Created)).
		Int("failed", report.Failed).
		Msg("sync: run finished")
	return report, firstErr
}

func (s *Service) runProfile(ctx context.Context, profile extract.Profile, report *domain.RunReport, runLog zerolog.Logger) error {
	messages, err := s.mail.Search(ctx, profile.Query)
	if err != nil {
		return fmt.Errorf("searching mail: %w", err)
	}
	metrics.ThreadsSelected.WithLabelValues(profile.Name).Add(float64(len(messages)))
	report.Selected += len(messages)
	if len(messages) == 0 {
		runLog.Info().Str("profile", profile.Name).Msg("sync: no unseen threads")
		return nil
	}

	builder := extract.NewBuilder(profile, s.loc)
	for _, msg := range messages {
		msgLog := runLog.With().
			Str("profile", profile.Name).
			Str("thread", msg.ThreadID).
			Str("permalink", msg.Permalink).
			Logger()

		rec, err := builder.Build(msg)
		if err != nil {
			// Structurally unusable mail would be reselected forever;
			// acknowledge it and surface the failure in the report.
			msgLog.Error().Err(err).Msg("sync: unusable message, marking handled")
			if ackErr := s.mail.MarkHandled(ctx, msg.ThreadID, profile.Label); ackErr != nil {
				msgLog.Error().Err(ackErr).Msg("sync: acknowledging unusable message failed")
			}
			report.Failed++
			continue
		}

		ref, err := s.store.CreatePage(ctx, rec)
		if err != nil {
			// The thread stays unacknowledged so the next run retries it.
			// One bad record must not block its siblings.
			metrics.PersistFailures.WithLabelValues(profile.Name).Inc()
			msgLog.Error().Err(err).Msg("sync: persist failed, thread left for reselection")
			report.Failed++
			continue
		}
		metrics.PagesCreated.WithLabelValues(profile.Name).Inc()

		if err := s.mail.MarkHandled(ctx, msg.ThreadID, profile.Label); err != nil {
			// The page exists but the thread stays selectable; the dedup
			// maintainer archives the duplicate the next run creates.
			msgLog.Error().Err(err).Msg("sync: acknowledge failed after create")
		}

		title := rec.Title
		if title == "" {
			title = rec.PublishedDate
		}
		report.Created = append(report.Created, domain.CreatedItem{Title: title, PageURL: ref.URL})
	}
	return nil
}

// Reset strips the processed state from every profile's label so the next
// run replays the mailbox. Development helper.
func (s *Service) Reset(ctx context.Context) (int, error) {
	seen := make(map[string]struct{})
	total := 0
	for _, profile := range s.profiles {
		if _, ok := seen[profile.Label]; ok {
			continue
		}
		seen[profile.Label] = struct{}{}
		n, err := s.mail.Reset(ctx, profile.Label)
		total += n
		if err != nil {
			return total, fmt.Errorf("resetting label %s: %w", profile.Label, err)
		}
	}
	return total, nil
}
