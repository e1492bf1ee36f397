package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"mailclip/internal/adapters/gmail"
	"mailclip/internal/adapters/notion"
	"mailclip/internal/adapters/repo"
	"mailclip/internal/adapters/slack"
	"mailclip/internal/domain"
	"mailclip/internal/extract"
	"mailclip/internal/infra/cache"
	"mailclip/internal/infra/config"
	"mailclip/internal/infra/db"
	applog "mailclip/internal/infra/log"
	"mailclip/internal/infra/metrics"
	syncusecase "mailclip/internal/usecase/sync"
)

func main() {
	loop := flag.Bool("loop", false, "run on the configured interval instead of once")
	reset := flag.Bool("reset", false, "strip processed labels and mark threads unread, then exit")
	flag.Parse()

	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	service := buildService(cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *reset {
		n, err := service.Reset(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("sync: reset failed")
		}
		logger.Info().Int("threads", n).Msg("sync: mailbox state reset")
		return
	}

	if !*loop {
		if _, err := service.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("sync: run failed")
			os.Exit(1)
		}
		return
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)
	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), ":9090")

	var guard domain.RunGuard
	if cfg.RedisAddr != "" {
		guard = cache.NewRedisGuard(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}

	trigger := func() {
		run := func() error {
			_, err := service.Run(ctx)
			return err
		}
		var err error
		if guard != nil {
			err = guard.Once("mailclip:sync", cfg.Schedule.SyncInterval/2, run)
		} else {
			err = run()
		}
		if err != nil {
			logger.Error().Err(err).Msg("sync: run failed")
		}
	}

	logger.Info().Dur("interval", cfg.Schedule.SyncInterval).Msg("sync: loop started")
	trigger()
	ticker := time.NewTicker(cfg.Schedule.SyncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("sync: loop stopped")
			return
		case <-ticker.C:
			trigger()
		}
	}
}

func buildService(cfg config.AppConfig, logger zerolog.Logger) *syncusecase.Service {
	if cfg.Gmail.Token == "" {
		logger.Fatal().Msg("sync: GMAIL_TOKEN is not set")
	}
	if cfg.Notion.APIKey == "" || cfg.Notion.DatabaseID == "" {
		logger.Fatal().Msg("sync: NOTION_API_KEY or NOTION_DATABASE_ID is not set")
	}

	loc, err := time.LoadLocation(cfg.TZ)
	if err != nil {
		logger.Fatal().Err(err).Str("tz", cfg.TZ).Msg("sync: invalid time zone")
	}
	profiles, err := extract.Profiles(cfg.ProfileNames())
	if err != nil {
		logger.Fatal().Err(err).Msg("sync: invalid profile list")
	}

	mail := gmail.NewClient(cfg.Gmail.Token, cfg.Gmail.BaseURL, logger.With().Str("component", "gmail").Logger())
	store := notion.NewClient(cfg.Notion.APIKey, cfg.Notion.DatabaseID, cfg.Notion.BaseURL, logger.With().Str("component", "notion").Logger())

	var notifier domain.Notifier
	if cfg.Slack.WebhookURL != "" {
		notifier = slack.NewWebhook(cfg.Slack.WebhookURL, logger.With().Str("component", "slack").Logger())
	} else {
		logger.Info().Msg("sync: SLACK_WEBHOOK_URL not set, notifications disabled")
	}

	var reports domain.RunReportRepo
	if cfg.PGDSN != "" {
		pool, err := db.Connect(cfg.PGDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("sync: database connection failed")
		}
		pg := repo.NewPostgres(pool)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			logger.Fatal().Err(err).Msg("sync: schema migration failed")
		}
		reports = pg
	}

	return syncusecase.NewService(mail, store, notifier, reports, profiles, loc, logger.With().Str("component", "sync").Logger())
}
