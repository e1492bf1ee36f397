package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os/signal"
	"strconv"
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
	httpinfra "mailclip/internal/infra/http"
	applog "mailclip/internal/infra/log"
	"mailclip/internal/infra/metrics"
	maintenanceusecase "mailclip/internal/usecase/maintenance"
	syncusecase "mailclip/internal/usecase/sync"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	if cfg.Gmail.Token == "" {
		logger.Fatal().Msg("server: GMAIL_TOKEN is not set")
	}
	if cfg.Notion.APIKey == "" || cfg.Notion.DatabaseID == "" {
		logger.Fatal().Msg("server: NOTION_API_KEY or NOTION_DATABASE_ID is not set")
	}

	loc, err := time.LoadLocation(cfg.TZ)
	if err != nil {
		logger.Fatal().Err(err).Str("tz", cfg.TZ).Msg("server: invalid time zone")
	}
	profiles, err := extract.Profiles(cfg.ProfileNames())
	if err != nil {
		logger.Fatal().Err(err).Msg("server: invalid profile list")
	}

	mail := gmail.NewClient(cfg.Gmail.Token, cfg.Gmail.BaseURL, logger.With().Str("component", "gmail").Logger())
	store := notion.NewClient(cfg.Notion.APIKey, cfg.Notion.DatabaseID, cfg.Notion.BaseURL, logger.With().Str("component", "notion").Logger())

	var notifier domain.Notifier
	if cfg.Slack.WebhookURL != "" {
		notifier = slack.NewWebhook(cfg.Slack.WebhookURL, logger.With().Str("component", "slack").Logger())
	} else {
		logger.Info().Msg("server: SLACK_WEBHOOK_URL not set, notifications disabled")
	}

	var reports domain.RunReportRepo
	if cfg.PGDSN != "" {
		pool, err := db.Connect(cfg.PGDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("server: database connection failed")
		}
		defer pool.Close()
		pg := repo.NewPostgres(pool)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			logger.Fatal().Err(err).Msg("server: schema migration failed")
		}
		reports = pg
	}

	var guard domain.RunGuard
	if cfg.RedisAddr != "" {
		guard = cache.NewRedisGuard(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}

	syncService := syncusecase.NewService(mail, store, notifier, reports, profiles, loc, logger.With().Str("component", "sync").Logger())
	maintenanceService := maintenanceusecase.NewService(store, reports, logger.With().Str("component", "maintenance").Logger())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := httpinfra.NewServer(logger.With().Str("component", "http").Logger())
	srv.Router.Post("/v1/sync/run", func(w http.ResponseWriter, r *http.Request) {
		report, err := syncService.Run(r.Context())
		writeJSON(w, report, err)
	})
	srv.Router.Post("/v1/maintenance/run", func(w http.ResponseWriter, r *http.Request) {
		report, err := maintenanceService.Run(r.Context())
		writeJSON(w, report, err)
	})
	srv.Router.Post("/v1/reset", func(w http.ResponseWriter, r *http.Request) {
		n, err := syncService.Reset(r.Context())
		writeJSON(w, map[string]int{"reset": n}, err)
	})

	go scheduleSync(ctx, cfg, guard, syncService, logger)
	go scheduleMaintenance(ctx, cfg, maintenanceService, logger)

	if err := srv.Start(":" + strconv.Itoa(cfg.Port)); err != nil {
		logger.Fatal().Err(err).Msg("server: stopped")
	}
}

func writeJSON(w http.ResponseWriter, payload any, err error) {
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func scheduleSync(ctx context.Context, cfg config.AppConfig, guard domain.RunGuard, service *syncusecase.Service, logger zerolog.Logger) {
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
			logger.Error().Err(err).Msg("server: scheduled sync failed")
		}
	}

	trigger()
	ticker := time.NewTicker(cfg.Schedule.SyncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			trigger()
		}
	}
}

func scheduleMaintenance(ctx context.Context, cfg config.AppConfig, service *maintenanceusecase.Service, logger zerolog.Logger) {
	ticker := time.NewTicker(cfg.Schedule.MaintenanceInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := service.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("server: scheduled maintenance failed")
			}
		}
	}
}
