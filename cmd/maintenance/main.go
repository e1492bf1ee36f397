package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"mailclip/internal/adapters/notion"
	"mailclip/internal/adapters/repo"
	"mailclip/internal/domain"
	"mailclip/internal/infra/config"
	"mailclip/internal/infra/db"
	applog "mailclip/internal/infra/log"
	maintenanceusecase "mailclip/internal/usecase/maintenance"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	if cfg.Notion.APIKey == "" || cfg.Notion.DatabaseID == "" {
		logger.Fatal().Msg("maintenance: NOTION_API_KEY or NOTION_DATABASE_ID is not set")
	}

	store := notion.NewClient(cfg.Notion.APIKey, cfg.Notion.DatabaseID, cfg.Notion.BaseURL, logger.With().Str("component", "notion").Logger())

	var reports domain.RunReportRepo
	if cfg.PGDSN != "" {
		pool, err := db.Connect(cfg.PGDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("maintenance: database connection failed")
		}
		pg := repo.NewPostgres(pool)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			logger.Fatal().Err(err).Msg("maintenance: schema migration failed")
		}
		reports = pg
	}

	service := maintenanceusecase.NewService(store, reports, logger.With().Str("component", "maintenance").Logger())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := service.Run(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("maintenance: run failed")
		os.Exit(1)
	}
	logger.Info().Int("archived", report.Archived).Msg("maintenance: done")
}
