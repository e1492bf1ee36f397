package config

import (
	"log"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig holds every credential and endpoint the services need. It is
// loaded once at process start and passed into components explicitly.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	TZ     string `envconfig:"TZ" default:"Asia/Tokyo"`
	Port   int    `envconfig:"PORT" default:"8080"`

	Gmail struct {
		Token   string `envconfig:"GMAIL_TOKEN"`
		BaseURL string `envconfig:"GMAIL_BASE_URL"`
	} `envconfig:""`

	Notion struct {
		APIKey     string `envconfig:"NOTION_API_KEY"`
		DatabaseID string `envconfig:"NOTION_DATABASE_ID"`
		BaseURL    string `envconfig:"NOTION_BASE_URL"`
	} `envconfig:""`

	Slack struct {
		WebhookURL string `envconfig:"SLACK_WEBHOOK_URL"`
	} `envconfig:""`

	PGDSN     string `envconfig:"PG_DSN"`
	RedisAddr string `envconfig:"REDIS_ADDR"`

	// Profiles is the comma-separated list of mail profiles to run.
	Profiles string `envconfig:"MAIL_PROFILES" default:"daily-news,regulatory-news"`

	Schedule struct {
		SyncInterval        time.Duration `envconfig:"SYNC_INTERVAL" default:"15m"`
		MaintenanceInterval time.Duration `envconfig:"MAINTENANCE_INTERVAL" default:"24h"`
	} `envconfig:""`
}

// Load reads the configuration from the environment.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// ProfileNames splits the configured profile list.
func (c AppConfig) ProfileNames() []string {
	var names []string
	for _, name := range strings.Split(c.Profiles, ",") {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	return names
}
