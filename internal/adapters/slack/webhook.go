package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"mailclip/internal/domain"
	"mailclip/internal/infra/metrics"
)

// Webhook implements domain.Notifier on a Slack incoming webhook. Delivery
// is fire and forget: callers log failures and move on, never retry.
type Webhook struct {
	url  string
	http *http.Client
	log  zerolog.Logger
}

var _ domain.Notifier = (*Webhook)(nil)

// NewWebhook creates a notifier for the webhook URL.
func NewWebhook(url string, logger zerolog.Logger) *Webhook {
	return &Webhook{
		url:  url,
		http: &http.Client{Timeout: 10 * time.Second},
		log:  logger,
	}
}

// Notify posts the text payload to the webhook.
func (w *Webhook) Notify(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := w.http.Do(req)
	metrics.ObserveNetworkRequest("slack", "notify", start, err)
	if err != nil {
		return fmt.Errorf("slack notify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return &domain.RemoteError{
			Component: "slack",
			Op:        "notify",
			Status:    resp.StatusCode,
			Body:      strings.TrimSpace(string(b)),
		}
	}
	w.log.Debug().Msg("slack: notification delivered")
	return nil
}
