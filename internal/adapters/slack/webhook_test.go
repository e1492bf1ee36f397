package slack

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"mailclip/internal/domain"
)

func TestNotifyPostsTextPayload(t *testing.T) {
	var captured map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	hook := NewWebhook(srv.URL, zerolog.Nop())
	if err := hook.Notify(context.Background(), "2件のページを作成しました"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured["text"] != "2件のページを作成しました" {
		t.Fatalf("unexpected payload: %v", captured)
	}
}

func TestNotifyReportsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
		_, _ = w.Write([]byte("channel_is_archived"))
	}))
	defer srv.Close()

	hook := NewWebhook(srv.URL, zerolog.Nop())
	err := hook.Notify(context.Background(), "hello")
	var remote *domain.RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if remote.Status != http.StatusGone || remote.Body != "channel_is_archived" {
		t.Fatalf("diagnostics missing: %+v", remote)
	}
}
