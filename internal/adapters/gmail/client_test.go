package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func encodeBody(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func gmailHandler(t *testing.T, modifies *[]map[string]any) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/users/me/threads" && r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"threads": []map[string]string{{"id": "t1"}, {"id": "t2"}},
			})
		case r.URL.Path == "/users/me/threads/t1" || r.URL.Path == "/users/me/threads/t2":
			if got := r.URL.Query().Get("format"); got != "full" {
				t.Fatalf("expected format=full, got %q", got)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": "t1",
				"messages": []map[string]any{
					{
						"internalDate": "1714550400000",
						"payload": map[string]any{
							"mimeType": "text/plain",
							"headers":  []map[string]string{{"name": "Subject", "value": "old"}},
							"body":     map[string]string{"data": encodeBody("old body")},
						},
					},
					{
						"internalDate": "1714636800000",
						"payload": map[string]any{
							"mimeType": "multipart/alternative",
							"headers":  []map[string]string{{"name": "Subject", "value": "【制度情報:ニュース】test"}},
							"parts": []map[string]any{
								{
									"mimeType": "text/html",
									"body":     map[string]string{"data": encodeBody("<p>html</p>")},
								},
								{
									"mimeType": "text/plain; charset=UTF-8",
									"body":     map[string]string{"data": encodeBody("plain body 本文")},
								},
							},
						},
					},
				},
			})
		case r.URL.Path == "/users/me/labels" && r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"labels": []map[string]string{{"id": "INBOX", "name": "INBOX"}},
			})
		case r.URL.Path == "/users/me/labels" && r.Method == http.MethodPost:
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "Label_7"})
		case r.URL.Path == "/users/me/threads/t1/modify":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			*modifies = append(*modifies, body)
			_, _ = w.Write([]byte(`{}`))
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}
}

func TestSearchReturnsNewestMessages(t *testing.T) {
	var modifies []map[string]any
	srv := httptest.NewServer(gmailHandler(t, &modifies))
	defer srv.Close()

	client := NewClient("token", srv.URL, zerolog.Nop())
	messages, err := client.Search(context.Background(), `subject:"x" is:unread`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}

	msg := messages[0]
	if msg.Subject != "【制度情報:ニュース】test" {
		t.Fatalf("expected newest message subject, got %q", msg.Subject)
	}
	if msg.Body != "plain body 本文" {
		t.Fatalf("expected decoded text/plain part, got %q", msg.Body)
	}
	want := time.UnixMilli(1714636800000).UTC()
	if !msg.ReceivedAt.Equal(want) {
		t.Fatalf("expected receivedAt %v, got %v", want, msg.ReceivedAt)
	}
	if msg.Permalink != permalinkBase+"t1" {
		t.Fatalf("unexpected permalink: %q", msg.Permalink)
	}
}

func TestMarkHandledCreatesLabelAndModifiesThread(t *testing.T) {
	var modifies []map[string]any
	srv := httptest.NewServer(gmailHandler(t, &modifies))
	defer srv.Close()

	client := NewClient("token", srv.URL, zerolog.Nop())
	if err := client.MarkHandled(context.Background(), "t1", "Notion連携済み"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(modifies) != 1 {
		t.Fatalf("expected one modify call, got %d", len(modifies))
	}

	add := modifies[0]["addLabelIds"].([]any)
	remove := modifies[0]["removeLabelIds"].([]any)
	if len(add) != 1 || add[0] != "Label_7" {
		t.Fatalf("expected created label id, got %v", add)
	}
	if len(remove) != 1 || remove[0] != unreadLabelID {
		t.Fatalf("expected UNREAD removal, got %v", remove)
	}

	// The label id is cached: a second call must not create it again.
	if err := client.MarkHandled(context.Background(), "t1", "Notion連携済み"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(modifies) != 2 {
		t.Fatalf("expected second modify call")
	}
}

func TestResetUnknownLabelIsNoop(t *testing.T) {
	var modifies []map[string]any
	srv := httptest.NewServer(gmailHandler(t, &modifies))
	defer srv.Close()

	client := NewClient("token", srv.URL, zerolog.Nop())
	n, err := client.Reset(context.Background(), "does-not-exist")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 || len(modifies) != 0 {
		t.Fatalf("expected noop reset, got %d resets", n)
	}
}
