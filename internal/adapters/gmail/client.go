package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"mailclip/internal/domain"
	"mailclip/internal/infra/metrics"
)

const (
	defaultBaseURL = "https://gmail.googleapis.com/gmail/v1"
	permalinkBase  = "https://mail.google.com/mail/u/0/#all/"
	unreadLabelID  = "UNREAD"
)

// Client implements domain.MailSource against the Gmail REST API with a
// pre-provisioned bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     zerolog.Logger

	mu       sync.Mutex
	labelIDs map[string]string
}

var _ domain.MailSource = (*Client)(nil)

// NewClient creates a mail client. An empty baseURL selects the public
// API endpoint.
func NewClient(token, baseURL string, logger zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		http:     &http.Client{Timeout: 30 * time.Second},
		log:      logger,
		labelIDs: make(map[string]string),
	}
}

// Search lists threads matching the query and returns the newest message
// of each, ordered as the mail system returns them.
func (c *Client) Search(ctx context.Context, query string) ([]domain.RawMessage, error) {
	ids, err := c.listThreadIDs(ctx, query)
	if err != nil {
		return nil, err
	}

	messages := make([]domain.RawMessage, 0, len(ids))
	for _, id := range ids {
		msg, err := c.latestMessage(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("thread %s: %w", id, err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// MarkHandled labels the thread and clears its unread flag.
func (c *Client) MarkHandled(ctx context.Context, threadID, label string) error {
	labelID, err := c.ensureLabel(ctx, label)
	if err != nil {
		return err
	}
	payload := map[string]any{
		"addLabelIds":    []string{labelID},
		"removeLabelIds": []string{unreadLabelID},
	}
	return c.doJSON(ctx, http.MethodPost, "/users/me/threads/"+threadID+"/modify", "modify_thread", nil, payload, nil)
}

// Reset strips the label from every thread carrying it and marks them
// unread again, so a run can be replayed during development.
func (c *Client) Reset(ctx context.Context, label string) (int, error) {
	labelID, err := c.lookupLabel(ctx, label)
	if err != nil {
		return 0, err
	}
	if labelID == "" {
		return 0, nil
	}

	ids, err := c.listThreadIDs(ctx, "label:"+label)
	if err != nil {
		return 0, err
	}
	payload := map[string]any{
		"addLabelIds":    []string{unreadLabelID},
		"removeLabelIds": []string{labelID},
	}
	reset := 0
	for _, id := range ids {
		if err := c.doJSON(ctx, http.MethodPost, "/users/me/threads/"+id+"/modify", "modify_thread", nil, payload, nil); err != nil {
			return reset, err
		}
		reset++
	}
	return reset, nil
}

func (c *Client) listThreadIDs(ctx context.Context, query string) ([]string, error) {
	var ids []string
	pageToken := ""
	for {
		params := url.Values{}
		params.Set("q", query)
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var resp struct {
			Threads []struct {
				ID string `json:"id"`
			} `json:"threads"`
			NextPageToken string `json:"nextPageToken"`
		}
		if err := c.doJSON(ctx, http.MethodGet, "/users/me/threads", "list_threads", params, nil, &resp); err != nil {
			return nil, err
		}
		for _, thread := range resp.Threads {
			ids = append(ids, thread.ID)
		}
		if resp.NextPageToken == "" {
			return ids, nil
		}
		pageToken = resp.NextPageToken
	}
}

type messagePart struct {
	MimeType string `json:"mimeType"`
	Body     struct {
		Data string `json:"data"`
	} `json:"body"`
	Parts []messagePart `json:"parts"`
}

func (c *Client) latestMessage(ctx context.Context, threadID string) (domain.RawMessage, error) {
	params := url.Values{}
	params.Set("format", "full")

	var resp struct {
		ID       string `json:"id"`
		Messages []struct {
			InternalDate string `json:"internalDate"`
			Payload      struct {
				Headers []struct {
					Name  string `json:"name"`
					Value string `json:"value"`
				} `json:"headers"`
				messagePart
			} `json:"payload"`
		} `json:"messages"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/users/me/threads/"+threadID, "get_thread", params, nil, &resp); err != nil {
		return domain.RawMessage{}, err
	}
	if len(resp.Messages) == 0 {
		return domain.RawMessage{}, fmt.Errorf("thread %s has no messages", threadID)
	}

	newest := resp.Messages[len(resp.Messages)-1]

	subject := ""
	for _, header := range newest.Payload.Headers {
		if strings.EqualFold(header.Name, "Subject") {
			subject = header.Value
			break
		}
	}

	receivedAt := time.Time{}
	if ms, err := strconv.ParseInt(newest.InternalDate, 10, 64); err == nil {
		receivedAt = time.UnixMilli(ms).UTC()
	}

	return domain.RawMessage{
		ThreadID:   threadID,
		Subject:    subject,
		Body:       plainTextBody(newest.Payload.messagePart),
		ReceivedAt: receivedAt,
		Permalink:  permalinkBase + threadID,
	}, nil
}

// plainTextBody walks the MIME tree depth-first and decodes the first
// text/plain part. A single-part message carries the data at the root.
func plainTextBody(part messagePart) string {
	if strings.HasPrefix(part.MimeType, "text/plain") && part.Body.Data != "" {
		data := strings.TrimRight(part.Body.Data, "=")
		if decoded, err := base64.RawURLEncoding.DecodeString(data); err == nil {
			return string(decoded)
		}
		return ""
	}
	for _, child := range part.Parts {
		if body := plainTextBody(child); body != "" {
			return body
		}
	}
	return ""
}

func (c *Client) ensureLabel(ctx context.Context, name string) (string, error) {
	id, err := c.lookupLabel(ctx, name)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}

	payload := map[string]any{"name": name}
	var created struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/users/me/labels", "create_label", nil, payload, &created); err != nil {
		return "", err
	}
	c.mu.Lock()
	c.labelIDs[name] = created.ID
	c.mu.Unlock()
	return created.ID, nil
}

func (c *Client) lookupLabel(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	if id, ok := c.labelIDs[name]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	var resp struct {
		Labels []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"labels"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/users/me/labels", "list_labels", nil, nil, &resp); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, label := range resp.Labels {
		c.labelIDs[label.Name] = label.ID
	}
	return c.labelIDs[name], nil
}

func (c *Client) doJSON(ctx context.Context, method, path, op string, params url.Values, payload, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = strings.NewReader(string(buf))
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.ObserveNetworkRequest("gmail", op, start, err)
	if err != nil {
		return fmt.Errorf("gmail %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &domain.RemoteError{
			Component: "gmail",
			Op:        op,
			Status:    resp.StatusCode,
			Body:      strings.TrimSpace(string(b)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
