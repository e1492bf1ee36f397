package notion

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

const (
	defaultBaseURL = "https://api.notion.com"
	apiVersion     = "2022-06-28"
	queryPageSize  = 100
)

// Client implements domain.PageStore against the Notion REST API, bound to
// a single database.
type Client struct {
	baseURL    string
	token      string
	databaseID string
	http       *http.Client
	log        zerolog.Logger
}

var _ domain.PageStore = (*Client)(nil)

// NewClient creates a store client. An empty baseURL selects the public
// API endpoint.
func NewClient(token, databaseID, baseURL string, logger zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		databaseID: databaseID,
		http:       &http.Client{Timeout: 30 * time.Second},
		log:        logger,
	}
}

// CreatePage persists one record as a new page.
func (c *Client) CreatePage(ctx context.Context, rec domain.Record) (domain.PageRef, error) {
	payload := pageInput(c.databaseID, rec)

	var created struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/pages", "create_page", payload, &created); err != nil {
		return domain.PageRef{}, err
	}
	return domain.PageRef{ID: created.ID, URL: created.URL}, nil
}

// QueryAll fetches every page summary of the database, following cursors
// until the store reports has_more=false. Any mid-pagination failure fails
// the whole call so callers never see a partial page set.
func (c *Client) QueryAll(ctx context.Context) ([]domain.PageSummary, error) {
	var all []domain.PageSummary
	cursor := ""
	for {
		payload := map[string]any{"page_size": queryPageSize}
		if cursor != "" {
			payload["start_cursor"] = cursor
		}

		var resp struct {
			Results []struct {
				ID          string    `json:"id"`
				CreatedTime time.Time `json:"created_time"`
				Properties  map[string]struct {
					URL *string `json:"url"`
				} `json:"properties"`
			} `json:"results"`
			HasMore    bool   `json:"has_more"`
			NextCursor string `json:"next_cursor"`
		}
		path := "/v1/databases/" + c.databaseID + "/query"
		if err := c.doJSON(ctx, http.MethodPost, path, "query_pages", payload, &resp); err != nil {
			return nil, fmt.Errorf("pagination aborted after %d pages: %w", len(all), err)
		}

		for _, page := range resp.Results {
			summary := domain.PageSummary{ID: page.ID, CreatedTime: page.CreatedTime}
			if prop, ok := page.Properties[permalinkProperty]; ok && prop.URL != nil {
				summary.LogicalKey = *prop.URL
			}
			all = append(all, summary)
		}

		if !resp.HasMore || strings.TrimSpace(resp.NextCursor) == "" {
			return all, nil
		}
		cursor = resp.NextCursor
	}
}

// Archive soft-deletes a page. The store keeps it restorable.
func (c *Client) Archive(ctx context.Context, pageID string) error {
	payload := map[string]any{"archived": true}
	return c.doJSON(ctx, http.MethodPatch, "/v1/pages/"+pageID, "archive_page", payload, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path, op string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.ObserveNetworkRequest("notion", op, start, err)
	if err != nil {
		return fmt.Errorf("notion %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &domain.RemoteError{
			Component: "notion",
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
