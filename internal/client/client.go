// Package client talks to the knowledge-retrieval backend's REST API.
//
// The same API is exposed by the backend itself and by the viewer proxy,
// so a Client can point at either.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/raphaelgruber/cognee-viewer/internal/models"
)

// DefaultBaseURL is used when neither an explicit URL nor COGNEE_SERVER_URL is set.
const DefaultBaseURL = "http://localhost:8000"

// Client is a REST client for the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client for baseURL.
// If baseURL is empty, uses COGNEE_SERVER_URL or defaults to localhost:8000.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("COGNEE_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the URL requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends a request and returns the body of a 2xx response.
// Every failure is a *NetworkError.
func (c *Client) do(ctx context.Context, op, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, transportError(op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("backend request failed", "op", op, "url", req.URL.String(), "error", err)
		return nil, transportError(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(op, fmt.Errorf("read response: %w", err))
	}

	c.logger.Debug("backend request completed",
		"op", op,
		"url", req.URL.String(),
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(op, resp.StatusCode, errorDetail(data))
	}
	return data, nil
}

// errorDetail extracts a message from an error body such as {"error": "..."}
// (the proxy's shape) or {"detail": "..."} (the backend's).
func errorDetail(body []byte) string {
	var payload struct {
		Error  string `json:"error"`
		Detail any    `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	if s, ok := payload.Detail.(string); ok {
		return s
	}
	return ""
}

// ListDatasets fetches every dataset. Results are never cached.
func (c *Client) ListDatasets(ctx context.Context) ([]models.Dataset, error) {
	data, err := c.do(ctx, "list datasets", http.MethodGet, "/api/v1/datasets", nil)
	if err != nil {
		return nil, err
	}

	var datasets []models.Dataset
	if err := json.Unmarshal(data, &datasets); err != nil {
		return nil, &NetworkError{Op: "list datasets", Message: "unexpected datasets response", Err: err}
	}
	return datasets, nil
}

// ListItems fetches the data items of a dataset.
func (c *Client) ListItems(ctx context.Context, datasetID string) ([]models.DataItem, error) {
	path := "/api/v1/datasets/" + url.PathEscape(datasetID) + "/data"
	data, err := c.do(ctx, "list data items", http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var items []models.DataItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, &NetworkError{Op: "list data items", Message: "unexpected data items response", Err: err}
	}
	return items, nil
}

// FetchRaw fetches the raw content of a data item. A JSON object with a
// non-empty "content" field yields that field, a JSON string yields the string,
// and anything else is returned as text.
func (c *Client) FetchRaw(ctx context.Context, datasetID, itemID string) (string, error) {
	path := "/api/v1/datasets/" + url.PathEscape(datasetID) + "/data/" + url.PathEscape(itemID) + "/raw"
	data, err := c.do(ctx, "fetch raw data", http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}

	var wrapped struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Content != "" {
		return wrapped.Content, nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		return text, nil
	}
	return string(data), nil
}
