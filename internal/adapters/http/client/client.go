// Package client talks to a running shepherd API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/shepherd/internal/domain/model"
)

const defaultTimeout = 30 * time.Second

// Sections and the endpoint each one posts to.
var paths = map[string]string{
	"attendance": "/v1/forecast/attendance",
	"growth":     "/v1/forecast/growth",
	"volunteers": "/v1/forecast/volunteers",
	"annual":     "/v1/forecast/annual",
	"comparison": "/v1/reports/comparison",
	"dashboard":  "/v1/reports/dashboard",
}

// ErrUnknownSection is returned for a section with no endpoint.
var ErrUnknownSection = errors.New("unknown section")

// APIError is a non-2xx reply. Result holds the partial value the server sent
// along, if any.
type APIError struct {
	Status  int
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s: %s", e.Status, e.Code, e.Message)
}

// Client wraps http.Client with the API base URL.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// New creates a client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sections lists the section names Run accepts.
func Sections() []string {
	return []string{"dashboard", "attendance", "growth", "volunteers", "annual", "comparison"}
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode, Code: "unhealthy", Message: resp.Status}
	}
	return nil
}

// Run posts the snapshot and options to the section's endpoint and returns the
// raw JSON result.
func (c *Client) Run(ctx context.Context, section string, snap model.Snapshot, options any) (json.RawMessage, error) {
	path, ok := paths[section]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSection, section)
	}

	body, err := json.Marshal(struct {
		model.Snapshot
		Options any `json:"options,omitempty"`
	}{snap, options})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if jerr := json.Unmarshal(data, apiErr); jerr != nil {
			apiErr.Code = "invalid_response"
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return nil, apiErr
	}
	return json.RawMessage(data), nil
}
