package analytics

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

	"northwind-chat/internal/types"
)

var (
	// ErrTransport covers network failures and unreadable bodies.
	ErrTransport = errors.New("analytics transport failure")
	// ErrStatus covers replies with a non-2xx status or no usable content.
	ErrStatus = errors.New("analytics service error")
)

// maxBodyBytes bounds how much of a reply is read.
const maxBodyBytes = 8 << 20

// Client talks to the analytics service's JSON API. The HTTP client timeout is
// the only deadline applied to a question.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Ask posts {"message": ...} to /chat and returns the raw reply body.
func (c *Client) Ask(ctx context.Context, message string) ([]byte, error) {
	b, err := json.Marshal(types.ChatRequest{Message: message})
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodPost, "/chat", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return readBody(resp, "/chat")
}

// Health checks the service's /health endpoint.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, err = readBody(resp, "/health")
	return err
}

func (c *Client) BaseURL() string { return c.baseURL }

// ---- Helpers ----

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return resp, nil
}

func readBody(resp *http.Response, path string) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrTransport, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s returned %d: %s", ErrStatus, path, resp.StatusCode, snippet(b))
	}
	return b, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
