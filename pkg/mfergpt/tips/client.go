package tips

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the ham and degen tipping APIs. Both return free-form
// JSON that is normalized (see NormalizeNumbers) before being handed to
// the assistant as tool output.
type Client struct {
	hamBaseURL   string
	degenBaseURL string
	httpClient   *http.Client
	logger       *slog.Logger
}

// New creates a tipping API client.
func New(hamBaseURL, degenBaseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if hamBaseURL == "" {
		hamBaseURL = "https://farcaster.dep.dev"
	}
	if degenBaseURL == "" {
		degenBaseURL = "https://api.degen.tips"
	}
	return &Client{
		hamBaseURL:   strings.TrimRight(hamBaseURL, "/"),
		degenBaseURL: strings.TrimRight(degenBaseURL, "/"),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       logger.With("component", "tips"),
	}
}

// getJSON fetches a URL and returns the decoded, number-normalized body.
func (c *Client) getJSON(ctx context.Context, rawURL string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("GET %s: status %d: %s", rawURL, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return NormalizeNumbers(decoded), nil
}

func (c *Client) hamURL(path string, query url.Values) string {
	u := c.hamBaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) degenURL(path string, query url.Values) string {
	u := c.degenBaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}
