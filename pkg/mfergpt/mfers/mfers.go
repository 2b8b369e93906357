// Package mfers looks up mfer NFT trait descriptions and expands #mferN
// tags in image prompts.
package mfers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MaxID is the highest valid mfer token ID.
const MaxID = 10020

// tagPattern matches #mfer tags followed by a token ID (e.g. "#mfer1337").
var tagPattern = regexp.MustCompile(`#mfer(\d+)`)

// Client fetches mfer descriptions from the mfers metadata API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates an mfers metadata client.
func New(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = "https://gpt.mfers.dev"
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger.With("component", "mfers"),
	}
}

type descriptionResponse struct {
	Description string `json:"description"`
}

// Description fetches the trait description for a token ID.
func (c *Client) Description(ctx context.Context, id int) (string, error) {
	if id < 0 || id > MaxID {
		return "", fmt.Errorf("mfer id %d out of range (0-%d)", id, MaxID)
	}
	url := fmt.Sprintf("%s/descriptions/%d.json", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch mfer %d: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("fetch mfer %d: status %d: %s", id, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded descriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode mfer %d response: %w", id, err)
	}
	if decoded.Description == "" {
		return "", fmt.Errorf("mfer %d has no description", id)
	}
	return decoded.Description, nil
}

// ExpandTags replaces every #mferN tag in a prompt with that mfer's trait
// description. A failed or out-of-range lookup degrades to the literal
// "mfer N" so the prompt stays usable.
func (c *Client) ExpandTags(ctx context.Context, prompt string) string {
	return tagPattern.ReplaceAllStringFunc(prompt, func(tag string) string {
		idText := tagPattern.FindStringSubmatch(tag)[1]
		if id, err := strconv.Atoi(idText); err == nil {
			desc, err := c.Description(ctx, id)
			if err == nil {
				return desc
			}
			c.logger.Warn("mfer description lookup failed", "id", id, "error", err)
		}
		return "mfer " + idText
	})
}
