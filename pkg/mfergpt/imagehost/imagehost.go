// Package imagehost uploads generated images to a public image host so
// casts can embed them by URL.
package imagehost

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Client uploads images to the freeimage.host upload API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates an image host client.
func New(baseURL, apiKey string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = "https://freeimage.host/api/1/upload"
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger.With("component", "imagehost"),
	}
}

type uploadResponse struct {
	StatusCode int `json:"status_code"`
	Image      struct {
		URL        string `json:"url"`
		DisplayURL string `json:"display_url"`
	} `json:"image"`
	StatusTxt string `json:"status_txt"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload uploads raw image bytes and returns the hosted URL.
func (c *Client) Upload(ctx context.Context, image []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	fields := map[string]string{
		"key":    c.apiKey,
		"action": "upload",
		"source": base64.StdEncoding.EncodeToString(image),
		"format": "json",
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return "", fmt.Errorf("write form field %s: %w", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, &body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("upload image: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	url := decoded.Image.URL
	if url == "" {
		url = decoded.Image.DisplayURL
	}
	if url == "" {
		if decoded.Error.Message != "" {
			return "", fmt.Errorf("upload rejected: %s", decoded.Error.Message)
		}
		return "", fmt.Errorf("upload response carried no image URL (status %q)", decoded.StatusTxt)
	}
	c.logger.Info("image uploaded", "url", url, "bytes", len(image))
	return url, nil
}
