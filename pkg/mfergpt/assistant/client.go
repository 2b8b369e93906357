package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Client talks to the OpenAI API: the Assistants v2 surface plus chat
// completions and image generation.
type Client struct {
	baseURL      string
	apiKey       string
	organization string
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewClient creates an OpenAI client.
func NewClient(baseURL, apiKey, organization string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		organization: organization,
		httpClient:   &http.Client{Timeout: 120 * time.Second},
		logger:       logger.With("component", "assistant"),
	}
}

// do performs one API request. Assistants endpoints require the v2 beta
// header; it is harmless on the others so every request carries it.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("OpenAI-Beta", "assistants=v2")
	if c.organization != "" {
		req.Header.Set("OpenAI-Organization", c.organization)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// CreateThread creates a new empty conversation thread.
func (c *Client) CreateThread(ctx context.Context) (*Thread, error) {
	var thread Thread
	if err := c.do(ctx, http.MethodPost, "/threads", struct{}{}, &thread); err != nil {
		return nil, err
	}
	c.logger.Debug("thread created", "thread_id", thread.ID)
	return &thread, nil
}

// CreateMessage appends a user message to a thread.
func (c *Client) CreateMessage(ctx context.Context, threadID, content string) (*Message, error) {
	var msg Message
	err := c.do(ctx, http.MethodPost, "/threads/"+threadID+"/messages", createMessageRequest{
		Role:    "user",
		Content: content,
	}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// CreateRun starts an assistant run on a thread.
func (c *Client) CreateRun(ctx context.Context, threadID, assistantID string) (*Run, error) {
	var run Run
	err := c.do(ctx, http.MethodPost, "/threads/"+threadID+"/runs", createRunRequest{
		AssistantID: assistantID,
	}, &run)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("run created", "thread_id", threadID, "run_id", run.ID)
	return &run, nil
}

// GetRun fetches the current state of a run.
func (c *Client) GetRun(ctx context.Context, threadID, runID string) (*Run, error) {
	var run Run
	if err := c.do(ctx, http.MethodGet, "/threads/"+threadID+"/runs/"+runID, nil, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns lists a thread's runs, most recent first.
func (c *Client) ListRuns(ctx context.Context, threadID string) ([]Run, error) {
	var resp listRunsResponse
	if err := c.do(ctx, http.MethodGet, "/threads/"+threadID+"/runs", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// SubmitToolOutputs submits tool results for a requires_action run. Every
// pending tool call must be answered in one submission.
func (c *Client) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*Run, error) {
	var run Run
	err := c.do(ctx, http.MethodPost, "/threads/"+threadID+"/runs/"+runID+"/submit_tool_outputs",
		submitToolOutputsRequest{ToolOutputs: outputs}, &run)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListMessages lists a thread's messages, most recent first.
func (c *Client) ListMessages(ctx context.Context, threadID string) ([]Message, error) {
	var resp listMessagesResponse
	if err := c.do(ctx, http.MethodGet, "/threads/"+threadID+"/messages", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// LatestAssistantText returns the text of the most recent assistant message
// on a thread, or an error when the thread has none.
func (c *Client) LatestAssistantText(ctx context.Context, threadID string) (string, error) {
	messages, err := c.ListMessages(ctx, threadID)
	if err != nil {
		return "", err
	}
	for _, msg := range messages {
		if msg.Role == "assistant" {
			if text := msg.Text(); text != "" {
				return text, nil
			}
		}
	}
	return "", fmt.Errorf("thread %s has no assistant reply", threadID)
}
