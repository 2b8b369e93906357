package assistant

import (
	"context"
	"fmt"
	"net/http"
)

// Complete runs a one-shot chat completion: a system prompt plus a single
// user message. Used for summaries and meme prompts where no persistent
// thread is wanted.
func (c *Client) Complete(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	req := chatCompletionRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}
	var resp chatCompletionResponse
	if err := c.do(ctx, http.MethodPost, "/chat/completions", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// DescribeImage runs a vision completion over an image URL and returns the
// model's description.
func (c *Client) DescribeImage(ctx context.Context, model, prompt, imageURL string) (string, error) {
	image := &struct {
		URL string `json:"url"`
	}{URL: imageURL}

	req := chatCompletionRequest{
		Model: model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: prompt},
					{Type: "image_url", ImageURL: image},
				},
			},
		},
		MaxTokens: 500,
	}
	var resp chatCompletionResponse
	if err := c.do(ctx, http.MethodPost, "/chat/completions", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("vision completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
