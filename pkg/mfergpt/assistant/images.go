package assistant

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
)

// GenerateImage generates one image from a prompt and returns the raw PNG
// bytes plus the provider's revised prompt.
func (c *Client) GenerateImage(ctx context.Context, model, prompt string) ([]byte, string, error) {
	req := imageRequest{
		Model:          model,
		Prompt:         prompt,
		N:              1,
		Size:           "1024x1024",
		ResponseFormat: "b64_json",
	}
	var resp imageResponse
	if err := c.do(ctx, http.MethodPost, "/images/generations", req, &resp); err != nil {
		return nil, "", err
	}
	if len(resp.Data) == 0 {
		return nil, "", fmt.Errorf("image generation returned no data")
	}
	raw, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, "", fmt.Errorf("decode image payload: %w", err)
	}
	c.logger.Info("image generated", "model", model, "bytes", len(raw))
	return raw, resp.Data[0].RevisedPrompt, nil
}
