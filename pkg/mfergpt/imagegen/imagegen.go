// Package imagegen combines image generation with hosting: prompt in,
// publicly embeddable URL out.
package imagegen

import (
	"context"
	"fmt"
	"log/slog"
)

// Generator produces raw image bytes from a prompt.
type Generator interface {
	GenerateImage(ctx context.Context, model, prompt string) ([]byte, string, error)
}

// Uploader hosts raw image bytes and returns a public URL.
type Uploader interface {
	Upload(ctx context.Context, image []byte) (string, error)
}

// Service generates and hosts images.
type Service struct {
	generator Generator
	uploader  Uploader
	model     string
	logger    *slog.Logger
}

// New creates an image generation service.
func New(generator Generator, uploader Uploader, model string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		generator: generator,
		uploader:  uploader,
		model:     model,
		logger:    logger.With("component", "imagegen"),
	}
}

// GenerateHostedImage generates an image for a prompt and uploads it,
// returning the hosted URL.
func (s *Service) GenerateHostedImage(ctx context.Context, prompt string) (string, error) {
	raw, revised, err := s.generator.GenerateImage(ctx, s.model, prompt)
	if err != nil {
		return "", fmt.Errorf("generate image: %w", err)
	}
	if revised != "" {
		s.logger.Debug("prompt revised by provider", "revised", revised)
	}
	url, err := s.uploader.Upload(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("host image: %w", err)
	}
	return url, nil
}
