// Package attachments interprets cast embeds: a URL is sniffed for its
// content type, then described as an image (via vision), a readable web
// page, or plain media metadata.
package attachments

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// maxPageText caps how much extracted page text is handed downstream.
const maxPageText = 4000

// VisionDescriber describes an image URL.
type VisionDescriber interface {
	DescribeImage(ctx context.Context, model, prompt, imageURL string) (string, error)
}

// Interpreter turns embed URLs into text an assistant can reason about.
type Interpreter struct {
	vision      VisionDescriber
	visionModel string
	httpClient  *http.Client
	logger      *slog.Logger
}

// New creates an Interpreter. vision may be nil, in which case images are
// described by their metadata only.
func New(vision VisionDescriber, visionModel string, logger *slog.Logger) *Interpreter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Interpreter{
		vision:      vision,
		visionModel: visionModel,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		logger:      logger.With("component", "attachments"),
	}
}

// InterpretURL describes what a URL points at. prompt steers the vision
// description for images and may be empty. Failures degrade to a short
// note rather than an error: embed interpretation is best-effort context.
func (i *Interpreter) InterpretURL(ctx context.Context, rawURL, prompt string) string {
	contentType, size := i.sniff(ctx, rawURL)
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return i.describeImage(ctx, rawURL, contentType, prompt)
	case strings.HasPrefix(contentType, "text/html"):
		return i.describePage(ctx, rawURL)
	case strings.HasPrefix(contentType, "video/"), strings.HasPrefix(contentType, "audio/"):
		return fmt.Sprintf("A media file (%s, %d bytes) at %s", contentType, size, rawURL)
	case contentType == "":
		return fmt.Sprintf("A link to %s (content type unknown)", rawURL)
	default:
		return fmt.Sprintf("A file (%s) at %s", contentType, rawURL)
	}
}

// sniff resolves a URL's content type with a HEAD request.
func (i *Interpreter) sniff(ctx context.Context, rawURL string) (contentType string, size int64) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return "", 0
	}
	resp, err := i.httpClient.Do(req)
	if err != nil {
		i.logger.Warn("HEAD request failed", "url", rawURL, "error", err)
		return "", 0
	}
	resp.Body.Close()
	ct := resp.Header.Get("Content-Type")
	if idx := strings.Index(ct, ";"); idx >= 0 {
		ct = ct[:idx]
	}
	return strings.TrimSpace(strings.ToLower(ct)), resp.ContentLength
}

func (i *Interpreter) describeImage(ctx context.Context, rawURL, contentType, prompt string) string {
	if i.vision == nil {
		return fmt.Sprintf("An image (%s) at %s", contentType, rawURL)
	}
	if prompt == "" {
		prompt = "Describe this image in two or three sentences."
	}
	desc, err := i.vision.DescribeImage(ctx, i.visionModel, prompt, rawURL)
	if err != nil {
		i.logger.Warn("vision description failed", "url", rawURL, "error", err)
		return fmt.Sprintf("An image (%s) at %s", contentType, rawURL)
	}
	return "An image: " + desc
}

// describePage fetches a page and extracts its readable text.
func (i *Interpreter) describePage(ctx context.Context, rawURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Sprintf("A web page at %s", rawURL)
	}
	resp, err := i.httpClient.Do(req)
	if err != nil {
		i.logger.Warn("page fetch failed", "url", rawURL, "error", err)
		return fmt.Sprintf("A web page at %s", rawURL)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Sprintf("A web page at %s (status %d)", rawURL, resp.StatusCode)
	}

	text, err := ExtractText(resp)
	if err != nil || text == "" {
		return fmt.Sprintf("A web page at %s", rawURL)
	}
	return "A web page with the following content: " + text
}

// ExtractText parses an HTML response and returns its visible text with
// chrome (scripts, navigation, metadata) stripped and whitespace collapsed.
func ExtractText(resp *http.Response) (string, error) {
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript, iframe, link, meta, header, footer, nav").Remove()
	text := collapseWhitespace(doc.Text())
	if len(text) > maxPageText {
		text = text[:maxPageText] + "…"
	}
	return text, nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
