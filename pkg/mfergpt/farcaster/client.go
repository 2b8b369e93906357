package farcaster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to the Neynar Farcaster API.
type Client struct {
	baseURL    string
	apiKey     string
	signerUUID string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Farcaster client.
func New(baseURL, apiKey, signerUUID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = "https://api.neynar.com"
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		signerUUID: signerUUID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.With("component", "farcaster"),
	}
}

// get performs a GET request against the API and decodes the JSON body.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api_key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// Conversation fetches a thread's root cast with nested replies.
func (c *Client) Conversation(ctx context.Context, castHash string, replyDepth int, includeParents bool, limit int) (*Cast, error) {
	q := url.Values{}
	q.Set("identifier", castHash)
	q.Set("type", "hash")
	q.Set("reply_depth", strconv.Itoa(replyDepth))
	q.Set("include_chronological_parent_casts", strconv.FormatBool(includeParents))
	q.Set("limit", strconv.Itoa(limit))

	var resp conversationResponse
	if err := c.get(ctx, "/v2/farcaster/cast/conversation", q, &resp); err != nil {
		return nil, err
	}
	return &resp.Conversation.Cast, nil
}

// ThreadMessages returns a thread's casts flattened depth-first: the root
// cast first, then every nested reply.
func (c *Client) ThreadMessages(ctx context.Context, castHash string) ([]Cast, error) {
	root, err := c.Conversation(ctx, castHash, 2, false, 20)
	if err != nil {
		return nil, err
	}
	return flatten(*root), nil
}

// flatten returns the cast followed by all nested direct replies.
func flatten(cast Cast) []Cast {
	out := []Cast{cast}
	for _, reply := range cast.DirectReplies {
		out = append(out, flatten(reply)...)
	}
	return out
}

// ThreadContext renders a thread as the "DisplayName: text" context string
// handed to the assistant. A fetch failure yields an empty context rather
// than an error: the assistant can still answer from the latest cast alone.
func (c *Client) ThreadContext(ctx context.Context, castHash string) string {
	messages, err := c.ThreadMessages(ctx, castHash)
	if err != nil {
		c.logger.Error("failed to fetch thread context", "thread", castHash, "error", err)
		return ""
	}
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Author.DisplayName, msg.Text))
	}
	c.logger.Debug("fetched thread context", "thread", castHash, "messages", len(messages))
	return strings.Join(lines, "\n")
}

// CastByHash fetches a single cast.
func (c *Client) CastByHash(ctx context.Context, hash string) (*Cast, error) {
	q := url.Values{}
	q.Set("identifier", hash)
	q.Set("type", "hash")

	var resp castResponse
	if err := c.get(ctx, "/v2/farcaster/cast", q, &resp); err != nil {
		return nil, err
	}
	return &resp.Cast, nil
}

// SearchUser returns the closest user match for a query, or nil when no
// user matches.
func (c *Client) SearchUser(ctx context.Context, query string) (*User, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", "5")

	var resp userSearchResponse
	if err := c.get(ctx, "/v2/farcaster/user/search", q, &resp); err != nil {
		return nil, err
	}
	if len(resp.Result.Users) == 0 {
		return nil, nil
	}
	return &resp.Result.Users[0], nil
}

// ResolveFID resolves a FID from a string that may be a numeric FID or a
// username. Non-numeric input falls back to user search.
func (c *Client) ResolveFID(ctx context.Context, fidOrUsername string) (int64, error) {
	if fid, err := strconv.ParseInt(fidOrUsername, 10, 64); err == nil && fid > 0 {
		return fid, nil
	}
	c.logger.Warn("invalid FID, resolving as username", "value", fidOrUsername)
	user, err := c.SearchUser(ctx, fidOrUsername)
	if err != nil {
		return 0, err
	}
	if user == nil || user.FID == 0 {
		return 0, fmt.Errorf("no user found for %q", fidOrUsername)
	}
	return user.FID, nil
}

// PopularCasts fetches a user's most popular casts.
func (c *Client) PopularCasts(ctx context.Context, fid int64) ([]Cast, error) {
	q := url.Values{}
	q.Set("fid", strconv.FormatInt(fid, 10))
	q.Set("limit", "3")

	var resp feedResponse
	if err := c.get(ctx, "/v2/farcaster/feed/user/popular", q, &resp); err != nil {
		return nil, err
	}
	return resp.Casts, nil
}

// RecentCasts fetches a user's recent replies and recasts.
func (c *Client) RecentCasts(ctx context.Context, fid int64) ([]Cast, error) {
	q := url.Values{}
	q.Set("fid", strconv.FormatInt(fid, 10))
	q.Set("filter", "all")
	q.Set("limit", "3")

	var resp feedResponse
	if err := c.get(ctx, "/v2/farcaster/feed/user/replies_and_recasts", q, &resp); err != nil {
		return nil, err
	}
	return resp.Casts, nil
}

// SearchChannels searches channels by name.
func (c *Client) SearchChannels(ctx context.Context, query string) ([]Channel, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", "3")

	var resp channelSearchResponse
	if err := c.get(ctx, "/v2/farcaster/channel/search", q, &resp); err != nil {
		return nil, err
	}
	return resp.Channels, nil
}

// TrendingCasts fetches trending casts for a channel within a time window
// (e.g. "6h", "7d").
func (c *Client) TrendingCasts(ctx context.Context, channelID string, limit int, timeWindow string) ([]TrendingSample, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("time_window", timeWindow)
	q.Set("channel_id", channelID)
	q.Set("provider", "neynar")

	var resp feedResponse
	if err := c.get(ctx, "/v2/farcaster/feed/trending", q, &resp); err != nil {
		return nil, err
	}

	samples := make([]TrendingSample, 0, len(resp.Casts))
	for _, cast := range resp.Casts {
		sample := TrendingSample{
			Hash:         cast.Hash,
			Text:         cast.Text,
			Timestamp:    cast.Timestamp,
			Author:       cast.Author.Username,
			AuthorFID:    cast.Author.FID,
			LikesCount:   cast.Reactions.LikesCount,
			RecastsCount: cast.Reactions.RecastsCount,
			RepliesCount: cast.Replies.Count,
			Embeds:       cast.Embeds,
		}
		if cast.Channel != nil {
			sample.Channel = cast.Channel.Name
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

// PublishCast publishes one cast under the client's signing identity.
// Text must already fit the per-cast byte budget (see SplitMessage).
func (c *Client) PublishCast(ctx context.Context, text string, opts PublishOptions) (*Cast, error) {
	payload := publishRequest{
		SignerUUID: c.signerUUID,
		Text:       text,
		Parent:     opts.ReplyTo,
		ChannelID:  opts.ChannelID,
		Embeds:     opts.Embeds,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode publish request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/farcaster/cast", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build publish request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api_key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("publish cast: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("publish cast: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var published castResponse
	if err := json.NewDecoder(resp.Body).Decode(&published); err != nil {
		return nil, fmt.Errorf("decode publish response: %w", err)
	}
	c.logger.Info("cast published", "hash", published.Cast.Hash, "bytes", len(text), "reply_to", opts.ReplyTo)
	return &published.Cast, nil
}
