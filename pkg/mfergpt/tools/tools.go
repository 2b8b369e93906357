package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mferlabs/mfergpt/pkg/mfergpt/farcaster"
	"github.com/mferlabs/mfergpt/pkg/mfergpt/mfers"
)

// Social is the Farcaster surface the tools need.
type Social interface {
	BuildUserProfile(ctx context.Context, username string, fetchRecent, fetchPopular bool) *farcaster.UserProfileDetails
	BuildChannelDetails(ctx context.Context, query string, fetchTrending bool) *farcaster.ChannelDetails
	ResolveFID(ctx context.Context, fidOrUsername string) (int64, error)
}

// ImageGenerator produces a hosted image URL from a prompt.
type ImageGenerator interface {
	GenerateHostedImage(ctx context.Context, prompt string) (string, error)
}

// URLInterpreter describes what a URL points at.
type URLInterpreter interface {
	InterpretURL(ctx context.Context, url, prompt string) string
}

// MferLookup fetches mfer trait descriptions.
type MferLookup interface {
	Description(ctx context.Context, id int) (string, error)
}

// TipsAPI is the tipping data surface the tools need.
type TipsAPI interface {
	VerifyTip(ctx context.Context, castHash string) (any, error)
	UserHamInfo(ctx context.Context, fid string) (any, error)
	HamScores(ctx context.Context, page string) (any, error)
	FloatyLeaderboard(ctx context.Context, token, page string) (any, error)
	FloatiesLeaderboard(ctx context.Context) (any, error)
	FloatyReceivers(ctx context.Context, token, page string) (any, error)
	FloatyBalancesByFID(ctx context.Context, fid string) (any, error)
	AirdropPoints(ctx context.Context, season, wallet string) (any, error)
	AirdropAllowances(ctx context.Context, wallet, fid string) (any, error)
	AirdropTips(ctx context.Context, fid, limit, offset string) (any, error)
}

// ProfileCache stores fetched user profiles. Entries have no TTL.
type ProfileCache interface {
	Profile(username string) (json.RawMessage, bool)
	SaveProfile(username string, profile json.RawMessage) error
}

// Deps carries the service clients the default tool set dispatches to.
type Deps struct {
	Social   Social
	Images   ImageGenerator
	URLs     URLInterpreter
	Mfers    MferLookup
	Tips     TipsAPI
	Profiles ProfileCache
	Logger   *slog.Logger
}

// flexString accepts a JSON string or number; tool arguments produced by a
// model are loose about which one a numeric field arrives as.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", string(data))
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) String() string { return strings.TrimSpace(string(f)) }

// NewDefault builds the full tool registry over the given dependencies.
func NewDefault(deps Deps) *Registry {
	r := NewRegistry(deps.Logger)

	r.Register("fetch_user_profile", func(ctx context.Context, args json.RawMessage) (any, error) {
		var req struct {
			Username     string `json:"username"`
			FetchLatest  *bool  `json:"shouldFetchLatestCasts"`
			FetchPopular *bool  `json:"shouldFetchPopularCasts"`
		}
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		if req.Username == "" {
			return nil, fmt.Errorf("username is required")
		}
		fetchRecent := req.FetchLatest == nil || *req.FetchLatest
		fetchPopular := req.FetchPopular == nil || *req.FetchPopular
		username := strings.TrimPrefix(req.Username, "@")

		if deps.Profiles != nil {
			if cached, ok := deps.Profiles.Profile(username); ok {
				return cached, nil
			}
		}
		details := deps.Social.BuildUserProfile(ctx, username, fetchRecent, fetchPopular)
		if deps.Profiles != nil && details.Error == "" {
			if payload, err := json.Marshal(details); err == nil {
				if err := deps.Profiles.SaveProfile(username, payload); err != nil {
					r.logger.Warn("profile cache write failed", "username", username, "error", err)
				}
			}
		}
		return details, nil
	})

	r.Register("fetch_channel_details", func(ctx context.Context, args json.RawMessage) (any, error) {
		var req struct {
			Query         string `json:"query"`
			FetchTrending *bool  `json:"shouldFetchTrendingCasts"`
		}
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		if req.Query == "" {
			return nil, fmt.Errorf("query is required")
		}
		fetchTrending := req.FetchTrending == nil || *req.FetchTrending
		return deps.Social.BuildChannelDetails(ctx, req.Query, fetchTrending), nil
	})

	r.Register("generate_image", func(ctx context.Context, args json.RawMessage) (any, error) {
		var req struct {
			Prompt string `json:"prompt"`
		}
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		if req.Prompt == "" {
			return nil, fmt.Errorf("prompt is required")
		}
		url, err := deps.Images.GenerateHostedImage(ctx, req.Prompt)
		if err != nil {
			return nil, err
		}
		return map[string]string{"image_url": url}, nil
	})

	r.Register("fetch_url_details", func(ctx context.Context, args json.RawMessage) (any, error) {
		var req struct {
			URL    string `json:"url"`
			Prompt string `json:"prompt"`
		}
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		if req.URL == "" {
			return nil, fmt.Errorf("url is required")
		}
		return map[string]string{"description": deps.URLs.InterpretURL(ctx, req.URL, req.Prompt)}, nil
	})

	r.Register("get_mfer_description", func(ctx context.Context, args json.RawMessage) (any, error) {
		var req struct {
			ID flexString `json:"id"`
		}
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		id, err := strconv.Atoi(req.ID.String())
		if err != nil {
			return nil, fmt.Errorf("id must be a number between 0 and %d", mfers.MaxID)
		}
		desc, err := deps.Mfers.Description(ctx, id)
		if err != nil {
			return nil, err
		}
		return map[string]string{"description": desc}, nil
	})

	r.Register("verify_tip", func(ctx context.Context, args json.RawMessage) (any, error) {
		var req struct {
			MessageID string `json:"messageId"`
		}
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		if req.MessageID == "" {
			return nil, fmt.Errorf("messageId is required")
		}
		return deps.Tips.VerifyTip(ctx, req.MessageID)
	})

	r.Register("get_user_ham_info", fidTool(deps, deps.Tips.UserHamInfo))
	r.Register("get_floaty_balances_fid", fidTool(deps, deps.Tips.FloatyBalancesByFID))

	r.Register("get_ham_scores", func(ctx context.Context, args json.RawMessage) (any, error) {
		var req struct {
			Page flexString `json:"page"`
		}
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		return deps.Tips.HamScores(ctx, req.Page.String())
	})

	r.Register("get_floaty_leaderboard", tokenPageTool(deps.Tips.FloatyLeaderboard))
	r.Register("get_floaty_receivers", tokenPageTool(deps.Tips.FloatyReceivers))
	r.Register("get_floaties_leaderboard", func(ctx context.Context, _ json.RawMessage) (any, error) {
		return deps.Tips.FloatiesLeaderboard(ctx)
	})

	r.Register("fetch_airdrop_points", func(ctx context.Context, args json.RawMessage) (any, error) {
		var req struct {
			Season flexString `json:"season"`
			Wallet string     `json:"wallet"`
		}
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		if req.Wallet == "" {
			return nil, fmt.Errorf("wallet is required")
		}
		return deps.Tips.AirdropPoints(ctx, req.Season.String(), req.Wallet)
	})

	r.Register("fetch_airdrop_allowances", func(ctx context.Context, args json.RawMessage) (any, error) {
		var req struct {
			Wallet string     `json:"wallet"`
			FID    flexString `json:"fid"`
		}
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		if req.Wallet != "" {
			return deps.Tips.AirdropAllowances(ctx, req.Wallet, "")
		}
		if req.FID.String() == "" {
			return nil, fmt.Errorf("wallet or fid is required")
		}
		fid, err := resolveFID(ctx, deps.Social, req.FID.String())
		if err != nil {
			return nil, err
		}
		return deps.Tips.AirdropAllowances(ctx, "", fid)
	})

	r.Register("fetch_airdrop_tips", func(ctx context.Context, args json.RawMessage) (any, error) {
		var req struct {
			FID    flexString `json:"fid"`
			Limit  flexString `json:"limit"`
			Offset flexString `json:"offset"`
		}
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		fid, err := resolveFID(ctx, deps.Social, req.FID.String())
		if err != nil {
			return nil, err
		}
		return deps.Tips.AirdropTips(ctx, fid, req.Limit.String(), req.Offset.String())
	})

	return r
}

// fidTool builds a handler for tools whose only argument is a FID (or a
// username that resolves to one).
func fidTool(deps Deps, fetch func(ctx context.Context, fid string) (any, error)) Handler {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		var req struct {
			FID flexString `json:"fid"`
		}
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		fid, err := resolveFID(ctx, deps.Social, req.FID.String())
		if err != nil {
			return nil, err
		}
		return fetch(ctx, fid)
	}
}

// tokenPageTool builds a handler for leaderboard tools with an optional
// token filter and page number.
func tokenPageTool(fetch func(ctx context.Context, token, page string) (any, error)) Handler {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		var req struct {
			Token flexString `json:"token"`
			Page  flexString `json:"page"`
		}
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		return fetch(ctx, req.Token.String(), req.Page.String())
	}
}

// resolveFID normalizes a fid argument, falling back to username search for
// non-numeric input.
func resolveFID(ctx context.Context, social Social, value string) (string, error) {
	if value == "" {
		return "", fmt.Errorf("fid is required")
	}
	fid, err := social.ResolveFID(ctx, strings.TrimPrefix(value, "@"))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(fid, 10), nil
}
