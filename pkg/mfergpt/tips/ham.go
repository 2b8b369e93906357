package tips

import (
	"context"
	"net/url"
)

// VerifyTip checks whether a cast carried a valid ham tip.
func (c *Client) VerifyTip(ctx context.Context, castHash string) (any, error) {
	return c.getJSON(ctx, c.hamURL("/ham/verify-tip/"+url.PathEscape(castHash), nil))
}

// UserHamInfo fetches a user's ham balances and tipping stats.
func (c *Client) UserHamInfo(ctx context.Context, fid string) (any, error) {
	return c.getJSON(ctx, c.hamURL("/ham/user/"+url.PathEscape(fid), nil))
}

// HamScores fetches a page of the ham scores table.
func (c *Client) HamScores(ctx context.Context, page string) (any, error) {
	q := url.Values{}
	if page != "" {
		q.Set("page", page)
	}
	return c.getJSON(ctx, c.hamURL("/ham/ham-scores", q))
}

// FloatyLeaderboard fetches a page of the floaty senders leaderboard for a
// token address.
func (c *Client) FloatyLeaderboard(ctx context.Context, token, page string) (any, error) {
	q := url.Values{}
	if page != "" {
		q.Set("page", page)
	}
	return c.getJSON(ctx, c.hamURL("/floaties/sent/leaderboard/"+url.PathEscape(token), q))
}

// FloatiesLeaderboard fetches how many floaties have been tipped across all
// supported coins.
func (c *Client) FloatiesLeaderboard(ctx context.Context) (any, error) {
	return c.getJSON(ctx, c.hamURL("/floaties/leaderboard", nil))
}

// FloatyReceivers fetches a page of the floaty receivers leaderboard for a
// token address.
func (c *Client) FloatyReceivers(ctx context.Context, token, page string) (any, error) {
	q := url.Values{}
	if page != "" {
		q.Set("page", page)
	}
	return c.getJSON(ctx, c.hamURL("/floaties/leaderboard/"+url.PathEscape(token), q))
}

// FloatyBalancesByFID fetches a user's floaty balances.
func (c *Client) FloatyBalancesByFID(ctx context.Context, fid string) (any, error) {
	return c.getJSON(ctx, c.hamURL("/floaties/balance/fid/"+url.PathEscape(fid), nil))
}
