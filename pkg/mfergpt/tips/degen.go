package tips

import (
	"context"
	"net/url"
)

// AirdropPoints fetches a wallet's degen airdrop points for a season.
// An empty season means the current one.
func (c *Client) AirdropPoints(ctx context.Context, season, wallet string) (any, error) {
	if season == "" {
		season = "current"
	}
	q := url.Values{}
	q.Set("wallet", wallet)
	return c.getJSON(ctx, c.degenURL("/airdrop2/"+url.PathEscape(season)+"/points", q))
}

// AirdropAllowances fetches a user's degen tip allowance, keyed by wallet
// or by fid (whichever is set).
func (c *Client) AirdropAllowances(ctx context.Context, wallet, fid string) (any, error) {
	q := url.Values{}
	if wallet != "" {
		q.Set("wallet", wallet)
	}
	if fid != "" {
		q.Set("fid", fid)
	}
	return c.getJSON(ctx, c.degenURL("/airdrop2/allowances", q))
}

// AirdropTips fetches the degen tips a user has sent.
func (c *Client) AirdropTips(ctx context.Context, fid, limit, offset string) (any, error) {
	q := url.Values{}
	q.Set("fid", fid)
	if limit != "" {
		q.Set("limit", limit)
	}
	if offset != "" {
		q.Set("offset", offset)
	}
	return c.getJSON(ctx, c.degenURL("/airdrop2/tips", q))
}
