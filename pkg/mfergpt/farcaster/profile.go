package farcaster

import (
	"context"
	"fmt"
	"sync"
)

// summarizeUser condenses a wire User into the shape fed to the assistant.
func summarizeUser(user *User) *ProfileSummary {
	if user == nil {
		return nil
	}
	return &ProfileSummary{
		Username:          user.Username,
		DisplayName:       user.DisplayName,
		Bio:               user.Profile.Bio.Text,
		FollowerCount:     user.FollowerCount,
		FollowingCount:    user.FollowingCount,
		PfpURL:            user.PfpURL,
		Verifications:     user.Verifications,
		VerifiedAddresses: user.VerifiedAddresses.EthAddresses,
		ActiveStatus:      user.ActiveStatus,
		PowerBadge:        user.PowerBadge,
		FID:               user.FID,
	}
}

// sampleCasts condenses casts into the text/timestamp/author triples used
// as assistant context.
func sampleCasts(casts []Cast) []CastSample {
	samples := make([]CastSample, 0, len(casts))
	for _, cast := range casts {
		samples = append(samples, CastSample{
			Text:      cast.Text,
			Timestamp: cast.Timestamp,
			Author:    cast.Author.Username,
		})
	}
	return samples
}

// BuildUserProfile builds a consolidated profile for a username on demand:
// the profile lookup first (to learn the FID), then popular and recent
// casts fetched concurrently when requested. Lookup failures are reported
// inside the result rather than as an error so the payload can be handed
// straight back to the assistant.
func (c *Client) BuildUserProfile(ctx context.Context, username string, fetchRecent, fetchPopular bool) *UserProfileDetails {
	details := &UserProfileDetails{
		PopularCasts: []CastSample{},
		RecentCasts:  []CastSample{},
	}

	user, err := c.SearchUser(ctx, username)
	if err != nil {
		details.Error = err.Error()
		return details
	}
	if user == nil || user.FID == 0 {
		c.logger.Warn("no FID found for username", "username", username)
		details.Error = fmt.Sprintf("User profile not found for %s", username)
		return details
	}
	details.Profile = summarizeUser(user)

	var wg sync.WaitGroup
	var popular, recent []Cast
	var popErr, recErr error
	if fetchPopular {
		wg.Add(1)
		go func() {
			defer wg.Done()
			popular, popErr = c.PopularCasts(ctx, user.FID)
		}()
	}
	if fetchRecent {
		wg.Add(1)
		go func() {
			defer wg.Done()
			recent, recErr = c.RecentCasts(ctx, user.FID)
		}()
	}
	wg.Wait()

	if popErr != nil {
		c.logger.Error("failed to fetch popular casts", "fid", user.FID, "error", popErr)
	}
	if recErr != nil {
		c.logger.Error("failed to fetch recent casts", "fid", user.FID, "error", recErr)
	}
	details.PopularCasts = sampleCasts(popular)
	details.RecentCasts = sampleCasts(recent)
	return details
}

// BuildChannelDetails builds consolidated channel details for a search
// query, optionally including the channel's trending casts. Like
// BuildUserProfile, failures are reported inside the result.
func (c *Client) BuildChannelDetails(ctx context.Context, query string, fetchTrending bool) *ChannelDetails {
	details := &ChannelDetails{TrendingCasts: []TrendingSample{}}

	channels, err := c.SearchChannels(ctx, query)
	if err != nil {
		details.Error = err.Error()
		return details
	}
	if len(channels) == 0 {
		c.logger.Warn("no channel found", "query", query)
		details.Error = fmt.Sprintf("Channel details not found for ID: %s", query)
		return details
	}

	channel := channels[0]
	details.Channel = &ChannelSummary{
		ID:            channel.ID,
		Name:          channel.Name,
		Description:   channel.Description,
		FollowerCount: channel.FollowerCount,
		URL:           channel.URL,
		ImageURL:      channel.ImageURL,
		Lead:          summarizeUser(&channel.Lead),
	}

	if fetchTrending {
		trending, err := c.TrendingCasts(ctx, channel.ID, 5, "7d")
		if err != nil {
			c.logger.Error("failed to fetch trending casts", "channel", channel.ID, "error", err)
		} else {
			details.TrendingCasts = trending
		}
	}
	return details
}
