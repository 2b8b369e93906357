// Package farcaster implements a REST client for the Farcaster network via
// the Neynar API: conversation reads, user/channel search, feeds, and cast
// publication.
package farcaster

// User is a Farcaster account as returned by the Neynar API.
type User struct {
	FID            int64    `json:"fid"`
	Username       string   `json:"username"`
	DisplayName    string   `json:"display_name"`
	PfpURL         string   `json:"pfp_url"`
	FollowerCount  int      `json:"follower_count"`
	FollowingCount int      `json:"following_count"`
	Verifications  []string `json:"verifications"`
	ActiveStatus   string   `json:"active_status"`
	PowerBadge     bool     `json:"power_badge"`
	Profile        struct {
		Bio struct {
			Text string `json:"text"`
		} `json:"bio"`
	} `json:"profile"`
	VerifiedAddresses struct {
		EthAddresses []string `json:"eth_addresses"`
	} `json:"verified_addresses"`
}

// CastID references a cast by author FID and hash (used in quote embeds).
type CastID struct {
	FID  int64  `json:"fid"`
	Hash string `json:"hash"`
}

// Embed is a cast attachment: either a URL or a quoted cast.
type Embed struct {
	URL    string  `json:"url,omitempty"`
	CastID *CastID `json:"cast_id,omitempty"`
}

// Reactions holds like/recast counters for a cast.
type Reactions struct {
	LikesCount   int `json:"likes_count"`
	RecastsCount int `json:"recasts_count"`
}

// ChannelRef is the channel a cast was posted in.
type ChannelRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Cast is a single Farcaster message. DirectReplies is populated only by
// the conversation endpoint.
type Cast struct {
	Hash              string      `json:"hash"`
	ThreadHash        string      `json:"thread_hash"`
	ParentHash        string      `json:"parent_hash"`
	Text              string      `json:"text"`
	Timestamp         string      `json:"timestamp"`
	Author            User        `json:"author"`
	MentionedProfiles []User      `json:"mentioned_profiles"`
	Embeds            []Embed     `json:"embeds"`
	Reactions         Reactions   `json:"reactions"`
	Channel           *ChannelRef `json:"channel"`
	DirectReplies     []Cast      `json:"direct_replies"`
	Replies           struct {
		Count int `json:"count"`
	} `json:"replies"`
}

// Channel is a Farcaster channel as returned by channel search.
type Channel struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	FollowerCount int    `json:"follower_count"`
	URL           string `json:"url"`
	ImageURL      string `json:"image_url"`
	CreatedAt     int64  `json:"created_at"`
	Lead          User   `json:"lead"`
}

// conversationResponse is the wire shape of the conversation endpoint.
type conversationResponse struct {
	Conversation struct {
		Cast Cast `json:"cast"`
	} `json:"conversation"`
}

// castResponse is the wire shape of the single-cast endpoint.
type castResponse struct {
	Cast Cast `json:"cast"`
}

// userSearchResponse is the wire shape of the user search endpoint.
type userSearchResponse struct {
	Result struct {
		Users []User `json:"users"`
	} `json:"result"`
}

// channelSearchResponse is the wire shape of the channel search endpoint.
type channelSearchResponse struct {
	Channels []Channel `json:"channels"`
}

// feedResponse is the wire shape of the feed/trending endpoints.
type feedResponse struct {
	Casts []Cast `json:"casts"`
}

// PublishOptions carries the optional parts of a cast publication.
type PublishOptions struct {
	// ReplyTo threads the cast under an existing cast hash.
	ReplyTo string

	// ChannelID posts the cast into a channel.
	ChannelID string

	// Embeds attaches URLs and/or quoted casts.
	Embeds []Embed
}

// publishRequest is the wire shape of the cast publication endpoint.
type publishRequest struct {
	SignerUUID string  `json:"signer_uuid"`
	Text       string  `json:"text"`
	Parent     string  `json:"parent,omitempty"`
	ChannelID  string  `json:"channel_id,omitempty"`
	Embeds     []Embed `json:"embeds,omitempty"`
}

// CastSample is the condensed cast shape fed to the assistant as tool
// output (profile/channel context).
type CastSample struct {
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	Author    string `json:"author"`
}

// TrendingSample extends CastSample with engagement counters.
type TrendingSample struct {
	Hash         string  `json:"hash,omitempty"`
	Text         string  `json:"text"`
	Timestamp    string  `json:"timestamp"`
	Author       string  `json:"author"`
	AuthorFID    int64   `json:"authorFid,omitempty"`
	LikesCount   int     `json:"likesCount"`
	RecastsCount int     `json:"recastsCount"`
	RepliesCount int     `json:"repliesCount"`
	Embeds       []Embed `json:"embeds,omitempty"`
	Channel      string  `json:"channel,omitempty"`
}

// ProfileSummary is the condensed user shape fed to the assistant.
type ProfileSummary struct {
	Username          string   `json:"username"`
	DisplayName       string   `json:"displayName"`
	Bio               string   `json:"bio"`
	FollowerCount     int      `json:"followerCount"`
	FollowingCount    int      `json:"followingCount"`
	PfpURL            string   `json:"pfpUrl,omitempty"`
	Verifications     []string `json:"verifications,omitempty"`
	VerifiedAddresses []string `json:"verifiedAddresses,omitempty"`
	ActiveStatus      string   `json:"activeStatus,omitempty"`
	PowerBadge        bool     `json:"powerBadge"`
	FID               int64    `json:"fid"`
}

// UserProfileDetails is the consolidated tool output for a user lookup.
type UserProfileDetails struct {
	Profile      *ProfileSummary `json:"profile"`
	PopularCasts []CastSample    `json:"popularCasts"`
	RecentCasts  []CastSample    `json:"recentCasts"`
	Error        string          `json:"error,omitempty"`
}

// ChannelSummary is the condensed channel shape fed to the assistant.
type ChannelSummary struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	FollowerCount int             `json:"followerCount"`
	URL           string          `json:"url"`
	ImageURL      string          `json:"imageUrl"`
	Lead          *ProfileSummary `json:"lead,omitempty"`
}

// ChannelDetails is the consolidated tool output for a channel lookup.
type ChannelDetails struct {
	Channel       *ChannelSummary  `json:"channel"`
	TrendingCasts []TrendingSample `json:"trendingCasts"`
	Error         string           `json:"error,omitempty"`
}
