package models

// Response shapes assembled by the read pipelines. Fields tagged json:"-"
// hold joined collections used to compute the exported counters and flags.

// UserSummary is the public projection of a user embedded in other records.
type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar"`
}

// SummaryOf projects a user onto its public fields.
func SummaryOf(u *User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Username: u.Username, FullName: u.FullName, Avatar: u.Avatar}
}

// ChannelSummary is a video owner with subscriber information.
type ChannelSummary struct {
	UserSummary
	SubscribersCount int64 `json:"subscribersCount"`
	IsSubscribed     bool  `json:"isSubscribed"`

	Subscribers []Subscription `json:"-"`
}

// VideoView is a video as returned to a viewer.
type VideoView struct {
	Video
	Owner      *ChannelSummary `json:"owner"`
	LikesCount int64           `json:"likesCount"`
	IsLiked    bool            `json:"isLiked"`

	Likes []Like `json:"-"`
}

// CommentView is a comment with its author and like information.
type CommentView struct {
	Comment
	Owner      *UserSummary `json:"owner"`
	LikesCount int64        `json:"likesCount"`
	IsLiked    bool         `json:"isLiked"`

	Likes []Like `json:"-"`
}

// TweetView is a tweet with its author and like information.
type TweetView struct {
	Tweet
	Owner      *UserSummary `json:"owner"`
	LikesCount int64        `json:"likesCount"`
	IsLiked    bool         `json:"isLiked"`

	Likes []Like `json:"-"`
}

// SubscriberView is one subscriber of a channel. SubscribedToSubscriber is
// true when the channel subscribes back.
type SubscriberView struct {
	UserSummary
	SubscribersCount       int64 `json:"subscribersCount"`
	SubscribedToSubscriber bool  `json:"subscribedToSubscriber"`

	Subscribers []Subscription `json:"-"`
}

// SubscribedChannelView is one channel a user subscribes to.
type SubscribedChannelView struct {
	UserSummary
	LatestVideo *Video `json:"latestVideo"`
}

// PlaylistView is a playlist with aggregate totals. Videos is only populated
// on detail reads.
type PlaylistView struct {
	Playlist
	Owner       *UserSummary `json:"owner,omitempty"`
	TotalVideos int64        `json:"totalVideos"`
	TotalViews  int64        `json:"totalViews"`
	Videos      []*VideoView `json:"videos,omitempty"`

	Entries []PlaylistVideo `json:"-"`
	Members []*VideoView    `json:"-"`
}

// ChannelProfile is a channel page header.
type ChannelProfile struct {
	UserSummary
	Email                     string `json:"email"`
	CoverImage                string `json:"coverImage"`
	SubscribersCount          int64  `json:"subscribersCount"`
	ChannelsSubscribedToCount int64  `json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed"`

	Subscribers  []Subscription `json:"-"`
	SubscribedTo []Subscription `json:"-"`
}

// ChannelStats aggregates a channel for its owner's dashboard.
type ChannelStats struct {
	TotalSubscribers int64 `json:"totalSubscribers"`
	TotalLikes       int64 `json:"totalLikes"`
	TotalViews       int64 `json:"totalViews"`
	TotalVideos      int64 `json:"totalVideos"`
}

