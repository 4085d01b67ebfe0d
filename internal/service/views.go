package service

import (
	"context"
	"strings"
	"time"

	"videotube/internal/models"
	"videotube/internal/relview"
	"videotube/internal/repository"
)

// Views builds the read pipelines. Every join loads its collection with one
// batched repository call.
type Views struct {
	users     repository.UserRepository
	videos    repository.VideoRepository
	likes     repository.LikeRepository
	subs      repository.SubscriptionRepository
	playlists repository.PlaylistRepository
}

func NewViews(
	users repository.UserRepository,
	videos repository.VideoRepository,
	likes repository.LikeRepository,
	subs repository.SubscriptionRepository,
	playlists repository.PlaylistRepository,
) *Views {
	return &Views{users: users, videos: videos, likes: likes, subs: subs, playlists: playlists}
}

func likedBy(l models.Like) uint             { return l.LikedByID }
func subscriberOf(s models.Subscription) uint { return s.SubscriberID }
func channelOf(s models.Subscription) uint    { return s.ChannelID }

// loadSummaries loads users as public summaries.
func (v *Views) loadSummaries(ctx context.Context, ids []uint) ([]*models.UserSummary, error) {
	users, err := v.users.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*models.UserSummary, len(users))
	for i, u := range users {
		out[i] = models.SummaryOf(u)
	}
	return out, nil
}

func (v *Views) loadChannels(ctx context.Context, ids []uint) ([]*models.ChannelSummary, error) {
	users, err := v.users.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*models.ChannelSummary, len(users))
	for i, u := range users {
		out[i] = &models.ChannelSummary{UserSummary: *models.SummaryOf(u)}
	}
	return out, nil
}

func (v *Views) likesOf(kind models.LikeTargetKind) relview.Loader[models.Like] {
	return func(ctx context.Context, ids []uint) ([]models.Like, error) {
		return v.likes.ByTargets(ctx, kind, ids)
	}
}

// channelSubscribers joins the subscriptions pointing at a channel.
func (v *Views) channelSubscribers() relview.Join[*models.ChannelSummary, models.Subscription] {
	return relview.Join[*models.ChannelSummary, models.Subscription]{
		Name:   "owner.subscribers",
		Keys:   relview.Key(func(c *models.ChannelSummary) uint { return c.ID }),
		Match:  channelOf,
		Load:   v.subs.ByChannels,
		Assign: func(c *models.ChannelSummary, rs []models.Subscription) { c.Subscribers = rs },
	}
}

// videoJoins expands a video with its owner (and the owner's subscribers)
// and its likes.
func (v *Views) videoJoins() []relview.Resolver[*models.VideoView] {
	owner := relview.Join[*models.VideoView, *models.ChannelSummary]{
		Name:   "owner",
		Keys:   relview.Key(func(r *models.VideoView) uint { return r.OwnerID }),
		Match:  func(c *models.ChannelSummary) uint { return c.ID },
		Load:   v.loadChannels,
		Single: true,
		Assign: func(r *models.VideoView, rs []*models.ChannelSummary) {
			r.Owner, _ = relview.First(rs)
		},
		Nested: []relview.Resolver[*models.ChannelSummary]{v.channelSubscribers()},
	}
	likes := relview.Join[*models.VideoView, models.Like]{
		Name:   "likes",
		Keys:   relview.Key(func(r *models.VideoView) uint { return r.ID }),
		Match:  models.Like.TargetID,
		Load:   v.likesOf(models.LikeTargetVideo),
		Assign: func(r *models.VideoView, rs []models.Like) { r.Likes = rs },
	}
	return []relview.Resolver[*models.VideoView]{owner, likes}
}

func annotateVideo(r *models.VideoView, viewer relview.Viewer) {
	r.LikesCount = relview.Count(r.Likes)
	r.IsLiked = relview.Contains(viewer, r.Likes, likedBy)
	if r.Owner != nil {
		r.Owner.SubscribersCount = relview.Count(r.Owner.Subscribers)
		r.Owner.IsSubscribed = relview.Contains(viewer, r.Owner.Subscribers, subscriberOf)
	}
}

var videoRanking = relview.Ranking[*models.VideoView]{
	CreatedAt: func(r *models.VideoView) time.Time { return r.CreatedAt },
	ID:        func(r *models.VideoView) uint { return r.ID },
	Fields: map[string]relview.SortField[*models.VideoView]{
		"views":      relview.Field(func(r *models.VideoView) int64 { return r.Views }),
		"duration":   relview.Field(func(r *models.VideoView) float64 { return r.Duration }),
		"title":      relview.Field(func(r *models.VideoView) string { return strings.ToLower(r.Title) }),
		"likesCount": relview.JoinedField(func(r *models.VideoView) int64 { return relview.Count(r.Likes) }),
	},
}

// Videos is the pipeline of video listings and details.
func (v *Views) Videos(filters ...func(*models.VideoView) bool) relview.Pipeline[*models.VideoView] {
	return relview.Pipeline[*models.VideoView]{
		Name:     "videos",
		Joins:    v.videoJoins(),
		Filters:  filters,
		Ranking:  videoRanking,
		Annotate: annotateVideo,
	}
}

// visibleTo keeps published videos and the viewer's own drafts.
func visibleTo(viewer relview.Viewer) func(*models.VideoView) bool {
	return func(r *models.VideoView) bool {
		return r.IsPublished || viewer.Is(r.OwnerID)
	}
}

func videoViews(videos []*models.Video) []*models.VideoView {
	out := make([]*models.VideoView, len(videos))
	for i, vid := range videos {
		out[i] = &models.VideoView{Video: *vid}
	}
	return out
}

func (v *Views) Comments() relview.Pipeline[*models.CommentView] {
	owner := relview.Join[*models.CommentView, *models.UserSummary]{
		Name:   "owner",
		Keys:   relview.Key(func(r *models.CommentView) uint { return r.OwnerID }),
		Match:  func(u *models.UserSummary) uint { return u.ID },
		Load:   v.loadSummaries,
		Single: true,
		Assign: func(r *models.CommentView, rs []*models.UserSummary) { r.Owner, _ = relview.First(rs) },
	}
	likes := relview.Join[*models.CommentView, models.Like]{
		Name:   "likes",
		Keys:   relview.Key(func(r *models.CommentView) uint { return r.ID }),
		Match:  models.Like.TargetID,
		Load:   v.likesOf(models.LikeTargetComment),
		Assign: func(r *models.CommentView, rs []models.Like) { r.Likes = rs },
	}
	return relview.Pipeline[*models.CommentView]{
		Name:  "comments",
		Joins: []relview.Resolver[*models.CommentView]{owner, likes},
		Ranking: relview.Ranking[*models.CommentView]{
			CreatedAt: func(r *models.CommentView) time.Time { return r.CreatedAt },
			ID:        func(r *models.CommentView) uint { return r.ID },
			Fields: map[string]relview.SortField[*models.CommentView]{
				"likesCount": relview.JoinedField(func(r *models.CommentView) int64 { return relview.Count(r.Likes) }),
			},
		},
		Annotate: func(r *models.CommentView, viewer relview.Viewer) {
			r.LikesCount = relview.Count(r.Likes)
			r.IsLiked = relview.Contains(viewer, r.Likes, likedBy)
		},
	}
}

func (v *Views) Tweets() relview.Pipeline[*models.TweetView] {
	owner := relview.Join[*models.TweetView, *models.UserSummary]{
		Name:   "owner",
		Keys:   relview.Key(func(r *models.TweetView) uint { return r.OwnerID }),
		Match:  func(u *models.UserSummary) uint { return u.ID },
		Load:   v.loadSummaries,
		Single: true,
		Assign: func(r *models.TweetView, rs []*models.UserSummary) { r.Owner, _ = relview.First(rs) },
	}
	likes := relview.Join[*models.TweetView, models.Like]{
		Name:   "likes",
		Keys:   relview.Key(func(r *models.TweetView) uint { return r.ID }),
		Match:  models.Like.TargetID,
		Load:   v.likesOf(models.LikeTargetTweet),
		Assign: func(r *models.TweetView, rs []models.Like) { r.Likes = rs },
	}
	return relview.Pipeline[*models.TweetView]{
		Name:  "tweets",
		Joins: []relview.Resolver[*models.TweetView]{owner, likes},
		Ranking: relview.Ranking[*models.TweetView]{
			CreatedAt: func(r *models.TweetView) time.Time { return r.CreatedAt },
			ID:        func(r *models.TweetView) uint { return r.ID },
			Fields: map[string]relview.SortField[*models.TweetView]{
				"likesCount": relview.JoinedField(func(r *models.TweetView) int64 { return relview.Count(r.Likes) }),
			},
		},
		Annotate: func(r *models.TweetView, viewer relview.Viewer) {
			r.LikesCount = relview.Count(r.Likes)
			r.IsLiked = relview.Contains(viewer, r.Likes, likedBy)
		},
	}
}

// Subscribers expands the subscribers of channelID. The subscribedToSubscriber
// flag is relative to the channel, not to the viewer.
func (v *Views) Subscribers(channelID uint) relview.Pipeline[*models.SubscriberView] {
	subs := relview.Join[*models.SubscriberView, models.Subscription]{
		Name:   "subscribers",
		Keys:   relview.Key(func(r *models.SubscriberView) uint { return r.ID }),
		Match:  channelOf,
		Load:   v.subs.ByChannels,
		Assign: func(r *models.SubscriberView, rs []models.Subscription) { r.Subscribers = rs },
	}
	return relview.Pipeline[*models.SubscriberView]{
		Name:  "subscribers",
		Joins: []relview.Resolver[*models.SubscriberView]{subs},
		Annotate: func(r *models.SubscriberView, _ relview.Viewer) {
			r.SubscribersCount = relview.Count(r.Subscribers)
			r.SubscribedToSubscriber = relview.ContainsID(channelID, r.Subscribers, subscriberOf)
		},
	}
}

func (v *Views) SubscribedChannels() relview.Pipeline[*models.SubscribedChannelView] {
	latest := relview.Join[*models.SubscribedChannelView, *models.Video]{
		Name:   "latestVideo",
		Keys:   relview.Key(func(r *models.SubscribedChannelView) uint { return r.ID }),
		Match:  func(vid *models.Video) uint { return vid.OwnerID },
		Load:   v.videos.LatestByOwners,
		Single: true,
		Assign: func(r *models.SubscribedChannelView, rs []*models.Video) { r.LatestVideo, _ = relview.First(rs) },
	}
	return relview.Pipeline[*models.SubscribedChannelView]{
		Name:  "subscribed_channels",
		Joins: []relview.Resolver[*models.SubscribedChannelView]{latest},
	}
}

// Playlists expands playlists with their member videos. Only published
// members count towards the totals. With detail set, the members are also
// joined with their owners and likes and returned as Videos.
func (v *Views) Playlists(detail bool) relview.Pipeline[*models.PlaylistView] {
	entries := relview.Join[*models.PlaylistView, models.PlaylistVideo]{
		Name:   "entries",
		Keys:   relview.Key(func(r *models.PlaylistView) uint { return r.ID }),
		Match:  func(e models.PlaylistVideo) uint { return e.PlaylistID },
		Load:   v.playlists.EntriesByPlaylists,
		Assign: func(r *models.PlaylistView, rs []models.PlaylistVideo) { r.Entries = rs },
	}
	var nested []relview.Resolver[*models.VideoView]
	if detail {
		nested = v.videoJoins()
	}
	members := relview.Join[*models.PlaylistView, *models.VideoView]{
		Name: "videos",
		Keys: func(r *models.PlaylistView) []uint {
			ids := make([]uint, len(r.Entries))
			for i, e := range r.Entries {
				ids[i] = e.VideoID
			}
			return ids
		},
		Match: func(r *models.VideoView) uint { return r.ID },
		Load: func(ctx context.Context, ids []uint) ([]*models.VideoView, error) {
			vids, err := v.videos.ByIDs(ctx, ids)
			if err != nil {
				return nil, err
			}
			return videoViews(vids), nil
		},
		Assign: func(r *models.PlaylistView, rs []*models.VideoView) {
			r.Members = relview.Filter(rs, func(m *models.VideoView) bool { return m.IsPublished })
		},
		Nested: nested,
	}
	joins := []relview.Resolver[*models.PlaylistView]{entries, members}
	if detail {
		joins = append(joins, relview.Join[*models.PlaylistView, *models.UserSummary]{
			Name:   "owner",
			Keys:   relview.Key(func(r *models.PlaylistView) uint { return r.OwnerID }),
			Match:  func(u *models.UserSummary) uint { return u.ID },
			Load:   v.loadSummaries,
			Single: true,
			Assign: func(r *models.PlaylistView, rs []*models.UserSummary) { r.Owner, _ = relview.First(rs) },
		})
	}

	return relview.Pipeline[*models.PlaylistView]{
		Name:  "playlists",
		Joins: joins,
		Ranking: relview.Ranking[*models.PlaylistView]{
			CreatedAt: func(r *models.PlaylistView) time.Time { return r.CreatedAt },
			ID:        func(r *models.PlaylistView) uint { return r.ID },
			Fields: map[string]relview.SortField[*models.PlaylistView]{
				"name":       relview.Field(func(r *models.PlaylistView) string { return strings.ToLower(r.Name) }),
				"updatedAt": {Compare: func(a, b *models.PlaylistView) int {
					return a.UpdatedAt.Compare(b.UpdatedAt)
				}},
				"totalViews": relview.JoinedField(sumViews),
			},
		},
		Annotate: func(r *models.PlaylistView, viewer relview.Viewer) {
			r.TotalVideos = relview.Count(r.Members)
			r.TotalViews = sumViews(r)
			if detail {
				for _, m := range r.Members {
					annotateVideo(m, viewer)
				}
				r.Videos = r.Members
			}
		},
	}
}

func sumViews(r *models.PlaylistView) int64 {
	return relview.Sum(r.Members, func(m *models.VideoView) int64 { return m.Views })
}

func (v *Views) Profiles() relview.Pipeline[*models.ChannelProfile] {
	subscribers := relview.Join[*models.ChannelProfile, models.Subscription]{
		Name:   "subscribers",
		Keys:   relview.Key(func(r *models.ChannelProfile) uint { return r.ID }),
		Match:  channelOf,
		Load:   v.subs.ByChannels,
		Assign: func(r *models.ChannelProfile, rs []models.Subscription) { r.Subscribers = rs },
	}
	subscribedTo := relview.Join[*models.ChannelProfile, models.Subscription]{
		Name:   "subscribedTo",
		Keys:   relview.Key(func(r *models.ChannelProfile) uint { return r.ID }),
		Match:  subscriberOf,
		Load:   v.subs.BySubscribers,
		Assign: func(r *models.ChannelProfile, rs []models.Subscription) { r.SubscribedTo = rs },
	}
	return relview.Pipeline[*models.ChannelProfile]{
		Name:  "channel_profile",
		Joins: []relview.Resolver[*models.ChannelProfile]{subscribers, subscribedTo},
		Annotate: func(r *models.ChannelProfile, viewer relview.Viewer) {
			r.SubscribersCount = relview.Count(r.Subscribers)
			r.ChannelsSubscribedToCount = relview.Count(r.SubscribedTo)
			r.IsSubscribed = relview.Contains(viewer, r.Subscribers, subscriberOf)
		},
	}
}

// expandPage windows records in their current order and expands only the
// window. The pipeline must not filter.
func expandPage[T any](ctx context.Context, p relview.Pipeline[T], records []T, req relview.PageRequest, viewer relview.Viewer) (relview.Page[T], error) {
	page := relview.Paginate(records, req)
	expanded, err := p.Expand(ctx, page.Records, viewer)
	if err != nil {
		return relview.Page[T]{}, err
	}
	page.Records = expanded
	return page, nil
}
