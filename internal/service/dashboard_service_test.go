package service

import (
	"context"
	"testing"

	"videotube/internal/cache"
	"videotube/internal/models"
	"videotube/internal/relview"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardService_ChannelStats(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	h := newHarness(t)
	ctx := context.Background()
	owner, fan := h.user(t, "owner"), h.user(t, "fan")
	v := h.video(t, owner, "clip", true)
	h.video(t, owner, "draft", false)
	_, err := h.Videos.GetVideo(ctx, v.ID, fan)
	require.NoError(t, err)
	_, err = h.Subscriptions.ToggleSubscription(ctx, owner.ID, fan)
	require.NoError(t, err)

	stats, err := h.Dashboard.ChannelStats(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, models.ChannelStats{TotalSubscribers: 1, TotalLikes: 0, TotalViews: 1, TotalVideos: 2}, *stats)
	assert.True(t, mr.Exists(cache.ChannelStatsKey(owner.ID)))

	// Liking invalidates the cached totals.
	_, err = h.Likes.ToggleLike(ctx, models.LikeTarget{Kind: models.LikeTargetVideo, ID: v.ID}, fan)
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.ChannelStatsKey(owner.ID)))

	stats, err = h.Dashboard.ChannelStats(ctx, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TotalLikes)

	_, err = h.Dashboard.ChannelStats(ctx, relview.Anonymous())
	assertKind(t, err, models.KindUnauthorized)
}

func TestDashboardService_ChannelVideosIncludeDrafts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner, other := h.user(t, "owner"), h.user(t, "other")
	h.video(t, owner, "public", true)
	h.video(t, owner, "draft", false)
	h.video(t, other, "elsewhere", true)

	page, err := h.Dashboard.ChannelVideos(ctx, owner, relview.SortSpec{Field: "title", Direction: relview.Ascending}, relview.PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Records, 2)
	assert.Equal(t, "draft", page.Records[0].Title)
	assert.Equal(t, "public", page.Records[1].Title)
}
