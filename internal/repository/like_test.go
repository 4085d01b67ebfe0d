package repository

import (
	"context"
	"sync"
	"testing"

	"videotube/internal/config"
	"videotube/internal/database"
	"videotube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeRepository_ToggleIdempotence(t *testing.T) {
	db := newTestDB(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner")
	fan := seedUser(t, db, "fan")
	video := seedVideo(t, db, owner, "clip", true)
	target := models.LikeTarget{Kind: models.LikeTargetVideo, ID: video.ID}

	active, err := repo.Toggle(ctx, target, fan.ID)
	require.NoError(t, err)
	assert.True(t, active)
	assert.Equal(t, int64(1), countRows(t, db, &models.Like{}, "video_id = ? AND liked_by_id = ?", video.ID, fan.ID))

	active, err = repo.Toggle(ctx, target, fan.ID)
	require.NoError(t, err)
	assert.False(t, active)
	assert.Equal(t, int64(0), countRows(t, db, &models.Like{}, "video_id = ?", video.ID))

	active, err = repo.Toggle(ctx, target, fan.ID)
	require.NoError(t, err)
	assert.True(t, active)
	assert.Equal(t, int64(1), countRows(t, db, &models.Like{}, "video_id = ?", video.ID))
}

func TestLikeRepository_ToggleUnderAutoSchema(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, database.ApplySchema(ctx, db, &config.Config{DBSchemaMode: database.SchemaModeAuto}))
	repo := NewLikeRepository(db)

	owner := seedUser(t, db, "owner")
	fan := seedUser(t, db, "fan")
	video := seedVideo(t, db, owner, "clip", true)
	comment := seedComment(t, db, video, owner, "first")

	for _, target := range []models.LikeTarget{
		{Kind: models.LikeTargetVideo, ID: video.ID},
		{Kind: models.LikeTargetComment, ID: comment.ID},
		{Kind: models.LikeTargetTweet, ID: video.ID},
	} {
		active, err := repo.Toggle(ctx, target, fan.ID)
		require.NoError(t, err)
		assert.True(t, active, target.Kind)

		active, err = repo.Toggle(ctx, target, fan.ID)
		require.NoError(t, err)
		assert.False(t, active, target.Kind)
		assert.Equal(t, int64(0), countRows(t, db, &models.Like{}, target.Column()+" = ? AND liked_by_id = ?", target.ID, fan.ID), target.Kind)
	}
}

func TestLikeRepository_TargetsAreIndependent(t *testing.T) {
	db := newTestDB(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner")
	fan := seedUser(t, db, "fan")
	video := seedVideo(t, db, owner, "clip", true)
	comment := seedComment(t, db, video, owner, "first")

	// Same numeric id, different kinds.
	_, err := repo.Toggle(ctx, models.LikeTarget{Kind: models.LikeTargetVideo, ID: video.ID}, fan.ID)
	require.NoError(t, err)
	_, err = repo.Toggle(ctx, models.LikeTarget{Kind: models.LikeTargetComment, ID: comment.ID}, fan.ID)
	require.NoError(t, err)
	_, err = repo.Toggle(ctx, models.LikeTarget{Kind: models.LikeTargetTweet, ID: video.ID}, fan.ID)
	require.NoError(t, err)

	videoLikes, err := repo.ByTargets(ctx, models.LikeTargetVideo, []uint{video.ID})
	require.NoError(t, err)
	require.Len(t, videoLikes, 1)
	assert.Equal(t, fan.ID, videoLikes[0].LikedByID)
	assert.Nil(t, videoLikes[0].CommentID)

	commentLikes, err := repo.ByTargets(ctx, models.LikeTargetComment, []uint{comment.ID})
	require.NoError(t, err)
	assert.Len(t, commentLikes, 1)

	assert.Equal(t, int64(3), countRows(t, db, &models.Like{}, ""))
}

func TestLikeRepository_ConcurrentTogglesNeverDuplicate(t *testing.T) {
	db := newTestDB(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner")
	fan := seedUser(t, db, "fan")
	video := seedVideo(t, db, owner, "clip", true)
	target := models.LikeTarget{Kind: models.LikeTargetVideo, ID: video.ID}

	const toggles = 9
	var wg sync.WaitGroup
	for i := 0; i < toggles; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Toggle(ctx, target, fan.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// An odd number of toggles leaves exactly one like.
	assert.Equal(t, int64(1), countRows(t, db, &models.Like{}, "video_id = ? AND liked_by_id = ?", video.ID, fan.ID))
}

func TestLikeRepository_VideoLikesByAndOwnerCount(t *testing.T) {
	db := newTestDB(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner")
	fan := seedUser(t, db, "fan")
	other := seedUser(t, db, "other")
	v1 := seedVideo(t, db, owner, "one", true)
	v2 := seedVideo(t, db, owner, "two", true)
	comment := seedComment(t, db, v1, owner, "hi")

	for _, step := range []struct {
		target models.LikeTarget
		user   uint
	}{
		{models.LikeTarget{Kind: models.LikeTargetVideo, ID: v1.ID}, fan.ID},
		{models.LikeTarget{Kind: models.LikeTargetVideo, ID: v2.ID}, fan.ID},
		{models.LikeTarget{Kind: models.LikeTargetVideo, ID: v2.ID}, other.ID},
		{models.LikeTarget{Kind: models.LikeTargetComment, ID: comment.ID}, fan.ID},
	} {
		_, err := repo.Toggle(ctx, step.target, step.user)
		require.NoError(t, err)
	}

	likes, err := repo.VideoLikesBy(ctx, fan.ID)
	require.NoError(t, err)
	require.Len(t, likes, 2)
	assert.Equal(t, v2.ID, *likes[0].VideoID)

	n, err := repo.CountOnOwnerVideos(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
