package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"videotube/internal/database"
	"videotube/internal/media"
	"videotube/internal/models"
	"videotube/internal/relview"
	"videotube/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeStore is an in-memory media store. Deletes of handles in failing error out.
type fakeStore struct {
	mu       sync.Mutex
	objects  map[string]bool
	failing  map[string]bool
	deleted  []string
	failPuts bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]bool{}, failing: map[string]bool{}}
}

func (s *fakeStore) Upload(_ context.Context, obj media.Object) (media.Ref, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPuts {
		return media.Ref{}, errors.New("store unavailable")
	}
	name := media.ObjectName(obj.Folder, obj.Filename)
	s.objects[name] = true
	return media.Ref{URL: "http://media.test/" + name, Handle: name}, nil
}

func (s *fakeStore) Delete(_ context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing[handle] {
		return errors.New("store unavailable")
	}
	delete(s.objects, handle)
	s.deleted = append(s.deleted, handle)
	return nil
}

func (s *fakeStore) has(handle string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects[handle]
}

type harness struct {
	db    *gorm.DB
	store *fakeStore
	queue repository.MediaDeletionRepository

	users     repository.UserRepository
	videoRepo repository.VideoRepository

	Videos        *VideoService
	Comments      *CommentService
	Tweets        *TweetService
	Likes         *LikeService
	Subscriptions *SubscriptionService
	Playlists     *PlaylistService
	Users         *UserService
	Dashboard     *DashboardService
}

type plainHasher struct{}

func (plainHasher) HashPassword(p string) (string, error) { return "hashed:" + p, nil }

func newHarness(t *testing.T) *harness {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))

	users := repository.NewUserRepository(db)
	videos := repository.NewVideoRepository(db)
	comments := repository.NewCommentRepository(db)
	tweets := repository.NewTweetRepository(db)
	likes := repository.NewLikeRepository(db)
	subs := repository.NewSubscriptionRepository(db)
	playlists := repository.NewPlaylistRepository(db)
	queue := repository.NewMediaDeletionRepository(db)

	store := newFakeStore()
	remover := media.NewRemover(store, queue)
	views := NewViews(users, videos, likes, subs, playlists)

	videoSvc := NewVideoService(videos, users, views, store, remover)
	videoSvc.spawn = func(task func()) { task() }

	return &harness{
		db:            db,
		store:         store,
		queue:         queue,
		users:         users,
		videoRepo:     videos,
		Videos:        videoSvc,
		Comments:      NewCommentService(comments, videos, views),
		Tweets:        NewTweetService(tweets, users, views),
		Likes:         NewLikeService(likes, videos, comments, tweets, views),
		Subscriptions: NewSubscriptionService(subs, users, views),
		Playlists:     NewPlaylistService(playlists, videos, users, views),
		Users:         NewUserService(users, videos, views, store, remover, plainHasher{}),
		Dashboard:     NewDashboardService(videos, likes, subs, views),
	}
}

func (h *harness) user(t *testing.T, username string) relview.Viewer {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		FullName: "User " + username,
		Password: "hash",
	}
	require.NoError(t, h.users.Create(context.Background(), u))
	return relview.As(u.ID)
}

func upload(name, contentType string) *media.Object {
	return &media.Object{
		Filename:    name,
		ContentType: contentType,
		Size:        4,
		Body:        strings.NewReader("data"),
	}
}

// video publishes a video through the service, and publishes it for viewers
// when published is set.
func (h *harness) video(t *testing.T, owner relview.Viewer, title string, published bool) *models.VideoView {
	t.Helper()
	ctx := context.Background()
	v, err := h.Videos.PublishVideo(ctx, PublishVideoInput{
		Title:       title,
		Description: "about " + title,
		Duration:    30,
		VideoFile:   upload(title+".mp4", "video/mp4"),
		Thumbnail:   upload(title+".jpg", "image/jpeg"),
		Viewer:      owner,
	})
	require.NoError(t, err)
	if published {
		_, err := h.Videos.TogglePublish(ctx, v.ID, owner)
		require.NoError(t, err)
		v.IsPublished = true
	}
	return v
}

func assertKind(t *testing.T, err error, kind models.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, kind, appErr.Kind, appErr.Message)
}

func countRows(t *testing.T, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}
