package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"videotube/internal/database"
	"videotube/internal/models"
	"videotube/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeStore fails deletes of handles listed in failing.
type fakeStore struct {
	mu      sync.Mutex
	failing map[string]bool
	deleted []string
}

func newFakeStore(failing ...string) *fakeStore {
	s := &fakeStore{failing: map[string]bool{}}
	for _, h := range failing {
		s.failing[h] = true
	}
	return s
}

func (s *fakeStore) Upload(_ context.Context, obj Object) (Ref, error) {
	name := ObjectName(obj.Folder, obj.Filename)
	return Ref{URL: "http://media.test/" + name, Handle: name}, nil
}

func (s *fakeStore) Delete(_ context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing[handle] {
		return errors.New("store unavailable")
	}
	s.deleted = append(s.deleted, handle)
	return nil
}

func (s *fakeStore) heal(handle string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failing, handle)
}

func newQueue(t *testing.T) (repository.MediaDeletionRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return repository.NewMediaDeletionRepository(db), db
}

func TestObjectName(t *testing.T) {
	name := ObjectName("/videos/", "Clip.MP4")
	assert.True(t, strings.HasPrefix(name, "videos/"))
	assert.True(t, strings.HasSuffix(name, ".mp4"))
	assert.NotEqual(t, name, ObjectName("videos", "Clip.MP4"))

	assert.True(t, strings.HasPrefix(ObjectName("", "a.png"), "misc/"))
}

func TestRemover_DeletesOrDefers(t *testing.T) {
	queue, db := newQueue(t)
	store := newFakeStore("thumbnails/b.jpg")
	r := NewRemover(store, queue)
	ctx := context.Background()

	r.Remove(ctx, "videos/a.mp4", "", "thumbnails/b.jpg")

	assert.Equal(t, []string{"videos/a.mp4"}, store.deleted)

	var rows []models.MediaDeletion
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "thumbnails/b.jpg", rows[0].Handle)
	assert.Equal(t, "store unavailable", rows[0].LastError)
}

func TestJanitor_DrainRetriesUntilDeleted(t *testing.T) {
	queue, db := newQueue(t)
	ctx := context.Background()
	require.NoError(t, queue.Enqueue(ctx, "videos/stuck.mp4", "timeout"))

	store := newFakeStore("videos/stuck.mp4")
	j := NewJanitor(store, queue)
	clock := time.Now().UTC()
	j.now = func() time.Time { return clock }

	n, err := j.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	var row models.MediaDeletion
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, 1, row.Attempts)
	assert.True(t, row.AvailableAt.After(clock), "failed handle is pushed into the future")

	// Not due yet.
	store.heal("videos/stuck.mp4")
	n, err = j.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	clock = clock.Add(2 * time.Minute)
	n, err = j.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"videos/stuck.mp4"}, store.deleted)

	var count int64
	require.NoError(t, db.Model(&models.MediaDeletion{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{0, time.Minute},
		{1, time.Minute},
		{2, 2 * time.Minute},
		{4, 8 * time.Minute},
		{20, maxBackoff},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Backoff(tt.attempts), "attempts=%d", tt.attempts)
	}
}

func TestJanitor_RunStopsOnCancel(t *testing.T) {
	queue, _ := newQueue(t)
	j := NewJanitor(newFakeStore(), queue)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Run(ctx, 10*time.Millisecond)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
