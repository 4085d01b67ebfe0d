package repository

import (
	"context"
	"fmt"
	"testing"

	"videotube/internal/database"
	"videotube/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB returns a migrated in-memory SQLite database private to the test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := openTestDB(t)
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

// openTestDB returns an empty in-memory SQLite database private to the test.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		FullName: "User " + username,
		Password: "hash",
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedVideo(t *testing.T, db *gorm.DB, owner *models.User, title string, published bool) *models.Video {
	t.Helper()
	v := &models.Video{
		VideoFile:    "http://media/" + title + ".mp4",
		VideoFileKey: "videos/" + title + ".mp4",
		Thumbnail:    "http://media/" + title + ".jpg",
		ThumbnailKey: "thumbnails/" + title + ".jpg",
		Title:        title,
		Description:  "about " + title,
		Duration:     60,
		OwnerID:      owner.ID,
	}
	require.NoError(t, db.Create(v).Error)
	if published {
		require.NoError(t, db.Model(v).Update("is_published", true).Error)
		v.IsPublished = true
	}
	return v
}

func seedComment(t *testing.T, db *gorm.DB, video *models.Video, owner *models.User, content string) *models.Comment {
	t.Helper()
	c := &models.Comment{Content: content, VideoID: video.ID, OwnerID: owner.ID}
	require.NoError(t, db.Create(c).Error)
	return c
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
