package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"

	"videotube/internal/config"
	"videotube/internal/database"
	"videotube/internal/media"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeStore struct {
	mu      sync.Mutex
	objects map[string]bool
	pingErr error
}

func (s *fakeStore) Upload(_ context.Context, obj media.Object) (media.Ref, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := media.ObjectName(obj.Folder, obj.Filename)
	s.objects[name] = true
	return media.Ref{URL: "http://media.test/" + name, Handle: name}, nil
}

func (s *fakeStore) Delete(_ context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, handle)
	return nil
}

func (s *fakeStore) Ping(context.Context) error { return s.pingErr }

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type testServer struct {
	srv   *Server
	app   *fiber.App
	db    *gorm.DB
	mr    *miniredis.Miniredis
	store *fakeStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		JWTSecret:            "test-secret-key-12345678901234567890123456789012",
		JWTTTLHours:          1,
		AllowedOrigins:       "*",
		MediaMaxUploadSizeMB: 1,
	}
	store := &fakeStore{objects: map[string]bool{}}
	srv, err := NewServerWithDeps(cfg, db, rdb, store)
	require.NoError(t, err)
	srv.auth.WithCost(bcrypt.MinCost)

	return &testServer{srv: srv, app: srv.NewApp(), db: db, mr: mr, store: store}
}

// call sends a request and decodes a JSON response into out when set.
func (ts *testServer) call(t *testing.T, method, path, token string, body io.Reader, contentType string, out any) int {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(fiber.HeaderContentType, contentType)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	if out != nil {
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, out), "body: %s", raw)
	}
	return resp.StatusCode
}

func (ts *testServer) json(t *testing.T, method, path, token string, payload any, out any) int {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	return ts.call(t, method, path, token, body, fiber.MIMEApplicationJSON, out)
}

type account struct {
	ID    uint
	Token string
}

func (ts *testServer) register(t *testing.T, username string) account {
	t.Helper()
	var session struct {
		User struct {
			ID uint `json:"id"`
		} `json:"user"`
		Token string `json:"token"`
	}
	status := ts.json(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"fullName": "User " + username,
		"password": "password123",
	}, &session)
	require.Equal(t, http.StatusCreated, status)
	return account{ID: session.User.ID, Token: session.Token}
}

type filePart struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, fields map[string]string, files ...filePart) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.filename))
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

type videoJSON struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Views       int64  `json:"views"`
	IsPublished bool   `json:"isPublished"`
	LikesCount  int64  `json:"likesCount"`
	IsLiked     bool   `json:"isLiked"`
	Owner       *struct {
		ID               uint   `json:"id"`
		Username         string `json:"username"`
		SubscribersCount int64  `json:"subscribersCount"`
		IsSubscribed     bool   `json:"isSubscribed"`
	} `json:"owner"`
}

type pageJSON[T any] struct {
	Records      []T   `json:"records"`
	Page         int   `json:"page"`
	Limit        int   `json:"limit"`
	TotalRecords int64 `json:"totalRecords"`
	TotalPages   int   `json:"totalPages"`
	HasNextPage  bool  `json:"hasNextPage"`
	HasPrevPage  bool  `json:"hasPrevPage"`
}

type errorJSON struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// publish uploads a video and optionally publishes it.
func (ts *testServer) publish(t *testing.T, owner account, title string, published bool) videoJSON {
	t.Helper()
	body, ct := multipartBody(t,
		map[string]string{"title": title, "description": "about " + title, "duration": "12.5"},
		filePart{field: "videoFile", filename: "clip.mp4", contentType: "video/mp4", data: []byte("video")},
		filePart{field: "thumbnail", filename: "thumb.jpg", contentType: "image/jpeg", data: []byte("image")},
	)
	var v videoJSON
	status := ts.call(t, http.MethodPost, "/api/v1/videos", owner.Token, body, ct, &v)
	require.Equal(t, http.StatusCreated, status)

	if published {
		var toggled map[string]bool
		status := ts.json(t, http.MethodPatch, fmt.Sprintf("/api/v1/videos/toggle/publish/%d", v.ID), owner.Token, nil, &toggled)
		require.Equal(t, http.StatusOK, status)
		require.True(t, toggled["isPublished"])
		v.IsPublished = true
	}
	return v
}

var errUnavailable = errors.New("unavailable")
