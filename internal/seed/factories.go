// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"videotube/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
	rng   *rand.Rand
	// synthetic ID counter when running in DryRun mode
	nextID   uint
	seq      int
	password string
}

// NewFactory creates a Factory bound to db. A zero Options.Seed seeds from
// the clock.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		db:     db,
		opts:   opts,
		faker:  gofakeit.New(seed),
		rng:    rand.New(rand.NewSource(seed)), // #nosec G404
		nextID: 1000,
	}
}

// passwordHash hashes DefaultPassword once per factory.
func (f *Factory) passwordHash() (string, error) {
	if f.password != "" {
		return f.password, nil
	}
	cost := bcrypt.DefaultCost
	if f.opts.FastHash {
		cost = bcrypt.MinCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return "", err
	}
	f.password = string(hash)
	return f.password, nil
}

// createdAt spreads timestamps over the last MaxDays days.
func (f *Factory) createdAt() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rng.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute
	return time.Now().Add(-back).UTC()
}

func (f *Factory) create(kind string, value any, id *uint) error {
	if f.opts.DryRun {
		f.nextID++
		*id = f.nextID
		slog.Debug("dry-run create", slog.String("kind", kind), slog.Uint64("id", uint64(*id)))
		return nil
	}
	return f.db.Create(value).Error
}

// CreateUser constructs and persists a sample user. Optional overrides may
// modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hash, err := f.passwordHash()
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	f.seq++
	first, last := f.faker.FirstName(), f.faker.LastName()
	username := fmt.Sprintf("%s.%s%d", handle(first), handle(last), f.seq)
	if len(username) > 30 {
		username = fmt.Sprintf("%s%d", handle(last), f.seq)
	}
	user := &models.User{
		Username:   username,
		Email:      username + "@example.com",
		FullName:   first + " " + last,
		Avatar:     fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
		CoverImage: fmt.Sprintf("https://picsum.photos/seed/%s/1500/400", f.faker.UUID()),
		Password:   hash,
		CreatedAt:  f.createdAt(),
	}
	for _, override := range overrides {
		override(user)
	}

	if err := f.create("user", user, &user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

func handle(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	s := b.String()
	if len(s) > 12 {
		s = s[:12]
	}
	return s
}

// BuildVideo constructs a video owned by owner without persisting it.
// Roughly PublishedRatio of built videos are published.
func (f *Factory) BuildVideo(owner *models.User, overrides ...func(*models.Video)) *models.Video {
	ratio := f.opts.PublishedRatio
	if ratio <= 0 {
		ratio = 0.85
	}
	title := strings.TrimSuffix(f.faker.Sentence(f.rng.Intn(5)+3), ".")
	video := &models.Video{
		Title:       title,
		Description: f.faker.Paragraph(1, 3, 12, " "),
		VideoFile:   fmt.Sprintf("https://media.example.com/videos/%s.mp4", f.faker.UUID()),
		Thumbnail:   fmt.Sprintf("https://picsum.photos/seed/%s/1280/720", f.faker.UUID()),
		Duration:    float64(f.rng.Intn(3600)+15) + f.rng.Float64(),
		Views:       int64(f.rng.Intn(50000)),
		IsPublished: f.rng.Float64() < ratio,
		OwnerID:     owner.ID,
		CreatedAt:   f.createdAt(),
	}
	for _, override := range overrides {
		override(video)
	}
	return video
}

// CreateVideosBatch persists videos in batches of 100.
func (f *Factory) CreateVideosBatch(videos []*models.Video) error {
	if len(videos) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, v := range videos {
			f.nextID++
			v.ID = f.nextID
		}
		slog.Debug("dry-run create videos", slog.Int("count", len(videos)))
		return nil
	}
	return f.db.CreateInBatches(videos, 100).Error
}

// CreateComment persists a comment by user on video.
func (f *Factory) CreateComment(user *models.User, video *models.Video) (*models.Comment, error) {
	comment := &models.Comment{
		Content:   f.faker.Sentence(f.rng.Intn(12) + 4),
		VideoID:   video.ID,
		OwnerID:   user.ID,
		CreatedAt: f.later(video.CreatedAt),
	}
	if err := f.create("comment", comment, &comment.ID); err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateTweet persists a tweet by user.
func (f *Factory) CreateTweet(user *models.User) (*models.Tweet, error) {
	tweet := &models.Tweet{
		Content:   f.faker.Sentence(f.rng.Intn(20) + 5),
		OwnerID:   user.ID,
		CreatedAt: f.createdAt(),
	}
	if err := f.create("tweet", tweet, &tweet.ID); err != nil {
		return nil, err
	}
	return tweet, nil
}

// CreateLike persists a like from user on target.
func (f *Factory) CreateLike(user *models.User, target models.LikeTarget) error {
	like := target.NewLike(user.ID)
	like.CreatedAt = f.createdAt()
	return f.create("like", like, &like.ID)
}

// CreateSubscription subscribes subscriber to channel.
func (f *Factory) CreateSubscription(subscriber, channel *models.User) error {
	if subscriber.ID == channel.ID {
		return fmt.Errorf("user %d cannot subscribe to itself", subscriber.ID)
	}
	sub := &models.Subscription{SubscriberID: subscriber.ID, ChannelID: channel.ID, CreatedAt: f.createdAt()}
	return f.create("subscription", sub, &sub.ID)
}

// CreatePlaylist persists a playlist owned by owner holding videos in order.
func (f *Factory) CreatePlaylist(owner *models.User, videos []*models.Video) (*models.Playlist, error) {
	playlist := &models.Playlist{
		Name:        strings.TrimSuffix(f.faker.HipsterSentence(3), "."),
		Description: f.faker.Sentence(10),
		OwnerID:     owner.ID,
		CreatedAt:   f.createdAt(),
	}
	if err := f.create("playlist", playlist, &playlist.ID); err != nil {
		return nil, err
	}
	for i, v := range videos {
		entry := &models.PlaylistVideo{PlaylistID: playlist.ID, VideoID: v.ID, Position: i}
		if err := f.create("playlist_video", entry, &entry.ID); err != nil {
			return nil, err
		}
	}
	return playlist, nil
}

// CreateWatchEntry records that user watched video.
func (f *Factory) CreateWatchEntry(user *models.User, video *models.Video) error {
	entry := &models.WatchEntry{UserID: user.ID, VideoID: video.ID, CreatedAt: f.later(video.CreatedAt)}
	return f.create("watch_entry", entry, &entry.ID)
}

// later returns a time between t and now.
func (f *Factory) later(t time.Time) time.Time {
	span := time.Since(t)
	if span <= 0 {
		return t
	}
	return t.Add(time.Duration(f.rng.Int63n(int64(span))))
}

// pick returns up to n distinct elements of items in random order.
func pick[T any](rng *rand.Rand, items []T, n int) []T {
	n = min(n, len(items))
	out := make([]T, 0, n)
	for _, i := range rng.Perm(len(items))[:n] {
		out = append(out, items[i])
	}
	return out
}
