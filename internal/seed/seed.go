// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"slices"
	"strings"

	"videotube/internal/database"
	"videotube/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumVideos   int
	ShouldClean bool
	// DryRun builds every entity but writes nothing.
	DryRun bool
	// FastHash hashes the shared password with bcrypt.MinCost.
	FastHash bool
	// MaxDays bounds how far back created_at timestamps reach.
	MaxDays        int
	PublishedRatio float64
	// Seed makes runs reproducible when non-zero.
	Seed int64
}

// Presets are named seeding sizes accepted by ApplyPreset.
var Presets = map[string]Options{
	"minimal": {NumUsers: 5, NumVideos: 20, MaxDays: 14},
	"demo":    {NumUsers: 50, NumVideos: 300, MaxDays: 90},
	"large":   {NumUsers: 500, NumVideos: 5000, MaxDays: 365, FastHash: true},
}

const (
	maxSubscriptionsPerUser = 12
	maxLikesPerUser         = 20
	maxCommentsPerVideo     = 4
	maxTweetsPerUser        = 3
	maxWatchedPerUser       = 10
	playlistChance          = 0.3
	maxPlaylistSize         = 6
)

// Summary counts what a run created.
type Summary struct {
	Users         int
	Videos        int
	Subscriptions int
	Likes         int
	Comments      int
	Tweets        int
	Playlists     int
	WatchEntries  int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d users, %d videos, %d subscriptions, %d likes, %d comments, %d tweets, %d playlists, %d watch entries",
		s.Users, s.Videos, s.Subscriptions, s.Likes, s.Comments, s.Tweets, s.Playlists, s.WatchEntries)
}

// Seeder populates the database with a connected graph of channels,
// videos and engagement.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder returns a Seeder writing through db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, opts: opts, factory: NewFactory(db, opts)}
}

// ApplyPreset replaces the seeder's sizes with the named preset and runs it.
// DryRun, FastHash and Seed from the original options are kept.
func (s *Seeder) ApplyPreset(name string) (Summary, error) {
	preset, ok := Presets[name]
	if !ok {
		names := make([]string, 0, len(Presets))
		for n := range Presets {
			names = append(names, n)
		}
		slices.Sort(names)
		return Summary{}, fmt.Errorf("unknown preset %q (available: %v)", name, names)
	}
	preset.DryRun = s.opts.DryRun
	preset.FastHash = preset.FastHash || s.opts.FastHash
	preset.Seed = s.opts.Seed
	preset.ShouldClean = s.opts.ShouldClean
	s.opts = preset
	s.factory = NewFactory(s.db, preset)
	return s.Run()
}

// Run seeds users, videos and the relationships between them.
func (s *Seeder) Run() (Summary, error) {
	var sum Summary
	log.Printf("🌱 Seeding %d users and %d videos (dry-run=%v)...", s.opts.NumUsers, s.opts.NumVideos, s.opts.DryRun)

	if s.opts.ShouldClean && !s.opts.DryRun {
		if err := s.ClearAll(); err != nil {
			return sum, fmt.Errorf("clear existing data: %w", err)
		}
	}

	users := make([]*models.User, 0, s.opts.NumUsers)
	for i, n := 0, s.opts.NumUsers; i < n; i++ {
		u, err := s.factory.CreateUser()
		if err != nil {
			return sum, fmt.Errorf("failed to create users: %w", err)
		}
		users = append(users, u)
	}
	sum.Users = len(users)
	if len(users) == 0 {
		return sum, nil
	}

	rng := s.factory.rng
	videos := make([]*models.Video, 0, s.opts.NumVideos)
	for i, n := 0, s.opts.NumVideos; i < n; i++ {
		videos = append(videos, s.factory.BuildVideo(users[rng.Intn(len(users))]))
	}
	if err := s.factory.CreateVideosBatch(videos); err != nil {
		return sum, fmt.Errorf("failed to create videos: %w", err)
	}
	sum.Videos = len(videos)
	log.Printf("✓ %d users and %d videos created", sum.Users, sum.Videos)

	byID := make(map[uint]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	published := make([]*models.Video, 0, len(videos))
	for _, v := range videos {
		if v.IsPublished {
			published = append(published, v)
		}
	}

	for _, u := range users {
		others := make([]*models.User, 0, len(users)-1)
		for _, o := range users {
			if o.ID != u.ID {
				others = append(others, o)
			}
		}
		for _, channel := range pick(rng, others, rng.Intn(maxSubscriptionsPerUser+1)) {
			if err := s.factory.CreateSubscription(u, channel); err != nil {
				return sum, fmt.Errorf("failed to create subscriptions: %w", err)
			}
			sum.Subscriptions++
		}

		for _, v := range pick(rng, published, rng.Intn(maxLikesPerUser+1)) {
			if err := s.factory.CreateLike(u, models.LikeTarget{Kind: models.LikeTargetVideo, ID: v.ID}); err != nil {
				return sum, fmt.Errorf("failed to create likes: %w", err)
			}
			sum.Likes++
		}

		for i, n := 0, rng.Intn(maxTweetsPerUser + 1); i < n; i++ {
			if _, err := s.factory.CreateTweet(u); err != nil {
				return sum, fmt.Errorf("failed to create tweets: %w", err)
			}
			sum.Tweets++
		}

		for _, v := range pick(rng, published, rng.Intn(maxWatchedPerUser+1)) {
			if err := s.factory.CreateWatchEntry(u, v); err != nil {
				return sum, fmt.Errorf("failed to create watch history: %w", err)
			}
			sum.WatchEntries++
		}

		if len(published) > 0 && rng.Float64() < playlistChance {
			members := pick(rng, published, rng.Intn(maxPlaylistSize)+1)
			if _, err := s.factory.CreatePlaylist(u, members); err != nil {
				return sum, fmt.Errorf("failed to create playlists: %w", err)
			}
			sum.Playlists++
		}
	}

	for _, v := range published {
		for i, n := 0, rng.Intn(maxCommentsPerVideo + 1); i < n; i++ {
			author := users[rng.Intn(len(users))]
			c, err := s.factory.CreateComment(author, v)
			if err != nil {
				return sum, fmt.Errorf("failed to create comments: %w", err)
			}
			sum.Comments++
			if rng.Intn(3) == 0 {
				if err := s.factory.CreateLike(byID[v.OwnerID], models.LikeTarget{Kind: models.LikeTargetComment, ID: c.ID}); err != nil {
					return sum, fmt.Errorf("failed to create comment likes: %w", err)
				}
				sum.Likes++
			}
		}
	}

	log.Printf("🎉 Seeding completed: %s", sum)
	return sum, nil
}

// ClearAll removes every seeded row. Postgres tables are truncated with
// identity reset; other dialects delete child tables first.
func (s *Seeder) ClearAll() error {
	log.Println("🗑️  Clearing existing data...")
	all := database.PersistentModels()

	if s.db.Dialector.Name() == "postgres" {
		tables := make([]string, 0, len(all))
		for _, m := range all {
			stmt := &gorm.Statement{DB: s.db}
			if err := stmt.Parse(m); err != nil {
				return fmt.Errorf("resolve table for %T: %w", m, err)
			}
			tables = append(tables, stmt.Schema.Table)
		}
		return s.db.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(tables, ", "))).Error
	}

	for i := len(all) - 1; i >= 0; i-- {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(all[i]).Error; err != nil {
			return fmt.Errorf("clear %T: %w", all[i], err)
		}
	}
	return nil
}
