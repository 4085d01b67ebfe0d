// Package bootstrap connects the runtime dependencies shared by the server
// and the command line tools.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"videotube/internal/cache"
	"videotube/internal/config"
	"videotube/internal/database"
	"videotube/internal/media"
	"videotube/internal/models"
	"videotube/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo fills an empty development database with the "minimal" preset.
	SeedDemo bool
	// SkipMedia leaves Runtime.Store nil, for tools that never touch uploads.
	SkipMedia bool
}

// Runtime bundles the connected dependencies.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client
	Store *media.MinioStore
}

// InitRuntime connects to the database, Redis and the media store, and
// optionally seeds demo data.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Redis is optional; cache-aside and the rate limiter degrade without it.
	cache.InitRedis(cfg.RedisURL)
	rt := &Runtime{DB: db, Redis: cache.GetClient()}

	if !opts.SkipMedia {
		store, err := media.NewMinioStore(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("media store unavailable: %w", err)
		}
		rt.Store = store
	}

	if opts.SeedDemo {
		if err := seedDemo(ctx, cfg, db); err != nil {
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}
	return rt, nil
}

func seedDemo(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg.IsProduction() {
		slog.Warn("demo seeding is disabled in production")
		return nil
	}
	var users int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		return nil
	}
	sum, err := seed.NewSeeder(db.WithContext(ctx), seed.Options{FastHash: true}).ApplyPreset("minimal")
	if err != nil {
		return err
	}
	slog.Info("demo data seeded", slog.String("summary", sum.String()))
	return nil
}
