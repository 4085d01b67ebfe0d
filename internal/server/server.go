// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"videotube/internal/bootstrap"
	"videotube/internal/config"
	"videotube/internal/identity"
	"videotube/internal/media"
	"videotube/internal/middleware"
	"videotube/internal/models"
	"videotube/internal/repository"
	"videotube/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	store   media.Store
	janitor *media.Janitor
	tokens  *identity.Tokens
	auth    *identity.Service

	videos        *service.VideoService
	comments      *service.CommentService
	tweets        *service.TweetService
	likes         *service.LikeService
	subscriptions *service.SubscriptionService
	playlists     *service.PlaylistService
	users         *service.UserService
	dashboard     *service.DashboardService
}

// NewServer connects the database, Redis and the media store, then wires
// every service.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SeedDemo: cfg.SeedDemo})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, rt.DB, rt.Redis, rt.Store)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests pass an in-memory database and a fake media store.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store media.Store) (*Server, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	if store == nil {
		return nil, fmt.Errorf("media store is required")
	}

	userRepo := repository.NewUserRepository(db)
	videoRepo := repository.NewVideoRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	tweetRepo := repository.NewTweetRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	playlistRepo := repository.NewPlaylistRepository(db)
	deletionQueue := repository.NewMediaDeletionRepository(db)

	tokens := identity.NewTokens(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour)
	auth := identity.NewService(userRepo, tokens)
	remover := media.NewRemover(store, deletionQueue)
	views := service.NewViews(userRepo, videoRepo, likeRepo, subRepo, playlistRepo)

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("videotube-api"),
		store:          store,
		janitor:        media.NewJanitor(store, deletionQueue),
		tokens:         tokens,
		auth:           auth,
		videos:         service.NewVideoService(videoRepo, userRepo, views, store, remover),
		comments:       service.NewCommentService(commentRepo, videoRepo, views),
		tweets:         service.NewTweetService(tweetRepo, userRepo, views),
		likes:          service.NewLikeService(likeRepo, videoRepo, commentRepo, tweetRepo, views),
		subscriptions:  service.NewSubscriptionService(subRepo, userRepo, views),
		playlists:      service.NewPlaylistService(playlistRepo, videoRepo, userRepo, views),
		users:          service.NewUserService(userRepo, videoRepo, views, store, remover, auth),
		dashboard:      service.NewDashboardService(videoRepo, likeRepo, subRepo, views),
	}, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	app.Use(middleware.StructuredLogger())

	// CORS must run before anything that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
				Code:  "RATE_LIMITED",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api/v1")
	api.Get("/healthcheck", s.ReadinessCheck)

	optional := middleware.Authenticate(s.tokens, s.redis, false)
	required := middleware.Authenticate(s.tokens, s.redis, true)

	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(s.redis, 5, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", required, s.Logout)
	auth.Get("/me", required, s.CurrentUser)

	// Specific routes before the generic /:id ones.
	videos := api.Group("/videos")
	videos.Get("/", optional, s.ListVideos)
	videos.Post("/", required, middleware.RateLimit(s.redis, 10, time.Hour, "publish_video"), s.PublishVideo)
	videos.Patch("/toggle/publish/:videoId", required, s.TogglePublish)
	videos.Get("/:videoId", optional, s.GetVideo)
	videos.Patch("/:videoId", required, s.UpdateVideo)
	videos.Delete("/:videoId", required, s.DeleteVideo)

	comments := api.Group("/comments")
	comments.Patch("/c/:commentId", required, s.UpdateComment)
	comments.Delete("/c/:commentId", required, s.DeleteComment)
	comments.Get("/:videoId", optional, s.ListComments)
	comments.Post("/:videoId", required, middleware.RateLimit(s.redis, 10, time.Minute, "add_comment"), s.AddComment)

	tweets := api.Group("/tweets")
	tweets.Post("/", required, middleware.RateLimit(s.redis, 10, time.Minute, "create_tweet"), s.CreateTweet)
	tweets.Get("/user/:userId", optional, s.ListUserTweets)
	tweets.Patch("/:tweetId", required, s.UpdateTweet)
	tweets.Delete("/:tweetId", required, s.DeleteTweet)

	likes := api.Group("/likes", required)
	likes.Post("/toggle/v/:videoId", s.ToggleVideoLike)
	likes.Post("/toggle/c/:commentId", s.ToggleCommentLike)
	likes.Post("/toggle/t/:tweetId", s.ToggleTweetLike)
	likes.Get("/videos", s.LikedVideos)

	subscriptions := api.Group("/subscriptions")
	subscriptions.Post("/c/:channelId", required, s.ToggleSubscription)
	subscriptions.Get("/c/:channelId", optional, s.ChannelSubscribers)
	subscriptions.Get("/u/:subscriberId", optional, s.SubscribedChannels)

	playlists := api.Group("/playlists")
	playlists.Post("/", required, s.CreatePlaylist)
	playlists.Get("/user/:userId", optional, s.UserPlaylists)
	playlists.Patch("/add/:videoId/:playlistId", required, s.AddVideoToPlaylist)
	playlists.Patch("/remove/:videoId/:playlistId", required, s.RemoveVideoFromPlaylist)
	playlists.Get("/:playlistId", optional, s.GetPlaylist)
	playlists.Patch("/:playlistId", required, s.UpdatePlaylist)
	playlists.Delete("/:playlistId", required, s.DeletePlaylist)

	users := api.Group("/users")
	users.Get("/c/:username", optional, s.ChannelProfile)
	users.Get("/history", required, s.WatchHistory)
	users.Patch("/account", required, s.UpdateAccount)
	users.Post("/change-password", required, middleware.RateLimit(s.redis, 5, 15*time.Minute, "change_password"), s.ChangePassword)
	users.Patch("/avatar", required, s.UpdateAvatar)
	users.Patch("/cover-image", required, s.UpdateCoverImage)

	dashboard := api.Group("/dashboard", required)
	dashboard.Get("/stats", s.ChannelStats)
	dashboard.Get("/videos", s.ChannelVideos)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// pinger is implemented by media stores that can report their health.
type pinger interface {
	Ping(ctx context.Context) error
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis only backs caching and rate limiting, so its absence degrades
	// rather than fails readiness.
	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	mediaStatus := "healthy"
	if p, ok := s.store.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			mediaStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || mediaStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus != "healthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
			"media":    mediaStatus,
		},
		"time": time.Now(),
	})
}

// NewApp builds a Fiber app with the server's middleware and routes.
func (s *Server) NewApp() *fiber.App {
	// A publish request carries a video and a thumbnail, each up to the
	// per-file limit, plus form fields.
	bodyLimit := (2*s.config.MediaMaxUploadSizeMB + 1) * 1024 * 1024
	if s.config.MediaMaxUploadSizeMB <= 0 {
		bodyLimit = fiber.DefaultBodyLimit
	}

	app := fiber.New(fiber.Config{
		AppName:   "VideoTube API",
		BodyLimit: bodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled request error",
				slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the deferred media deletion janitor and serves HTTP until
// the app is shut down.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	interval := time.Duration(s.config.JanitorIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	go s.janitor.Run(s.shutdownCtx, interval)

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
