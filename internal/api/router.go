package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/corpnet/microblog/internal/blobstore"
	"github.com/corpnet/microblog/internal/cache"
	"github.com/corpnet/microblog/internal/db"
	"github.com/corpnet/microblog/internal/service"
	"github.com/corpnet/microblog/pkg/config"
	"github.com/corpnet/microblog/pkg/logging"
)

// Router wires repositories, services, and handlers onto a gin engine
type Router struct {
	auth    *service.AuthService
	tweets  *TweetsAPI
	users   *UsersAPI
	medias  *MediasAPI
	metrics *Metrics

	db       *db.DB
	cache    *cache.Cache
	mediaDir string
	logger   *zap.Logger
}

// NewRouter creates a new API router
func NewRouter(database *db.DB, redisCache *cache.Cache, blobs blobstore.Store, cfg *config.Config) *Router {
	repo := db.NewRepository(database.DB)
	users := db.NewUserRepository(repo)
	tweets := db.NewTweetRepository(repo)
	likes := db.NewLikeRepository(repo)
	follows := db.NewFollowRepository(repo)
	media := db.NewMediaRepository(repo)

	authSvc := service.NewAuthService(users)
	socialSvc := service.NewSocialService(users, tweets, likes, follows, redisCache)
	contentSvc := service.NewContentService(tweets, media, blobs, redisCache)
	feedSvc := service.NewFeedService(users, tweets, likes, follows, media, redisCache, cfg.Redis.FeedTTL, cfg.Media.BaseURL)

	return &Router{
		auth:     authSvc,
		tweets:   NewTweetsAPI(contentSvc, socialSvc, feedSvc),
		users:    NewUsersAPI(socialSvc, feedSvc),
		medias:   NewMediasAPI(contentSvc),
		metrics:  NewMetrics(),
		db:       database,
		cache:    redisCache,
		mediaDir: cfg.Media.Dir,
		logger:   logging.GetLogger().With(zap.String("component", "api-router")),
	}
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.Use(RequestLogger(), TraceRequests(), r.metrics.Middleware())

	// Health check endpoints
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)

	// Prometheus scrape endpoint
	engine.GET("/metrics", r.metrics.Handler())

	// Uploaded attachments are public once stored
	engine.Static("/media", r.mediaDir)

	api := engine.Group("/api")
	api.Use(APIKeyAuth(r.auth))
	{
		api.GET("/tweets", r.tweets.List)
		api.POST("/tweets", r.tweets.Create)
		api.DELETE("/tweets/:id", r.tweets.Delete)
		api.POST("/tweets/:id/likes", r.tweets.Like)
		api.DELETE("/tweets/:id/likes", r.tweets.Unlike)

		api.GET("/users/me", r.users.Me)
		api.GET("/users/:id", r.users.Get)
		api.POST("/users/:id/follow", r.users.Follow)
		api.DELETE("/users/:id/follow", r.users.Unfollow)

		api.POST("/medias", r.medias.Upload)
	}
}

// healthHandler reports process and database health
func (r *Router) healthHandler(c *gin.Context) {
	if err := r.db.Health(c.Request.Context()); err != nil {
		r.logger.Error("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unavailable",
			"service": "microblog-api",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "OK",
		"service": "microblog-api",
	})
}
