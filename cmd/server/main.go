package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/recipenest/recipenest-api/internal/audit"
	"github.com/recipenest/recipenest-api/internal/broker"
	"github.com/recipenest/recipenest-api/internal/config"
	"github.com/recipenest/recipenest-api/internal/database"
	"github.com/recipenest/recipenest-api/internal/handler"
	"github.com/recipenest/recipenest-api/internal/middleware"
	"github.com/recipenest/recipenest-api/internal/repository"
	"github.com/recipenest/recipenest-api/internal/router"
	"github.com/recipenest/recipenest-api/internal/service"
	"github.com/recipenest/recipenest-api/internal/storage"
	"github.com/recipenest/recipenest-api/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const uploadsPrefix = "/uploads/recipe-images"

func main() {
	cfg := config.Load()

	if err := logger.Init(!cfg.IsProduction()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	database.Connect(cfg)
	database.Migrate()

	// Audit journal
	journal, err := audit.Open(cfg.AuditLogPath)
	if err != nil {
		logger.Log.Fatal("Failed to open audit journal", zap.Error(err))
	}
	defer journal.Close()

	// Image storage
	images, err := storage.NewFileStore(cfg.UploadDir, uploadsPrefix)
	if err != nil {
		logger.Log.Fatal("Failed to initialize image storage", zap.Error(err))
	}

	// Redis backs the activity broker and the rate limiter. Without it the
	// API still serves; live activity and rate limiting are off.
	var (
		publisher   service.ActivityPublisher
		subscriber  handler.ActivitySubscriber
		rateLimiter *middleware.RateLimiter
		resetter    handler.RateLimitResetter
	)
	redisClient, err := connectRedis(cfg.RedisURL)
	if err != nil {
		logger.Log.Warn("Redis unavailable, activity stream and rate limiting disabled", zap.Error(err))
	} else {
		defer redisClient.Close()

		activity := broker.NewRedisActivityBrokerFromClient(redisClient)
		publisher = activity
		subscriber = activity

		rateLimiter = middleware.NewRateLimiter(redisClient, middleware.RateLimiterConfig{
			MaxRequests: cfg.RateLimitMaxRequests,
			Window:      cfg.RateLimitWindow,
			BlockTime:   cfg.RateLimitBlockTime,
		})
		resetter = rateLimiter
	}

	// Repositories
	userRepo := repository.NewUserRepository(database.DB)
	recipeRepo := repository.NewRecipeRepository(database.DB)
	engagementRepo := repository.NewEngagementRepository(database.DB)
	statsRepo := repository.NewStatsRepository(database.DB)

	// Services
	authService := service.NewAuthService(userRepo, statsRepo, publisher, cfg.JWTSecret, cfg.JWTExpiry, cfg.Environment)
	profileService := service.NewProfileService(userRepo, statsRepo)
	statsService := service.NewStatsService(statsRepo, userRepo, cfg.GrowthWindowDays)
	recipeService := service.NewRecipeService(recipeRepo, userRepo, images, publisher, journal)
	engagementService := service.NewEngagementService(userRepo, recipeRepo, engagementRepo, publisher)
	adminService := service.NewAdminService(userRepo, recipeRepo, engagementRepo, statsRepo, profileService, journal)

	// Handlers
	handlers := router.Handlers{
		Auth:           handler.NewAuthHandler(authService),
		Profiles:       handler.NewProfileHandler(profileService),
		Stats:          handler.NewStatsHandler(statsService),
		Recipes:        handler.NewRecipeHandler(recipeService),
		Engagement:     handler.NewEngagementHandler(engagementService),
		Admin:          handler.NewAdminHandler(adminService, resetter),
		ActivityStream: handler.NewActivityStreamHandler(subscriber, cfg.CORSAllowedOrigins),
	}

	engine := router.New(handlers, router.Options{
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		IsProduction:   cfg.IsProduction(),
		RateLimiter:    rateLimiter,
		UploadsPrefix:  images.URLPrefix(),
		UploadsDir:     images.BasePath(),
	})

	server := &http.Server{
		Addr:              cfg.ServerPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Server starting",
			zap.String("addr", cfg.ServerPort),
			zap.String("environment", cfg.Environment),
			zap.Int("growth_window_days", cfg.GrowthWindowDays),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Log.Info("Received shutdown signal", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Log.Error("Server shutdown error", zap.Error(err))
	}

	logger.Log.Info("Server stopped gracefully")
}

func connectRedis(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
