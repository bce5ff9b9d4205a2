// Package main is the entry point for the unified-catalog-service API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"unified-catalog-service/internal/app/service"
	"unified-catalog-service/internal/config"
	"unified-catalog-service/internal/domain"
	"unified-catalog-service/internal/infra/cache"
	"unified-catalog-service/internal/infra/fetch"
	"unified-catalog-service/internal/infra/source/registry"
	"unified-catalog-service/internal/job"
	"unified-catalog-service/internal/logger"
	"unified-catalog-service/internal/storefront"
	"unified-catalog-service/internal/transport/httpserver"
	"unified-catalog-service/internal/validator"
	"unified-catalog-service/pkg/locker"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(
		logger.Config{
			Level:  cfg.Logger.Level,
			Format: cfg.Logger.Format,
			Output: cfg.Logger.Output,
		},
		logger.SentryConfig{
			Enabled:     cfg.Sentry.Enabled,
			DSN:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			SampleRate:  cfg.Sentry.SampleRate,
		},
	)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting unified-catalog-service",
		zap.String("env", cfg.App.Env),
		zap.Int("port", cfg.App.Port),
	)

	// Load the storefront curation overlay
	curation, err := storefront.Load(cfg.Storefront.Path)
	if err != nil {
		log.Fatal("failed to load storefront curation", zap.Error(err))
	}
	if cfg.Storefront.Path != "" {
		log.Info("storefront curation loaded",
			zap.String("path", cfg.Storefront.Path),
			zap.Int("featured", len(curation.FeaturedProductIDs)),
		)
	}

	// Create the upstream source adapters
	adapters := registry.NewAdapters(cfg.Source, log.Logger)

	// Create the cache backend and the warmer's lock
	var (
		catalogCache domain.Cache
		distLocker   locker.DistributedLocker = locker.NewLocalLocker()
		redisClient  *redis.Client
	)
	switch cfg.Cache.Backend {
	case "redis":
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal("failed to connect to Redis", zap.Error(err))
		}
		defer func() { _ = redisClient.Close() }()

		catalogCache = cache.NewRedisCache(redisClient, log.Logger, cfg.Cache.KeyPrefix, cfg.Cache.Retention)
		distLocker = locker.NewRedisLocker(redisClient, log.Logger)
		log.Info("redis cache enabled",
			zap.String("addr", cfg.Redis.Addr()),
			zap.String("key_prefix", cfg.Cache.KeyPrefix),
			zap.Duration("retention", cfg.Cache.Retention),
		)
	case "memory":
		catalogCache = cache.NewMemoryCache(cfg.Cache.MaxEntries)
		log.Info("in-memory cache enabled", zap.Int("max_entries", cfg.Cache.MaxEntries))
	default:
		log.Info("cache disabled")
	}

	// Create the catalog service
	catalogSvc := service.NewCatalogService(
		adapters,
		catalogCache,
		service.CatalogConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
			ListingTTL:      cfg.Cache.ListingTTL,
			CategoryTTL:     cfg.Cache.CategoryTTL,
			Fetch: fetch.Policy{
				MaxRetries: cfg.Fetch.MaxRetries,
				BaseDelay:  cfg.Fetch.BaseDelay,
				Timeout:    cfg.Fetch.Timeout,
			},
		},
		log.Logger,
	)

	// Readiness: the cache backend reachable, or at least one upstream
	// answering.
	ready := func(c *fiber.Ctx) bool {
		if redisClient != nil {
			return redisClient.Ping(c.Context()).Err() == nil
		}
		for _, err := range catalogSvc.HealthCheck(c.Context()) {
			if err == nil {
				return true
			}
		}

		return false
	}

	// Create validator
	v := validator.New()

	// Create HTTP server
	server := httpserver.NewServer(
		httpserver.ServerConfig{
			AppName:   cfg.App.Name,
			Port:      cfg.App.Port,
			BodyLimit: 1024 * 1024, // 1MB
			Debug:     cfg.App.Debug,
		},
		catalogSvc,
		curation,
		ready,
		v,
		log.Logger,
	)

	// Start the category warmer with distributed locking
	var warmer *job.CategoryWarmer
	if cfg.Warm.Enabled {
		warmer = job.NewCategoryWarmer(
			catalogSvc,
			job.WarmConfig{
				Interval:  cfg.Warm.Interval,
				Timeout:   cfg.Warm.Timeout,
				OnStartup: cfg.Warm.OnStartup,
			},
			log.Logger,
			distLocker,
		)
		warmer.Start(cfg.Warm.OnStartup)
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutdown signal received")

		// Stop warmer
		if warmer != nil {
			warmer.Stop()
		}

		// Shutdown server with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.App.ShutdownWithContext(ctx); err != nil {
			log.Error("server shutdown error", zap.Error(err))
		}
	}()

	// Start server
	if err := server.Start(cfg.App.Port); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
