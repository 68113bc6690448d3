package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"learnhub/api/internal/cache"
	"learnhub/api/internal/config"
	"learnhub/api/internal/database"
	"learnhub/api/internal/handlers"
	"learnhub/api/internal/jobs"
	"learnhub/api/internal/log"
	"learnhub/api/internal/mail"
	"learnhub/api/internal/metrics"
	"learnhub/api/internal/security"
	"learnhub/api/internal/server"
	"learnhub/api/internal/service"
	"learnhub/api/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	backend, err := database.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("failed to open document store")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}
	kv := cache.NewRedisStore(redisClient)

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure bucket failed")
	}

	mailer, err := mail.New(cfg.Mail, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init mail sender")
	}

	m := metrics.New()
	sessions := cache.NewSessionCache(kv)
	courseCache := cache.NewCourseCache(kv, cfg.Cache.CourseTTL, logger)
	mediaService := storage.NewMediaService(objectStore, cfg.Storage.MaxBytes, logger)
	tokens := security.NewTokenIssuer(
		cfg.Security.JWTAccessSecret,
		cfg.Security.JWTRefreshSecret,
		cfg.Security.JWTAccessTTL,
		cfg.Security.JWTRefreshTTL,
	)
	activator := security.NewActivator(cfg.Security.JWTActivationSecret, cfg.Security.ActivationTTL)

	stores := backend.Stores
	users := service.NewUserService(stores.Users, sessions, mediaService, logger)
	notifications := service.NewNotificationService(stores.Notifications, cfg.Notifications.Retention, m, logger)

	handlerSet := handlers.NewHandlerSet(handlers.Deps{
		Log:           logger,
		Config:        cfg,
		Auth:          service.NewAuthService(stores.Users, sessions, tokens, activator, mailer, m, logger),
		Users:         users,
		Courses:       service.NewCourseService(stores.Courses, courseCache, mediaService, logger),
		Threads:       service.NewThreadService(stores.Courses, courseCache, notifications, mailer, m, logger),
		Notifications: notifications,
		Orders:        service.NewOrderService(stores.Orders, stores.Courses, courseCache, users, notifications, mailer, m, logger),
		Checks: map[string]handlers.Pinger{
			"database": handlers.PingFunc(backend.Ping),
			"cache":    kv,
			"storage":  objectStore,
		},
	})
	httpServer := server.NewHTTPServer(cfg, logger, m, handlerSet)

	scheduler := jobs.NewScheduler(redisClient, cfg.Queue.Stream, cfg.Notifications.SweepSchedule, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, backend, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, backend *database.Backend, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop()

	backend.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
