package main

import (
	"context"
	"errors"
	"net"
	"os/signal"
	"syscall"

	"learnhub/api/internal/cache"
	"learnhub/api/internal/config"
	"learnhub/api/internal/database"
	"learnhub/api/internal/log"
	"learnhub/api/internal/metrics"
	"learnhub/api/internal/queue"
	"learnhub/api/internal/service"
	"learnhub/api/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment).With().Str("component", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := database.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("failed to open document store")
	}
	defer backend.Close()

	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	m := metrics.New()
	ln, err := net.Listen("tcp", cfg.Queue.MetricsAddr)
	if err != nil {
		logger.Fatal().Err(err).Str("addr", cfg.Queue.MetricsAddr).Msg("metrics listener failed")
	}
	go func() {
		if err := m.Serve(ctx, ln); err != nil {
			logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	notifications := service.NewNotificationService(backend.Stores.Notifications, cfg.Notifications.Retention, m, logger)
	processor := tasks.NewProcessor(notifications, logger)
	consumer := queue.NewConsumer(
		client,
		cfg.Queue.Stream,
		cfg.Queue.Group,
		cfg.Queue.Consumer,
		cfg.Queue.ClaimInterval,
		logger,
		processor,
	)

	logger.Info().Str("stream", cfg.Queue.Stream).Str("group", cfg.Queue.Group).Msg("worker started")
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("consumer stopped unexpectedly")
	}
	logger.Info().Msg("worker exited")
}
