package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"learnhub/gateway/internal/cache"
	"learnhub/gateway/internal/catalog"
	"learnhub/gateway/internal/config"
	"learnhub/gateway/internal/handlers"
	"learnhub/gateway/internal/jobs"
	"learnhub/gateway/internal/log"
	"learnhub/gateway/internal/server"
	"learnhub/gateway/internal/session"
	"learnhub/gateway/internal/upstream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	sessions := session.NewRedisStore(redisClient, cfg.Session.TTL)
	api := upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, logger)
	courseCatalog := catalog.New(catalog.NewRedisCache(redisClient, cfg.Catalog.TTL), api, logger)

	handlerSet := handlers.NewHandlerSet(logger, cfg, api, sessions, courseCatalog)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(courseCatalog, sessions, cfg.Catalog.RefreshSpec, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	if scheduler != nil {
		scheduler.Stop()
	}

	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("gateway exited cleanly")
}
