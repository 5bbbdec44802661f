package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/peerpoint/scoring-engine/internal/app"
	"github.com/peerpoint/scoring-engine/internal/cache"
	"github.com/peerpoint/scoring-engine/internal/config"
	"github.com/peerpoint/scoring-engine/internal/db"
	"github.com/peerpoint/scoring-engine/internal/jobs"
	"github.com/peerpoint/scoring-engine/internal/logger"
	"github.com/peerpoint/scoring-engine/internal/server"
	"github.com/peerpoint/scoring-engine/internal/service/trending"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}
	if err := db.SeedCatalogs(database); err != nil {
		log.Error("failed to seed catalogs", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	appCtx := app.New(database, redisCache, log, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := jobs.NewScheduler(trending.NewService(appCtx), cfg, log)
	if err := scheduler.Start(ctx); err != nil {
		log.Error("failed to start scheduler", "err", err)
		return
	}

	addr := cfg.GRPC.Host + ":" + cfg.GRPC.Port
	log.Info("starting health server", "addr", addr)
	go func() {
		if err := server.StartGRPCServer(cfg, server.NewHealthRegistrar()); err != nil {
			log.Error("health server exited", "err", err)
			cancel()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-stop:
	case <-ctx.Done():
	}

	scheduler.Stop()
	log.Info("sweeper shut down")
}
