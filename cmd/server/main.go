package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hilo-match/hilo/internal/app"
	"github.com/hilo-match/hilo/internal/cache"
	"github.com/hilo-match/hilo/internal/config"
	"github.com/hilo-match/hilo/internal/db"
	"github.com/hilo-match/hilo/internal/logger"
	"github.com/hilo-match/hilo/internal/matching"
	"github.com/hilo-match/hilo/internal/repository"
	"github.com/hilo-match/hilo/internal/scheduler"
	"github.com/hilo-match/hilo/internal/server"
	"github.com/hilo-match/hilo/internal/tags"
)

func main() {
	cfg := config.New()
	logger.InitFromConfig(cfg)
	log := logger.L()

	weights := matching.WeightsFromConfig(cfg)
	if err := weights.Validate(); err != nil {
		log.Error("invalid matching weights", "err", err)
		os.Exit(1)
	}

	catalog, err := tags.LoadCatalog(cfg.Matching.TagsFile)
	if err != nil {
		log.Error("failed to load tag catalog", "err", err)
		os.Exit(1)
	}
	traitList, traitSet, err := tags.LoadTraits(cfg.Matching.TraitsFile)
	if err != nil {
		log.Error("failed to load traits", "err", err)
		os.Exit(1)
	}

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}

	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}

	appCtx := &app.AppContext{
		DB:        database,
		Cache:     redisCache,
		Catalog:   catalog,
		TraitList: traitList,
		Traits:    traitSet,
		Config:    cfg,
		Log:       log,
	}

	srv := server.New(appCtx)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dispatcher := scheduler.NewDispatcher(
		repository.NewScheduleRepository(database),
		matching.NewPreviewGenerator(database, catalog, weights, cfg.Matching.PreviewK, log),
		matching.NewFinalAssigner(database, catalog, weights, log),
		redisCache,
		cfg.Scheduler.Tick,
		log.With("component", "dispatcher"),
	)
	sweeper := scheduler.NewSweeper(
		matching.NewLifecycle(database, cfg.Matching.AcceptTimeout, log),
		cfg.Scheduler.SweepInterval,
		log.With("component", "sweeper"),
	)
	go dispatcher.Run(ctx)
	go sweeper.Run(ctx)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "err", err)
	}
}
