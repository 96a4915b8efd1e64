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

	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-catalog/internal/cache"
	"github.com/Clark-Hu/movie-catalog/internal/config"
	httpserver "github.com/Clark-Hu/movie-catalog/internal/http"
	"github.com/Clark-Hu/movie-catalog/internal/observability"
	"github.com/Clark-Hu/movie-catalog/internal/repository"
	"github.com/Clark-Hu/movie-catalog/internal/service"
	"github.com/Clark-Hu/movie-catalog/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("dotenv error: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	metrics := observability.NewMetrics()

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	storeOpts := store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	}

	st, err := store.New(dbCtx, cfg.DBURL, storeOpts)
	if err != nil {
		return err
	}
	defer st.Close()

	if cfg.DBAutoMigrate {
		if err := st.Migrate(dbCtx); err != nil {
			return err
		}
	}

	// A nil *RedisBackend must not leak into the Backend interface.
	var backend cache.Backend
	if cfg.CacheEnabled {
		redisOpts := cache.RedisOptions{
			URL:      cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Timeout:  time.Duration(cfg.RedisTimeoutMS) * time.Millisecond,
			Logger:   logger,
		}
		if redisOpts.URL == "" {
			redisOpts.Addr = cfg.RedisAddr()
		}
		rb, err := cache.NewRedisBackend(redisOpts)
		if err != nil {
			return err
		}
		defer func() { _ = rb.Close() }()
		if err := rb.Ping(dbCtx); err != nil {
			logger.Warn("redis unreachable at startup, serving uncached until it recovers", zap.Error(err))
		}
		backend = rb
	}

	gate := cache.NewGate(backend, cache.GateOptions{
		Enabled:    cfg.CacheEnabled,
		DefaultTTL: time.Duration(cfg.CacheDefaultTTLSecs) * time.Second,
		Logger:     logger,
		Metrics:    metrics,
	})

	svcOpts := service.Options{
		ItemTTL: time.Duration(cfg.CacheItemTTLSecs) * time.Second,
		Logger:  logger,
	}
	repo := repository.New(st)
	server := httpserver.New(cfg, httpserver.Deps{
		Store:     st,
		Cache:     gate,
		Directors: service.NewDirectorsService(repo.Directors, repo.Movies, gate, svcOpts),
		Movies:    service.NewMoviesService(repo.Movies, repo.Directors, gate, svcOpts),
		Metrics:   metrics,
		Logger:    logger,
	})

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("graceful shutdown error", zap.Error(err))
	}
	return nil
}
