package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-catalog/internal/catalogclient"
	"github.com/Clark-Hu/movie-catalog/internal/observability"
	"github.com/Clark-Hu/movie-catalog/internal/seed"
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:8080", "catalog base URL")
		data    = flag.String("data", "seed.json", "path to seed data file")
		token   = flag.String("token", os.Getenv("AUTH_TOKEN"), "bearer token for write routes")
		workers = flag.Int("workers", 4, "directors created concurrently")
		timeout = flag.Duration("timeout", 5*time.Second, "per-request timeout")
		debug   = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	level := "info"
	if *debug {
		level = "debug"
	}
	logger, err := observability.NewLogger("development", level)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	file, err := os.Open(*data)
	if err != nil {
		logger.Fatal("open seed data", zap.Error(err))
	}
	fixture, err := seed.Decode(file)
	_ = file.Close()
	if err != nil {
		logger.Fatal("parse seed data", zap.Error(err))
	}

	client, err := catalogclient.NewHTTPClient(*baseURL, *token, *timeout, logger)
	if err != nil {
		logger.Fatal("init catalog client", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := seed.Apply(ctx, client, fixture, *workers, logger)
	logger.Info("seed finished",
		zap.Int64("directors", res.Directors),
		zap.Int64("movies", res.Movies),
		zap.Int64("skipped", res.Skipped),
		zap.Int64("failed", res.Failed))
	if err != nil {
		logger.Fatal("seed interrupted", zap.Error(err))
	}
	if res.Failed > 0 {
		os.Exit(1)
	}
}
