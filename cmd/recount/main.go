// Command recount overwrites the like, dislike and favorite counters of images
// with the number of facts stored for them. It can run against a live system: an
// image is only rewritten when no reaction touched it during the count, and images
// that stay busy are skipped.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/anonto42/walltribe/backend/internal/router"
	"github.com/anonto42/walltribe/backend/internal/services"
	"github.com/anonto42/walltribe/backend/pkg/config"
	"github.com/anonto42/walltribe/backend/pkg/logger"
	"github.com/anonto42/walltribe/backend/pkg/metrics"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to a config file")
	imageID := flag.String("image", "", "recount a single image instead of all of them")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	zlog, err := logger.New(cfg.LogLevel, "")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDB(cfg, zlog)
	if err != nil {
		zlog.Fatal("Failed to initialize databases", zap.Error(err))
	}
	defer db.CloseDB()

	metrics.Init()
	svc := router.NewServices(router.NewDatabaseRepositories(db, cfg, zlog), services.ReactionConfig{
		CounterRetries: cfg.Reactions.CounterRetries,
		UpdateLease:    cfg.Reactions.UpdateLease,
	}, zlog)

	if *imageID != "" {
		delta, err := svc.Reactions.Recount(ctx, *imageID)
		if err != nil {
			zlog.Fatal("Recount failed", zap.String("image_id", *imageID), zap.Error(err))
		}
		zlog.Info("Recount done", zap.String("image_id", *imageID), zap.Bool("changed", delta.Changed()),
			zap.Any("before", delta.Before), zap.Any("after", delta.After))
		return
	}

	repaired, err := svc.Reactions.RecountAll(ctx)
	for _, delta := range repaired {
		zlog.Info("Repaired image counters", zap.String("image_id", delta.ImageID),
			zap.Any("before", delta.Before), zap.Any("after", delta.After))
	}
	if err != nil {
		zlog.Fatal("Recount failed", zap.Error(err))
	}
}
