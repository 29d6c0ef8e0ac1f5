package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/walltribe/backend/internal/middleware"
	"github.com/anonto42/walltribe/backend/internal/router"
	"github.com/anonto42/walltribe/backend/internal/services"
	"github.com/anonto42/walltribe/backend/pkg/config"
	"github.com/anonto42/walltribe/backend/pkg/firebase"
	"github.com/anonto42/walltribe/backend/pkg/logger"
	"github.com/anonto42/walltribe/backend/pkg/metrics"
	"github.com/anonto42/walltribe/backend/validators"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to a config file")
	inMemory := flag.Bool("memory", false, "keep all data in memory instead of PostgreSQL and MongoDB")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()
	zap.ReplaceGlobals(zlog)

	ctx := context.Background()

	verifier, err := newVerifier(ctx, cfg)
	if err != nil {
		zlog.Fatal("Failed to initialize token verification", zap.Error(err))
	}

	var repos router.Repositories
	if *inMemory {
		zlog.Warn("Running with in-memory storage, data is lost on exit")
		repos = router.NewMemoryRepositories()
	} else {
		db, err := config.InitDB(cfg, zlog)
		if err != nil {
			zlog.Fatal("Failed to initialize databases", zap.Error(err))
		}
		defer db.CloseDB()

		if err := router.Migrate(ctx, db, zlog); err != nil {
			zlog.Fatal("Failed to migrate databases", zap.Error(err))
		}
		repos = router.NewDatabaseRepositories(db, cfg, zlog)
	}

	metrics.Init()

	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	config.SetupMiddleware(e, zlog)

	svc := router.NewServices(repos, services.ReactionConfig{
		CounterRetries: cfg.Reactions.CounterRetries,
		UpdateLease:    cfg.Reactions.UpdateLease,
	}, zlog)
	router.SetupRoutes(e, svc, verifier, zlog)

	go func() {
		zlog.Info("Starting server", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zlog.Error("Graceful shutdown failed", zap.Error(err))
	}
	zlog.Info("Server exited")
}

func newVerifier(ctx context.Context, cfg *config.Config) (middleware.TokenVerifier, error) {
	switch cfg.Auth.Mode {
	case "firebase":
		app, err := firebase.InitFirebase(ctx, cfg.Auth.FirebaseCredentialsPath)
		if err != nil {
			return nil, err
		}
		return middleware.NewFirebaseVerifier(app.AuthClient), nil
	case "jwt":
		return middleware.NewJWTVerifier(cfg.Auth.JWTSecret)
	}
	return nil, fmt.Errorf("unknown AUTH_MODE %q", cfg.Auth.Mode)
}
