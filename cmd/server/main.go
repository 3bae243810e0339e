// Package main is the entry point for the OceanEye API server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/oceaneye/oceaneye/internal/analysis"
	"github.com/oceaneye/oceaneye/internal/api"
	"github.com/oceaneye/oceaneye/internal/auth"
	"github.com/oceaneye/oceaneye/internal/config"
	"github.com/oceaneye/oceaneye/internal/database"
	"github.com/oceaneye/oceaneye/internal/logging"
	"github.com/oceaneye/oceaneye/internal/media"
	"github.com/oceaneye/oceaneye/internal/metrics"
	"github.com/oceaneye/oceaneye/internal/report"
	"github.com/oceaneye/oceaneye/internal/repository"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}
	logger := logging.NewLogger(cfg.Env)
	defer func() { _ = logger.Sync() }()

	if cfg.JWTSecret == "" {
		logger.Fatal("OCEANEYE_JWT_SECRET is required")
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal("ensure schema", zap.Error(err))
	}
	reportRepo := repository.NewReportRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	store, err := newMediaStore(ctx, cfg)
	if err != nil {
		logger.Fatal("init media store", zap.Error(err))
	}

	m := metrics.New()
	registry := prometheus.NewRegistry()
	if err := m.Register(registry); err != nil {
		logger.Fatal("register metrics", zap.Error(err))
	}

	analyzer := analysis.NewClient(cfg.AnalysisURL, cfg.AnalysisTimeout)
	tokens := auth.NewService(cfg.JWTSecret, cfg.TokenTTL)
	pipeline := report.New(store, analyzer, reportRepo, cfg.AnalysisPolicy, m, logger)

	srv := api.New(cfg, logger, pipeline, reportRepo, userRepo, tokens, m, registry)
	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func newMediaStore(ctx context.Context, cfg *config.Config) (media.Store, error) {
	if cfg.MediaBackend == config.BackendS3 {
		store, err := media.NewS3Store(cfg)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	}
	return media.NewDiskStore(cfg.UploadDir, cfg.PublicBaseURL, cfg.UploadPathPrefix, cfg.MaxUploadBytes)
}
