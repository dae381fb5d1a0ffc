package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/seo-optimizer/metacheck/api"
	"github.com/seo-optimizer/metacheck/config"
	"github.com/seo-optimizer/metacheck/fetcher"
	"github.com/seo-optimizer/metacheck/inspector"
	"github.com/seo-optimizer/metacheck/logging"
	"github.com/seo-optimizer/metacheck/metrics"
	"github.com/seo-optimizer/metacheck/middleware"
	"github.com/seo-optimizer/metacheck/rediscache"
	"github.com/seo-optimizer/metacheck/stats"
)

const (
	shutdownTimeout = 10 * time.Second
	// statsRetainMonths is how many months of counters are kept on disk.
	statsRetainMonths = 12
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "metacheck:", err)
		os.Exit(1)
	}
}

func run() error {
	// Try .env.development first (for local development), then .env
	envFile := config.LoadEnvFiles("")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	if envFile == "" {
		logger.Info("No .env file found, using environment variables")
	} else {
		logger.Info("Loaded environment file", zap.String("file", envFile))
	}

	gin.SetMode(cfg.GinMode)

	storage, err := stats.NewStorage(cfg.DataDir, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize stats storage: %w", err)
	}
	storage.Cleanup(statsRetainMonths)

	requests, err := logging.NewStatistics(cfg.DataDir, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize request statistics: %w", err)
	}

	m := metrics.New(metrics.DefaultNamespace, logger)

	f := fetcher.New(
		fetcher.WithTimeout(cfg.FetchTimeout),
		fetcher.WithProxies(cfg.FetchProxies...),
		fetcher.WithMaxBodySize(cfg.FetchMaxBody),
		fetcher.WithLogger(logger),
		fetcher.WithObserver(m),
	)

	opts := []inspector.Option{
		inspector.WithCacheTTL(cfg.CacheTTL),
		inspector.WithMaxCacheSize(cfg.CacheMaxEntries),
		inspector.WithStats(storage),
		inspector.WithMetrics(m),
		inspector.WithLogger(logger),
	}
	if cfg.RedisAddr != "" {
		shared, err := rediscache.New(rediscache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize shared cache: %w", err)
		}
		defer shared.Close()
		opts = append(opts, inspector.WithSharedCache(shared))
		logger.Info("Shared report cache enabled", zap.String("addr", cfg.RedisAddr))
	}
	ins := inspector.New(f, opts...)

	router := api.NewRouter(api.Deps{
		Inspector:      ins,
		Statistics:     requests,
		Metrics:        m,
		RateLimiter:    middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		Logger:         logger,
		DevMode:        cfg.DevMode,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			zap.String("addr", "http://localhost:"+cfg.Port),
			zap.String("mode", cfg.GinMode),
			zap.Bool("devMode", cfg.DevMode),
			zap.Int("proxies", len(cfg.FetchProxies)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server shutdown incomplete", zap.Error(err))
	}

	ins.Close()
	if err := requests.Save(); err != nil {
		logger.Warn("Failed to save request statistics", zap.Error(err))
	}
	if err := storage.Shutdown(); err != nil {
		logger.Warn("Failed to shutdown stats storage", zap.Error(err))
	}

	logger.Info("Server stopped")
	return nil
}
