package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fisapp/receipt-bff-go/internal/config"
	"github.com/fisapp/receipt-bff-go/internal/domain"
	"github.com/fisapp/receipt-bff-go/internal/handler"
	"github.com/fisapp/receipt-bff-go/internal/imaging"
	"github.com/fisapp/receipt-bff-go/internal/infra/backend"
	"github.com/fisapp/receipt-bff-go/internal/infra/cache"
	"github.com/fisapp/receipt-bff-go/internal/infra/observability"
	"github.com/fisapp/receipt-bff-go/internal/infra/resilience"
	"github.com/fisapp/receipt-bff-go/internal/service"
	"github.com/fisapp/receipt-bff-go/internal/session"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("backend_api_url", cfg.BackendAPIURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("session_ttl", cfg.SessionTTL),
		zap.Duration("stats_cache_ttl", cfg.StatsCacheTTL),
		zap.Int("max_image_bytes", cfg.MaxImageBytes),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "receipt-bff")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Caches ---
	sessions := session.NewStore(cfg.SessionTTL)
	statsCache := cache.New[*domain.Stats](cfg.StatsCacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("backend-api")
	bulkhead := resilience.NewBulkhead(cfg.MaxConcurrency)

	// --- Backend client ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	backendClient := backend.NewClient(httpClient, cfg.BackendAPIURL, cb, resilienceCfg, logger)

	// --- Imaging ---
	imgOpts := imaging.Options{
		MaxBytes:       cfg.MaxImageBytes,
		MaxDimension:   cfg.MaxImageDimension,
		ContrastFactor: cfg.ContrastFactor,
	}

	// --- Services ---
	svcs := handler.Services{
		Auth:     service.NewAuthService(backendClient, sessions, metrics, logger),
		Receipts: service.NewReceiptService(backendClient, sessions, statsCache, bulkhead, imgOpts, metrics, logger),
		ZReports: service.NewZReportService(backendClient, sessions, bulkhead, imgOpts, metrics, logger),
		Export:   service.NewExportService(logger),
		Sessions: sessions,
		Metrics:  metrics,
	}

	// --- Router ---
	router := handler.NewRouter(svcs, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}
