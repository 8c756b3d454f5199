package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	flushSentry := cli.InitSentry(logger, cfg, "finance-api@"+version)
	defer flushSentry()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	amqpClient := cli.InitAMQP(logger, cfg)
	var publisher services.Publisher
	if amqpClient != nil {
		publisher = amqpClient
		defer amqpClient.Close()
	}

	dashboards := services.NewDashboardService(repo, cfg.CacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(dashboards.Cache())
	cacheManager.StartCleanup(time.Minute)
	defer cacheManager.Stop()

	finance := services.NewFinanceService(repo, publisher, dashboards)
	svc := apphttp.Services{
		Finance:    finance,
		Dashboards: dashboards,
		Recurring:  services.NewRecurringProcessor(repo, finance),
		Auth:       auth.NewService(repo, cfg.SessionTTL),
		Store:      repo,
	}

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
		Logger:             logger.WithComponent(log.ComponentHTTP),
	}, svc)
	if err != nil {
		logger.Error("Failed to configure HTTP server", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting finance API",
		"port", cfg.Port,
		"version", version,
		"amqp", amqpClient != nil,
		"cache_ttl", cfg.CacheTTL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
