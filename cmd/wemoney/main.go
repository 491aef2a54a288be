package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"wemoney/internal/amqp"
	"wemoney/internal/auth"
	"wemoney/internal/cache"
	"wemoney/internal/cli"
	apphttp "wemoney/internal/http"
	"wemoney/internal/log"
	"wemoney/internal/metrics"
	"wemoney/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Events are optional: without a broker the API still works, the
	// reporting worker just never hears about writes. The publisher stays
	// a nil interface when disabled, a typed nil would dodge the service's
	// nil check.
	var publisher services.EventPublisher
	if cfg.EventsEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("expense events disabled, no AMQP_URL provided")
	}

	monthCache := cache.NewLRUCache[services.MonthData](cfg.CacheMaxEntries, cfg.CacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(monthCache)
	cacheManager.StartCleanup(cfg.CacheTTL)
	defer cacheManager.Stop()

	summary := services.NewSummaryService(repo, monthCache)
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Authenticator: auth.NewPasswordAuthenticator(repo),
		JWTManager:    auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTokenTTL),
		Workspace:     services.NewWorkspaceService(repo, summary),
		Categories:    services.NewCategoryService(repo, summary),
		Ledger:        services.NewLedgerService(repo, publisher, summary),
		Summary:       summary,
		Storage:       repo,
		Metrics:       metrics.New(),
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	})

	logger.Info("starting wemoney server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("server stopped gracefully")
}
