package main

import (
	"context"
	"errors"
	"os"
	"time"

	"wemoney/internal/amqp"
	"wemoney/internal/cache"
	"wemoney/internal/cli"
	"wemoney/internal/export"
	"wemoney/internal/log"
	"wemoney/internal/services"
	"wemoney/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	logger.Info("starting wemoney-worker")

	if !cfg.EventsEnabled() {
		logger.Error("worker requires AMQP_URL to consume expense events")
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// The worker keeps its own month cache: it re-reads months the API
	// just invalidated, so entries stay warm between events.
	monthCache := cache.NewLRUCache[services.MonthData](cfg.CacheMaxEntries, cfg.CacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(monthCache)
	cacheManager.StartCleanup(cfg.CacheTTL)
	defer cacheManager.Stop()

	summary := services.NewSummaryService(repo, monthCache)

	var reporter export.Reporter
	if cfg.ExportEnabled() {
		sheets, err := export.NewSheetsReporterFromEnv(context.Background())
		if err != nil {
			logger.Error("failed to initialize Google Sheets reporter", "error", err)
			os.Exit(1)
		}
		reporter = sheets
		logger.Info("Google Sheets reporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled, no GOOGLE_SPREADSHEET_ID provided")
	}

	reportWorker := worker.NewReportWorker(repo, summary, reporter)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	logger.Info("consuming expense events", "queue", cfg.AMQPQueue)
	err = amqpClient.ConsumeExpenseEvents(ctx, func(event *amqp.ExpenseEvent) error {
		return reportWorker.HandleExpenseEvent(ctx, event)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("event consumption failed", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("worker stopped gracefully")
}
