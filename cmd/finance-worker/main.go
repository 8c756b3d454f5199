package main

import (
	"context"
	"errors"
	"os"
	"time"

	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/sheets/memory"
	"fintrack/internal/worker"
)

var version = "dev"

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting finance-worker", "version", version)

	cfg := cli.LoadAndValidateConfig(logger)
	flushSentry := cli.InitSentry(logger, cfg, "finance-worker@"+version)
	defer flushSentry()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	amqpClient := cli.InitAMQP(logger, cfg)
	if amqpClient == nil {
		logger.Error("finance-worker requires AMQP_URL to consume ledger changes")
		os.Exit(1)
	}
	defer amqpClient.Close()

	exporter, err := newExporter(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize dashboard exporter", log.FieldError, err)
		os.Exit(1)
	}

	// Another process writes the ledger, so dashboards are never cached here.
	dashboards := services.NewDashboardService(repo, 0)
	exportWorker := worker.NewExportWorker(dashboards, repo, exporter, cfg.ExportUserEmail)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	logger.Info("Performing startup export...", log.FieldOperation, log.OpStartup)
	if err := exportWorker.StartupExport(ctx); err != nil {
		logger.LogError(ctx, "Startup export failed", err, log.OpExport)
	}

	go func() {
		err := amqpClient.ConsumeLedgerChanged(ctx, exportWorker.HandleLedgerChanged)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.LogError(ctx, "Message consumption failed", err, log.OpExport)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}

// newExporter writes to Google Sheets when a spreadsheet is configured and
// keeps the rows in memory otherwise.
func newExporter(cfg *config.Config, logger *log.Logger) (sheets.DashboardExporter, error) {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets disabled - exporting dashboards in memory only")
		return memory.New(cfg.DashboardSheetName), nil
	}
	client, err := gsheet.New(context.Background(), gsheet.Options{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		DashboardSheetName: cfg.DashboardSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}
