package main

import (
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

var version = "dev"

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentRecurring)
	logger.Info("Starting recurring-worker", "version", version)

	cfg := cli.LoadAndValidateConfig(logger)
	flushSentry := cli.InitSentry(logger, cfg, "recurring-worker@"+version)
	defer flushSentry()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// The API process owns the dashboard cache; this worker only publishes
	// events so the exporter catches materialized months.
	amqpClient := cli.InitAMQP(logger, cfg)
	var publisher services.Publisher
	if amqpClient != nil {
		publisher = amqpClient
		defer amqpClient.Close()
	}

	finance := services.NewFinanceService(repo, publisher, nil)
	processor := services.NewRecurringProcessor(repo, finance)
	sessions := auth.NewService(repo, cfg.SessionTTL)

	logger.Info("Recurring processor configured",
		"interval", cfg.RecurringInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	run := func(now time.Time) {
		fields := log.NewFields().WithOperation(log.OpMaterialize).WithPeriod(now.Year(), int(now.Month()))
		count, err := processor.ProcessDue(ctx, now)
		if err != nil {
			if ctx.Err() == nil {
				logger.LogError(ctx, "Recurring processing failed", err, log.OpMaterialize)
			}
			return
		}
		logger.Info("Recurring processing complete", append(fields.ToSlice(),
			"created", count,
			"next_check", now.Add(cfg.RecurringInterval).Format("15:04:05"))...)

		purged, err := sessions.PurgeExpired(ctx)
		if err != nil {
			logger.LogError(ctx, "Session purge failed", err, log.OpDelete)
			return
		}
		if purged > 0 {
			logger.Info("Expired sessions purged", "count", purged)
		}
	}

	logger.Info("Running initial recurring processing...")
	run(time.Now())

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				run(now)
			}
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Recurring-worker stopped", log.FieldOperation, log.OpShutdown)
}

