package main

import (
	"context"
	"errors"
	"os"
	"time"

	"expensetracker/internal/api"
	"expensetracker/internal/cache"
	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	"expensetracker/internal/ledger"
	"expensetracker/internal/log"
	"expensetracker/internal/worker"
)

func main() {
	cfg, logger := cli.LoadConfig()
	logger.Info("Starting ledger-worker", log.FieldLedger, cfg.LedgerBackend)

	client, err := api.NewClient(api.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.APITimeout})
	if err != nil {
		logger.Error("Failed to create API client", log.FieldError, err)
		os.Exit(1)
	}

	var w ledger.Writer
	switch cfg.LedgerBackend {
	case config.LedgerSheets:
		sheets, err := ledger.NewSheets(context.Background(), ledger.SheetsConfig{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets ledger", log.FieldError, err)
			os.Exit(1)
		}
		w = sheets
	default:
		w = ledger.NewMemory()
		logger.Warn("Using in-memory ledger; rows are lost on exit")
	}

	events := cli.InitEvents(logger, cfg, true)
	defer events.Close()

	lw := worker.NewLedgerWorker(client, w, logger)
	cacheManager := cache.NewManager(logger)
	cacheManager.Register(lw.SeenEvents())
	cacheManager.StartCleanup(10 * time.Minute)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		cacheManager.Stop()
		st := lw.Stats()
		logger.Info("Ledger worker stats",
			log.FieldAppended, st.Appended,
			log.FieldDuplicates, st.Duplicates,
			log.FieldSkipped, st.Skipped,
			log.FieldFailed, st.Failed)
	})

	if err := events.Consume(ctx, lw.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
