// Package cli provides common CLI initialization utilities shared by
// cmd/expensetracker and cmd/ledger-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/config"
	"expensetracker/internal/log"
	"expensetracker/internal/storage"
)

// SetupLogger initializes structured logging at the given LOG_LEVEL and
// sets it as the default logger.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadConfig loads .env and the environment, then validates. It exits the
// process on validation failure.
func LoadConfig() (*config.Config, *log.Logger) {
	envErr := config.LoadEnvFile()
	cfg := config.Load()
	logger := SetupLogger(cfg.LogLevel)
	if envErr != nil {
		logger.Warn("Failed to read .env file", log.FieldError, envErr)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// InitJournal opens the failure journal. It returns nil when the journal is
// disabled or cannot be opened; the app runs without it.
func InitJournal(logger *log.Logger, cfg *config.Config) *storage.Journal {
	if !cfg.JournalEnabled() {
		logger.Info("Failure journal disabled")
		return nil
	}
	j, err := storage.OpenJournal(cfg.JournalDBPath, logger)
	if err != nil {
		logger.Error("Failed to open failure journal, continuing without it",
			log.FieldError, err,
			log.FieldPath, cfg.JournalDBPath)
		return nil
	}
	logger.Info("Failure journal opened", log.FieldPath, cfg.JournalDBPath)
	return j
}

// InitEvents connects to the broker. It returns nil when events are
// disabled; required makes a connection failure fatal.
func InitEvents(logger *log.Logger, cfg *config.Config, required bool) *amqp.Client {
	if !cfg.EventsEnabled() {
		if required {
			logger.Error("AMQP_URL is required")
			os.Exit(1)
		}
		logger.Info("Change events disabled")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		if required {
			logger.Error("Failed to connect to AMQP", log.FieldError, err)
			os.Exit(1)
		}
		logger.Warn("Failed to connect to AMQP, change events disabled", log.FieldError, err)
		return nil
	}
	logger.Info("Connected to AMQP", log.FieldExchange, cfg.AMQPExchange, log.FieldQueue, cfg.AMQPQueue)
	return client
}

// PruneJournal deletes entries older than retention once an hour until ctx
// is cancelled.
func PruneJournal(ctx context.Context, logger *log.Logger, j *storage.Journal, retention time.Duration) {
	if j == nil {
		return
	}
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		n, err := j.PruneBefore(ctx, time.Now().Add(-retention))
		if err != nil && ctx.Err() == nil {
			logger.Warn("Journal prune failed", log.FieldError, err)
		} else if n > 0 {
			logger.Info("Journal pruned", log.FieldCount, n)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that is closed once cleanup has finished.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", log.FieldSignal, sig.String())

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
			return
		}
		logger.Info("Shutdown complete")
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup ran.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
