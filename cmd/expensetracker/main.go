package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"expensetracker/internal/api"
	"expensetracker/internal/cache"
	"expensetracker/internal/charts"
	"expensetracker/internal/cli"
	apphttp "expensetracker/internal/http"
	"expensetracker/internal/log"
	"expensetracker/internal/session"
	"expensetracker/internal/views"
)

func main() {
	cfg, logger := cli.LoadConfig()
	logger.Info("Starting expensetracker")

	client, err := api.NewClient(api.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.APITimeout})
	if err != nil {
		logger.Error("Failed to create API client", log.FieldError, err)
		os.Exit(1)
	}

	journal := cli.InitJournal(logger, cfg)
	var (
		recorder api.FailureRecorder
		failures apphttp.FailureLog
	)
	if journal != nil {
		defer journal.Close()
		recorder, failures = journal, journal
	}
	service := api.NewService(client, logger, recorder)

	viewDeps := views.Deps{Logger: logger}
	var events apphttp.EventsHealth
	if ev := cli.InitEvents(logger, cfg, false); ev != nil {
		defer ev.Close()
		viewDeps.Events = ev
		events = ev
	}

	sessions := session.NewStore(service, viewDeps, session.Config{
		TTL:     cfg.SessionTTL,
		MaxSize: cfg.SessionMax,
		Secure:  cfg.SecureCookies,
	})
	cacheManager := cache.NewManager(logger)
	cacheManager.Register(sessions.Cache())
	cacheManager.StartCleanup(time.Minute)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Logger:     logger,
		Sessions:   sessions,
		Journal:    failures,
		Events:     events,
		BackendURL: client.BaseURL(),
		Charts:     charts.NewGenerator(),
		RateLimit:  cfg.RateLimit,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cacheManager.Stop()
	})

	go cli.PruneJournal(ctx, logger, journal, cfg.JournalRetention)

	logger.Info("Listening",
		log.FieldPort, cfg.Port,
		log.FieldAPIBaseURL, client.BaseURL(),
		log.FieldJournal, journal != nil,
		log.FieldEvents, events != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, log.FieldPort, cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
