package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pricewatch/app/api"
	"pricewatch/app/cfg"
	"pricewatch/app/database"
	"pricewatch/app/notify"
	"pricewatch/app/scrape"
	"pricewatch/app/tracker"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Price Watch server", "version", appCfg.Version)

	db, err := database.NewConnection(
		appCfg.DBHost, appCfg.DBPort, appCfg.DBUser,
		appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "migration_version", version, "dirty", dirty)

	itemRepo := database.NewItemRepository(db)
	historyRepo := database.NewHistoryRepository(db)
	alertRepo := database.NewAlertRepository(db)

	fetcher := scrape.NewFetcher(appCfg.UserAgent, time.Duration(appCfg.FetchTimeout)*time.Second)
	extractor := scrape.NewExtractor()

	sender := notify.NewEmailSender(notify.SmtpConfig{
		Server:   appCfg.SmtpServer,
		Port:     appCfg.SmtpPort,
		Address:  appCfg.SmtpAddress,
		Password: appCfg.SmtpPassword,
	})
	notifier := tracker.NewNotifier(alertRepo, sender)

	sweeper := tracker.NewSweeper(itemRepo, historyRepo, fetcher, extractor, notifier,
		time.Duration(appCfg.StaleAfter)*time.Second,
		time.Duration(appCfg.SweepInterval)*time.Second,
		time.Duration(appCfg.ItemDelay)*time.Millisecond)
	sweeper.Start()
	defer sweeper.Stop()
	slog.Info("Background sweeper started", "interval", appCfg.SweepInterval, "stale_after", appCfg.StaleAfter)

	handler := api.NewHandler(itemRepo, historyRepo, alertRepo, fetcher, extractor, sweeper)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Sweeper is stopped via defer
	slog.Info("Shutdown complete")
}
