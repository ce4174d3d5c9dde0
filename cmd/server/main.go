package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"famcare/internal/config"
	"famcare/internal/database"
	"famcare/internal/logger"
	"famcare/internal/notify"
	"famcare/internal/repository"
	"famcare/internal/scheduler"
	"famcare/internal/server"
)

func main() {
	log := logger.New("main")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if cfg.DatabaseURI == "" {
		log.Fatal().Msg("DATABASE_URI is required")
	}
	if cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "" {
		log.Fatal().Msg("VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY are required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, cfg.DatabaseURI)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Connected to database")

	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	log.Info().Msg("Database migrations completed")

	reminderRepo := repository.NewReminderRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)

	clock := scheduler.SystemClock{}
	transport := notify.NewWebPushTransport(
		cfg.VAPIDSubscriber, cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.DeliveryTimeout)
	dispatcher := notify.NewDispatcher(subscriptionRepo, transport, cfg.DeliveryTimeout)
	coordinator := scheduler.NewCoordinator(reminderRepo, dispatcher, clock)

	// Exactly one scanner per deployment; nothing starts implicitly.
	scanner, err := scheduler.NewScanner(reminderRepo, coordinator, clock, scheduler.ScannerOptions{
		Interval:  cfg.ScanInterval,
		CronSpec:  cfg.ScanCron,
		BatchSize: cfg.ScanBatchSize,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scanner")
	}
	go scanner.Start(ctx)

	srv := server.New(reminderRepo, subscriptionRepo, coordinator, clock)
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.SetupRouter(),
	}

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("Shutting down...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Err(err).Msg("HTTP shutdown error")
		}
	}()

	log.Info().Str("port", cfg.Port).Msg("Starting server...")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server error")
	}
}
