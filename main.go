package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"garage/internal/config"
	"garage/internal/database"
	"garage/internal/logging"
	"garage/internal/repositories"
	"garage/internal/server"
	"garage/internal/services"
	"garage/internal/storage"
	"garage/pkg/rabbitmq"

	"go.uber.org/zap"
)

// storageScope names this process's entry in the storage registry.
const storageScope = "garage"

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatalw("server stopped with error", "error", err)
	}
}

func run(cfg *config.Config, log *zap.SugaredLogger) error {
	ctx := context.Background()

	// --- Database ---
	db, err := database.Open(cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	// --- Storage ---
	// Misconfiguration fails here, at startup, rather than on the first upload.
	backend, err := storage.NewRegistry(log).Get(ctx, storageScope, cfg.Storage)
	if err != nil {
		return err
	}

	// --- Events ---
	publisher, closePublisher := connectEvents(cfg, log)
	defer closePublisher()

	srv := server.New(server.Deps{
		Config:    cfg,
		DB:        db,
		Storage:   backend,
		Mailer:    services.NewMailer(cfg.Mail, log),
		Publisher: publisher,
		Log:       log,
	})

	if cfg.BootstrapAdmin != "" {
		if err := srv.Admin.Bootstrap(ctx, cfg.BootstrapAdmin); err != nil {
			if !errors.Is(err, repositories.ErrNotFound) {
				return err
			}
			log.Warnw("bootstrap admin does not exist yet", "username", cfg.BootstrapAdmin)
		}
	}

	// --- Start HTTP Server ---
	log.Infow("starting server", "port", cfg.Port, "env", cfg.Env, "storage", backend.Kind())

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.App.Listen(cfg.Port)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-quit:
	}

	log.Info("shutting down server")
	if err := srv.App.Shutdown(); err != nil {
		log.Errorw("error during fiber shutdown", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info("server gracefully stopped")
	return nil
}

// connectEvents returns the event publisher, or nil when RabbitMQ is not
// configured or unreachable. Events are optional; the API works without them.
func connectEvents(cfg *config.Config, log *zap.SugaredLogger) (services.EventPublisher, func()) {
	if cfg.RabbitMQURL == "" {
		return nil, func() {}
	}
	client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, log)
	if err != nil {
		log.Warnw("inventory events disabled", "error", err)
		return nil, func() {}
	}
	return client, func() {
		if err := client.Close(); err != nil {
			log.Warnw("failed to close RabbitMQ client", "error", err)
		}
	}
}
