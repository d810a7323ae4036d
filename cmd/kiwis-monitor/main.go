package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vipul43/kiwis-monitor/internal/config"
	"github.com/vipul43/kiwis-monitor/internal/database"
	"github.com/vipul43/kiwis-monitor/internal/google"
	"github.com/vipul43/kiwis-monitor/internal/monitor"
	"github.com/vipul43/kiwis-monitor/internal/pushbus"
	"github.com/vipul43/kiwis-monitor/internal/repository"
	"github.com/vipul43/kiwis-monitor/internal/syncctl"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close(db)

	log.Println("Database connected successfully")

	// Run migrations
	log.Println("Running database migrations...")
	if err := database.RunMigrations(db); err != nil {
		return err
	}
	log.Println("Migrations completed successfully")

	// Initialize repositories
	eventRepo := repository.NewSyncEventRepository(db)
	statusRepo := repository.NewJobStatusRepository(db)
	accountRepo := repository.NewAccountRepository(db)

	// Initialize external collaborators
	googleClient := google.NewClient(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	authorizer := google.NewAuthorizer(googleClient, accountRepo, cfg.UserID)
	controlClient := syncctl.NewClient(cfg.SyncControlURL, cfg.SyncControlToken, cfg.UserID)

	// Push channel is optional; the monitor degrades to polling without it
	var push monitor.PushBus
	if cfg.NatsURL != "" {
		bus, err := pushbus.Connect(cfg.NatsURL)
		if err != nil {
			log.Printf("Warning: push channel unavailable, running on polling only: %v", err)
		} else {
			defer bus.Close()
			push = bus
		}
	}

	// Initialize monitor
	m := monitor.New(cfg, eventRepo, statusRepo, controlClient, push, authorizer)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start monitor in goroutine
	errChan := make(chan error, 1)
	go func() {
		errChan <- m.Start(ctx)
	}()

	// Wait for shutdown signal or error
	select {
	case <-sigChan:
		log.Println("Shutdown signal received")
		cancel()

		// Wait for graceful shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeout)*time.Second)
		defer shutdownCancel()

		select {
		case <-shutdownCtx.Done():
			log.Println("Shutdown timeout exceeded")
		case err := <-errChan:
			if err != nil && err != context.Canceled {
				log.Printf("Monitor error: %v", err)
			}
		}

		log.Println("Application stopped")
		return nil

	case err := <-errChan:
		return err
	}
}
