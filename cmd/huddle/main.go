package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/navikt/huddle/internal/api"
	"github.com/navikt/huddle/internal/config"
	"github.com/navikt/huddle/internal/metrics"
	"github.com/navikt/huddle/internal/provider"
	"github.com/navikt/huddle/internal/repository"
	"github.com/navikt/huddle/internal/service"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if !cfg.Provider.IsProviderConfigValid() {
		log.Fatalf("Provider base URL and access token must be configured")
	}

	// Initialize the repository using the factory
	repo, err := repository.NewRepository(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize repository: %v", err)
	}

	// Close the Redis connection properly on exit when applicable
	if closer, ok := repo.(interface{ Close() error }); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				log.Printf("Error closing repository: %v", err)
			}
		}()
	}

	// Metrics registry and collector
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// Provider gateway and session workflow
	gateway := provider.NewAPIClient(cfg.Provider)
	ledger := service.NewOccupancyLedger(repo, cfg.Redis.LedgerTTL)
	tracker := service.NewParticipantUsageTracker(repo, cfg.Redis.LedgerTTL)
	coordinator := service.NewSessionCoordinator(gateway, repo, ledger, tracker, collector, service.CoordinatorConfig{
		SessionTTL:         cfg.Redis.SessionTTL,
		LedgerTTL:          cfg.Redis.LedgerTTL,
		DefaultMediaRegion: cfg.Provider.MediaRegion,
	})

	// The readiness probe pings the store when the implementation supports it
	var pinger api.Pinger
	if p, ok := repo.(api.Pinger); ok {
		pinger = p
	}

	mux := api.SetupRoutes(coordinator, pinger, registry)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors coming from the listener
	serverErrors := make(chan error, 1)

	go func() {
		log.Printf("Starting huddle server on port %s", cfg.Server.Port)
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for an interrupt or terminate signal from the OS
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Fatalf("Error starting server: %v", err)

	case <-shutdown:
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			server.Close()
			log.Fatalf("Error shutting down server: %v", err)
		}

		log.Println("Server gracefully stopped")
	}
}
