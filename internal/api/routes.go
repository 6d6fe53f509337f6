package api

import (
	"net/http"

	"github.com/navikt/huddle/internal/metrics"
	"github.com/navikt/huddle/internal/service"
	"github.com/prometheus/client_golang/prometheus"
)

// SetupRoutes configures the HTTP routes for the API
func SetupRoutes(coordinator *service.SessionCoordinator, pinger Pinger, gatherer prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()

	// Health check endpoints for Kubernetes
	mux.HandleFunc("/health/live", HealthLiveHandler)
	mux.HandleFunc("/health/ready", HealthReadyHandler(pinger))

	// Prometheus scrape endpoint
	if gatherer != nil {
		mux.Handle("/metrics", metrics.Handler(gatherer))
	}

	// Room session endpoints
	roomHandler := NewRoomHandler(coordinator)
	mux.Handle("/api/rooms/", roomHandler)

	return mux
}
