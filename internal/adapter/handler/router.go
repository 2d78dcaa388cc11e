package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter registers the REST API routes with logging and bearer-token auth.
func NewRouter(h *RestHandler, authToken string) *mux.Router {
	router := mux.NewRouter()

	// Health check
	router.HandleFunc("/api/v1/health", h.Health).Methods(http.MethodGet)

	// Alert endpoints
	router.HandleFunc("/api/v1/alerts/enrich", h.EnrichAlert).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/alerts/classify", h.ClassifyAlarm).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/alerts/feed", h.GetAlertFeed).Methods(http.MethodGet)

	// Metrics endpoint (requires authentication)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	router.Use(LoggingMiddleware)
	router.Use(AuthMiddleware(authToken))

	return router
}
