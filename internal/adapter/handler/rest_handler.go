package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/hive-corporation/alert-enricher/internal/adapter/exporter"
	"github.com/hive-corporation/alert-enricher/internal/core/domain"
	"github.com/hive-corporation/alert-enricher/internal/core/ports"
)

// maxEventBytes bounds an inbound SNS event. SNS itself caps messages at 256 KiB.
const maxEventBytes = 1 << 20

type RestHandler struct {
	enricher     ports.Enricher
	repo         ports.AlertRepository
	cefExporter  *exporter.CEFExporter
	stixExporter *exporter.STIXExporter
}

// NewRestHandler wires the enrichment endpoints. repo may be nil, in which case
// the feed endpoint reports 503.
func NewRestHandler(enricher ports.Enricher, repo ports.AlertRepository) *RestHandler {
	h := &RestHandler{
		enricher: enricher,
		repo:     repo,
	}
	if repo != nil {
		h.cefExporter = exporter.NewCEFExporter(repo)
		h.stixExporter = exporter.NewSTIXExporter(repo)
	}
	return h
}

// Health check endpoint
func (h *RestHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "alert-enricher-api",
	}
	writeJSON(w, http.StatusOK, response)
}

// EnrichAlert runs the pipeline on an SNS event posted as the request body
func (h *RestHandler) EnrichAlert(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "event exceeds size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	result := h.enricher.Enrich(r.Context(), raw)

	status := http.StatusOK
	if !result.Succeeded() {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

// ClassifyAlarm returns category, severity and recommendations for an alarm name
func (h *RestHandler) ClassifyAlarm(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing 'name' parameter")
		return
	}

	response := map[string]interface{}{
		"alarm_name":     name,
		"classification": domain.ClassifyAlarm(name),
	}
	writeJSON(w, http.StatusOK, response)
}

// GetAlertFeed exports recorded alerts for SIEM ingestion
func (h *RestHandler) GetAlertFeed(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "alert store not configured")
		return
	}

	format := r.URL.Query().Get("format")
	since := r.URL.Query().Get("since") // e.g., "24h", "90m"

	var sinceTime time.Time
	if since != "" {
		duration, err := time.ParseDuration(since)
		if err != nil || duration <= 0 {
			writeError(w, http.StatusBadRequest, "invalid 'since' parameter (use format like '24h', '90m')")
			return
		}
		sinceTime = time.Now().Add(-duration)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	switch format {
	case "cef", "":
		data, err := h.cefExporter.Export(ctx, sinceTime)
		if err != nil {
			log.Printf("❌ CEF export failed: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to export CEF feed")
			return
		}
		writeText(w, "text/plain; charset=utf-8", data)

	case "stix":
		data, err := h.stixExporter.Export(ctx, sinceTime)
		if err != nil {
			log.Printf("❌ STIX export failed: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to export STIX feed")
			return
		}
		writeText(w, "application/json; charset=utf-8", data)

	case "json":
		if sinceTime.IsZero() {
			sinceTime = time.Now().Add(-24 * time.Hour)
		}
		records, err := h.repo.FindSince(ctx, sinceTime, 1000)
		if err != nil {
			log.Printf("❌ JSON export failed: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to query alerts")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"count":  len(records),
			"alerts": records,
		})

	default:
		writeError(w, http.StatusBadRequest, "unsupported format (use 'cef', 'stix', or 'json')")
	}
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeText(w http.ResponseWriter, contentType, data string) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(data)); err != nil {
		log.Printf("Error writing feed response: %v", err)
	}
}
