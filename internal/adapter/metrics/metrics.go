package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/hive-corporation/alert-enricher/internal/core/domain"
	"github.com/hive-corporation/alert-enricher/internal/core/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// metricsOnce ensures metrics are registered only once
	metricsOnce sync.Once

	// enrichmentsTotal tracks pipeline outcomes by status (success, failure)
	enrichmentsTotal *prometheus.CounterVec

	// enrichmentDuration tracks end-to-end latency of one enrichment
	enrichmentDuration prometheus.Histogram

	// detectionsTotal tracks classified alerts by detection type and severity
	detectionsTotal *prometheus.CounterVec

	// geoLookupsTotal tracks per-indicator geo context outcomes
	geoLookupsTotal *prometheus.CounterVec

	// geoAPIErrorsTotal tracks geolocation API errors by type
	geoAPIErrorsTotal *prometheus.CounterVec
)

// InitMetrics registers all Prometheus metrics with the default registerer.
// This should be called once at application startup
func InitMetrics() {
	metricsOnce.Do(func() {
		enrichmentsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alert_enrichments_total",
				Help: "Total number of alert enrichments by status",
			},
			[]string{"status"},
		)

		enrichmentDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "alert_enrichment_duration_seconds",
				Help:    "Duration of alert enrichments in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
		)

		detectionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alert_detections_total",
				Help: "Total number of enriched alerts by detection type and severity",
			},
			[]string{"detection_type", "severity"},
		)

		geoLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geo_lookups_total",
				Help: "Total number of indicator geo contexts by outcome",
			},
			[]string{"outcome"},
		)

		geoAPIErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geo_api_errors_total",
				Help: "Total number of geolocation API errors by error type",
			},
			[]string{"error_type"},
		)
	})
}

// RecordEnrichment records a pipeline outcome and, on success, the verdict and
// per-indicator geo outcomes.
func RecordEnrichment(result domain.Result) {
	if enrichmentsTotal != nil {
		enrichmentsTotal.WithLabelValues(string(result.Status)).Inc()
	}

	if result.Alert == nil {
		return
	}

	if detectionsTotal != nil {
		detectionsTotal.WithLabelValues(string(result.Alert.DetectionType), string(result.Alert.Severity)).Inc()
	}

	if geoLookupsTotal != nil {
		for _, ind := range result.Alert.SourceIndicators {
			geoLookupsTotal.WithLabelValues(string(ind.Geo.Status)).Inc()
		}
	}
}

// RecordEnrichmentDuration records the duration of one enrichment
func RecordEnrichmentDuration(duration time.Duration) {
	if enrichmentDuration != nil {
		enrichmentDuration.Observe(duration.Seconds())
	}
}

// RecordGeoError records a geolocation API error by type
// errorType: "timeout", "rate_limit", "server_error", "http_error", "connection", "parse", "circuit_open"
func RecordGeoError(errorType string) {
	if geoAPIErrorsTotal != nil {
		geoAPIErrorsTotal.WithLabelValues(errorType).Inc()
	}
}

// Timer is a helper for timing enrichments
type Timer struct {
	start time.Time
}

// StartTimer creates a new timer for measuring enrichment duration
func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time since the timer started
func (t *Timer) ObserveDuration() {
	if t != nil {
		RecordEnrichmentDuration(time.Since(t.start))
	}
}

type instrumentedEnricher struct {
	next ports.Enricher
}

// Instrument wraps an Enricher so every call is counted and timed.
func Instrument(next ports.Enricher) ports.Enricher {
	return &instrumentedEnricher{next: next}
}

func (e *instrumentedEnricher) Enrich(ctx context.Context, raw []byte) domain.Result {
	timer := StartTimer()
	defer timer.ObserveDuration()

	result := e.next.Enrich(ctx, raw)
	RecordEnrichment(result)
	return result
}
