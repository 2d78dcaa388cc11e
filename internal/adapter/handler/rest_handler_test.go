package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hive-corporation/alert-enricher/internal/core/domain"
	"github.com/hive-corporation/alert-enricher/internal/core/service"
)

type memoryRepository struct {
	records []domain.RecordedAlert
	err     error
}

func (m *memoryRepository) SaveBatch(ctx context.Context, records []domain.RecordedAlert) error {
	m.records = append(m.records, records...)
	return m.err
}

func (m *memoryRepository) FindSince(ctx context.Context, since time.Time, limit int) ([]domain.RecordedAlert, error) {
	return m.records, m.err
}

const sampleEvent = `{"Records":[{"Sns":{"Message":"{\"AlarmName\":\"ssh-brute-force\",\"NewStateValue\":\"ALARM\",\"NewStateReason\":\"Failed logins from 10.0.0.7\",\"StateChangeTime\":\"2024-05-01T12:00:00Z\"}"}}]}`

func newTestRouter(repo *memoryRepository, token string) http.Handler {
	pipeline := service.NewPipeline(nil)
	var h *RestHandler
	if repo == nil {
		h = NewRestHandler(pipeline, nil)
	} else {
		h = NewRestHandler(pipeline, repo)
	}
	return NewRouter(h, token)
}

func TestEnrichAlert(t *testing.T) {
	router := newTestRouter(nil, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/enrich", strings.NewReader(sampleEvent))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result domain.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("Invalid response: %v", err)
	}
	if result.Status != domain.StatusSuccess || result.Alert == nil {
		t.Fatalf("Expected success result, got %+v", result)
	}
	if result.Alert.DetectionType != domain.SSHBruteForce {
		t.Errorf("Unexpected detection type: %s", result.Alert.DetectionType)
	}
	if len(result.Alert.SourceIndicators) != 1 || result.Alert.SourceIndicators[0].Geo.Status != domain.GeoPrivate {
		t.Errorf("Expected one private indicator, got %+v", result.Alert.SourceIndicators)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Error("Expected request id header")
	}
}

func TestEnrichAlert_Malformed(t *testing.T) {
	router := newTestRouter(nil, "")

	for _, body := range []string{`{}`, `{"Records":[]}`, `not json`} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/enrich", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("body %q: expected 422, got %d", body, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), domain.MessageEnrichmentFailed) {
			t.Errorf("body %q: expected failure message, got %s", body, rec.Body.String())
		}
	}
}

func TestClassifyAlarm(t *testing.T) {
	router := newTestRouter(nil, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts/classify?name=Root-Login-Detected", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body struct {
		AlarmName      string                `json:"alarm_name"`
		Classification domain.Classification `json:"classification"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid response: %v", err)
	}
	if body.Classification.DetectionType != domain.RootLoginAttempt || body.Classification.Severity != domain.SeverityCritical {
		t.Errorf("Unexpected classification: %+v", body.Classification)
	}
	if len(body.Classification.Recommendations) != 5 {
		t.Errorf("Expected 5 recommendations, got %d", len(body.Classification.Recommendations))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/alerts/classify", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing name, got %d", rec.Code)
	}
}

func TestGetAlertFeed(t *testing.T) {
	repo := &memoryRepository{records: []domain.RecordedAlert{{
		ID:         uuid.New(),
		ReceivedAt: time.Now().UTC(),
		Alert: domain.EnrichedAlert{
			AlarmName:     "port-scan",
			DetectionType: domain.PortScan,
			Severity:      domain.SeverityHigh,
			SourceIndicators: []domain.IndicatorContext{
				{Address: domain.IPv4Address{198, 51, 100, 9}, Geo: domain.GeoContext{Status: domain.GeoResolved, Country: "Brazil"}},
			},
		},
	}}}
	router := newTestRouter(repo, "")

	tests := []struct {
		query       string
		wantStatus  int
		wantContent string
	}{
		{"format=cef&since=24h", http.StatusOK, "CEF:0|HiveCorporation|AlertEnricher"},
		{"format=stix", http.StatusOK, "[ipv4-addr:value = '198.51.100.9']"},
		{"format=json", http.StatusOK, `"count":1`},
		{"format=xml", http.StatusBadRequest, "unsupported format"},
		{"since=yesterday", http.StatusBadRequest, "invalid 'since'"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts/feed?"+tt.query, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("Expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.wantContent) {
				t.Errorf("Expected %q in %s", tt.wantContent, rec.Body.String())
			}
		})
	}
}

func TestGetAlertFeed_Errors(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts/feed?format=cef", nil)
	rec := httptest.NewRecorder()
	newTestRouter(nil, "").ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 without a store, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/alerts/feed?format=cef", nil)
	rec = httptest.NewRecorder()
	newTestRouter(&memoryRepository{err: errors.New("db down")}, "").ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500 on store error, got %d", rec.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	router := newTestRouter(nil, "s3cret")

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"health is public", "/api/v1/health", "", http.StatusOK},
		{"missing token", "/api/v1/alerts/classify?name=x", "", http.StatusUnauthorized},
		{"wrong token", "/api/v1/alerts/classify?name=x", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "/api/v1/alerts/classify?name=x", "Bearer s3cret", http.StatusOK},
		{"metrics protected", "/metrics", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestLoggingMiddleware_PropagatesRequestID(t *testing.T) {
	router := newTestRouter(nil, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set(requestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get(requestIDHeader); got != "req-42" {
		t.Errorf("Expected propagated request id, got %q", got)
	}
}
