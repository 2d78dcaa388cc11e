package exporter

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hive-corporation/alert-enricher/internal/core/domain"
)

type stubRepository struct {
	records  []domain.RecordedAlert
	err      error
	gotSince time.Time
	gotLimit int
}

func (s *stubRepository) SaveBatch(ctx context.Context, records []domain.RecordedAlert) error {
	s.records = append(s.records, records...)
	return nil
}

func (s *stubRepository) FindSince(ctx context.Context, since time.Time, limit int) ([]domain.RecordedAlert, error) {
	s.gotSince = since
	s.gotLimit = limit
	return s.records, s.err
}

func recordFixture() domain.RecordedAlert {
	return domain.RecordedAlert{
		ID:         uuid.MustParse("6f1c2a9e-3b0d-4c55-9a51-2f6a8e7d1b20"),
		ReceivedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Alert: domain.EnrichedAlert{
			AlarmName:     "root-login=attempt",
			State:         "ALARM",
			DetectionType: domain.RootLoginAttempt,
			Severity:      domain.SeverityCritical,
			SourceIndicators: []domain.IndicatorContext{
				{Address: domain.IPv4Address{10, 0, 0, 1}, Geo: domain.PrivateGeoContext()},
				{Address: domain.IPv4Address{203, 0, 113, 5}, Geo: domain.GeoContext{
					Status: domain.GeoResolved, Country: "Japan", ASN: "AS64502 Example",
				}},
			},
		},
	}
}

func TestFormatCEF(t *testing.T) {
	line := FormatCEF(recordFixture())

	if !strings.HasPrefix(line, "CEF:0|HiveCorporation|AlertEnricher|1.0|root-login|Root Login Attempt|10|") {
		t.Errorf("Unexpected CEF header: %s", line)
	}

	wantParts := []string{
		"externalId=6f1c2a9e-3b0d-4c55-9a51-2f6a8e7d1b20",
		"rt=1714564800000",
		`cs1=root-login\=attempt`,
		"cs3=10.0.0.1,203.0.113.5",
		"src=203.0.113.5",
		"cs4=Japan",
		"cs5=AS64502 Example",
	}
	for _, part := range wantParts {
		if !strings.Contains(line, part) {
			t.Errorf("Expected %q in %s", part, line)
		}
	}
}

func TestFormatCEF_OnlyPrivateIndicators(t *testing.T) {
	rec := recordFixture()
	rec.Alert.SourceIndicators = rec.Alert.SourceIndicators[:1]

	line := FormatCEF(rec)

	if strings.Contains(line, "src=") {
		t.Errorf("Expected no src for private-only alert: %s", line)
	}
}

func TestCalculateSeverity(t *testing.T) {
	tests := []struct {
		level domain.SeverityLevel
		want  int
	}{
		{domain.SeverityCritical, 10},
		{domain.SeverityHigh, 8},
		{domain.SeverityMedium, 5},
		{domain.SeverityLow, 3},
	}

	for _, tt := range tests {
		if got := calculateSeverity(tt.level); got != tt.want {
			t.Errorf("calculateSeverity(%s) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestCEFExporter_Export(t *testing.T) {
	repo := &stubRepository{records: []domain.RecordedAlert{recordFixture(), recordFixture()}}
	exporter := NewCEFExporter(repo)

	out, err := exporter.Export(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if lines := strings.Count(out, "\n"); lines != 2 {
		t.Errorf("Expected 2 lines, got %d", lines)
	}
	if time.Since(repo.gotSince) < 23*time.Hour {
		t.Errorf("Expected default 24h window, got since=%v", repo.gotSince)
	}
	if repo.gotLimit != 10000 {
		t.Errorf("Expected limit 10000, got %d", repo.gotLimit)
	}
}

func TestCEFExporter_ExportError(t *testing.T) {
	exporter := NewCEFExporter(&stubRepository{err: errors.New("connection reset")})

	if _, err := exporter.Export(context.Background(), time.Now()); err == nil {
		t.Error("Expected error")
	}
}
