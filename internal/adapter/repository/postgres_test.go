package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hive-corporation/alert-enricher/internal/core/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

func sampleAlert() domain.EnrichedAlert {
	return domain.EnrichedAlert{
		Timestamp:     "2024-05-01T12:00:00Z",
		AlarmName:     "ssh-brute-force",
		State:         "ALARM",
		DetectionType: domain.SSHBruteForce,
		Severity:      domain.SeverityHigh,
		SourceIndicators: []domain.IndicatorContext{
			{Address: domain.IPv4Address{10, 0, 0, 1}, Geo: domain.PrivateGeoContext()},
		},
		Recommendations: domain.Recommendations(domain.SSHBruteForce),
	}
}

func TestNewRecord(t *testing.T) {
	local := time.Date(2024, 5, 1, 14, 0, 0, 0, time.FixedZone("CEST", 2*3600))

	first := NewRecord(sampleAlert(), local)
	second := NewRecord(sampleAlert(), local)

	if first.ID == uuid.Nil {
		t.Error("Expected a non-nil id")
	}
	if first.ID == second.ID {
		t.Error("Expected unique ids per record")
	}
	if first.ReceivedAt.Location() != time.UTC {
		t.Errorf("Expected UTC timestamp, got %v", first.ReceivedAt.Location())
	}
	if !first.ReceivedAt.Equal(local) {
		t.Errorf("Expected %v, got %v", local, first.ReceivedAt)
	}
}

// Runs only when TEST_DATABASE_URL points at a disposable Postgres.
func TestPostgresRepository_Integration(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	repo := NewPostgresRepository(pool)
	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	before := time.Now().Add(-time.Second)
	alert := sampleAlert()
	if err := repo.Record(ctx, &alert); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	records, err := repo.FindSince(ctx, before, 10)
	if err != nil {
		t.Fatalf("FindSince failed: %v", err)
	}
	if len(records) == 0 {
		t.Fatal("Expected at least one record")
	}

	got := records[0].Alert
	if got.AlarmName != alert.AlarmName || got.DetectionType != alert.DetectionType {
		t.Errorf("Unexpected alert: %+v", got)
	}
	if got.SourceIndicators[0].Geo.Status != domain.GeoPrivate {
		t.Errorf("Expected private geo status to survive storage, got %s", got.SourceIndicators[0].Geo.Status)
	}
}
