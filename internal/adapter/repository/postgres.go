package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hive-corporation/alert-enricher/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the audit table used by PostgresRepository.
const Schema = `
	CREATE TABLE IF NOT EXISTS enriched_alerts (
		id             UUID PRIMARY KEY,
		received_at    TIMESTAMPTZ NOT NULL,
		alarm_name     TEXT NOT NULL,
		detection_type TEXT NOT NULL,
		severity       TEXT NOT NULL,
		payload        JSONB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS enriched_alerts_received_at_idx ON enriched_alerts (received_at);
`

type PostgresRepository struct {
	db  *pgxpool.Pool
	now func() time.Time
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

// Migrate applies Schema.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Name() string {
	return "postgres"
}

// Record stores a single alert. It satisfies ports.AlertSink.
func (r *PostgresRepository) Record(ctx context.Context, alert *domain.EnrichedAlert) error {
	return r.SaveBatch(ctx, []domain.RecordedAlert{NewRecord(*alert, r.now())})
}

// NewRecord assigns a fresh id to an alert.
func NewRecord(alert domain.EnrichedAlert, receivedAt time.Time) domain.RecordedAlert {
	return domain.RecordedAlert{
		ID:         uuid.New(),
		ReceivedAt: receivedAt.UTC(),
		Alert:      alert,
	}
}

func (r *PostgresRepository) SaveBatch(ctx context.Context, records []domain.RecordedAlert) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}

	query := `
		INSERT INTO enriched_alerts (id, received_at, alarm_name, detection_type, severity, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`

	for _, rec := range records {
		payload, err := json.Marshal(rec.Alert)
		if err != nil {
			return fmt.Errorf("failed to marshal alert %s: %w", rec.ID, err)
		}

		batch.Queue(query,
			rec.ID,
			rec.ReceivedAt,
			rec.Alert.AlarmName,
			string(rec.Alert.DetectionType),
			string(rec.Alert.Severity),
			payload,
		)
	}

	br := r.db.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to execute batch: %w", err)
		}
	}

	return nil
}

func (r *PostgresRepository) FindSince(ctx context.Context, since time.Time, limit int) ([]domain.RecordedAlert, error) {
	query := `
		SELECT id, received_at, payload
		FROM enriched_alerts
		WHERE received_at >= $1
		ORDER BY received_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var records []domain.RecordedAlert

	for rows.Next() {
		var rec domain.RecordedAlert
		var payload []byte

		if err := rows.Scan(&rec.ID, &rec.ReceivedAt, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		if err := json.Unmarshal(payload, &rec.Alert); err != nil {
			return nil, fmt.Errorf("failed to decode alert %s: %w", rec.ID, err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}
