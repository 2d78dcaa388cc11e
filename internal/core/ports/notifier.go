package ports

import (
	"context"

	"github.com/hive-corporation/alert-enricher/internal/core/domain"
)

// AlertSink receives every successfully enriched alert.
// Sinks must not retain or modify the alert.
type AlertSink interface {
	Record(ctx context.Context, alert *domain.EnrichedAlert) error
	Name() string
}

// Enricher turns one raw inbound notification into a Success or Failure result.
type Enricher interface {
	Enrich(ctx context.Context, raw []byte) domain.Result
}
