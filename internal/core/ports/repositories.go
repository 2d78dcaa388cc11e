package ports

import (
	"context"
	"errors"
	"time"

	"github.com/hive-corporation/alert-enricher/internal/core/domain"
)

// ErrGeoResponseInvalid marks a locator response that arrived but could not be
// understood, as opposed to one that never arrived.
var ErrGeoResponseInvalid = errors.New("invalid geolocation response")

// GeoLocator is the external geolocation collaborator.
type GeoLocator interface {
	Lookup(ctx context.Context, ip string) (*GeoLookup, error)
	Name() string
}

// GeoLookup is the collaborator's raw answer. Status is "success" or "fail";
// on failure only Message is meaningful.
type GeoLookup struct {
	Status  string
	Message string
	Country string
	City    string
	ISP     string
	Org     string
	AS      string
}

// AlertRepository stores enriched alerts for audit and SIEM export.
type AlertRepository interface {
	SaveBatch(ctx context.Context, records []domain.RecordedAlert) error
	FindSince(ctx context.Context, since time.Time, limit int) ([]domain.RecordedAlert, error)
}
