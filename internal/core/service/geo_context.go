package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/hive-corporation/alert-enricher/internal/core/domain"
	"github.com/hive-corporation/alert-enricher/internal/core/ports"
)

// DefaultGeoTimeout bounds a single geolocation lookup.
const DefaultGeoTimeout = 5 * time.Second

const (
	geoLookupFailed     = "Geolocation lookup failed"
	geoLookupError      = "Geolocation lookup error"
	geoUnavailable      = "Geolocation service unavailable"
	geoUnavailableNote  = "Unable to fetch geolocation data"
	geoUnknownFieldText = "Unknown"
)

// GeoContextProvider resolves one indicator into a GeoContext. It never returns
// an error: every failure is embedded in the returned context.
type GeoContextProvider struct {
	locator ports.GeoLocator
	timeout time.Duration
}

func NewGeoContextProvider(locator ports.GeoLocator, timeout time.Duration) *GeoContextProvider {
	if timeout <= 0 {
		timeout = DefaultGeoTimeout
	}
	return &GeoContextProvider{locator: locator, timeout: timeout}
}

// Resolve returns the private context for internal addresses without calling the
// locator; otherwise it performs one bounded lookup.
func (p *GeoContextProvider) Resolve(ctx context.Context, addr domain.IPv4Address) domain.GeoContext {
	if addr.IsPrivate() {
		return domain.PrivateGeoContext()
	}

	if p.locator == nil {
		return domain.FailedGeoContext(geoUnavailable, geoUnavailableNote)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.locator.Lookup(ctx, addr.String())
	if err != nil {
		log.Printf("⚠️  Geolocation lookup failed for %s: %v", addr, err)
		if errors.Is(err, ports.ErrGeoResponseInvalid) {
			return domain.FailedGeoContext(geoLookupError, "")
		}
		return domain.FailedGeoContext(geoUnavailable, geoUnavailableNote)
	}
	if resp == nil {
		return domain.FailedGeoContext(geoLookupFailed, "")
	}

	if resp.Status != "success" {
		msg := resp.Message
		if msg == "" {
			msg = geoLookupFailed
		}
		return domain.FailedGeoContext(msg, "")
	}

	return domain.GeoContext{
		Status:       domain.GeoResolved,
		Country:      orUnknown(resp.Country),
		City:         orUnknown(resp.City),
		ISP:          orUnknown(resp.ISP),
		Organization: orUnknown(resp.Org),
		ASN:          orUnknown(resp.AS),
	}
}

func orUnknown(s string) string {
	if s == "" {
		return geoUnknownFieldText
	}
	return s
}
