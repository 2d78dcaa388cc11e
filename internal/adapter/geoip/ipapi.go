package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hive-corporation/alert-enricher/internal/adapter/metrics"
	"github.com/hive-corporation/alert-enricher/internal/core/ports"
	"github.com/hive-corporation/alert-enricher/internal/core/service"
)

// DefaultIPAPIURL is the free ip-api.com JSON endpoint (HTTP only, no key).
const DefaultIPAPIURL = "http://ip-api.com/json"

const ipAPIFields = "status,message,country,city,isp,org,as,query"

// IPAPILocator looks up addresses against ip-api.com.
type IPAPILocator struct {
	baseURL string
	client  *ResilientClient
}

// NewIPAPILocator reads GEO_API_URL, falling back to the public endpoint. The
// per-request timeout comes from the caller's configuration.
func NewIPAPILocator(timeout time.Duration) *IPAPILocator {
	baseURL := os.Getenv("GEO_API_URL")
	if baseURL == "" {
		baseURL = DefaultIPAPIURL
	}

	if timeout <= 0 {
		timeout = service.DefaultGeoTimeout
	}

	return NewIPAPILocatorWithClient(baseURL, NewResilientClient(timeout, DefaultResilientClientConfig()))
}

func NewIPAPILocatorWithClient(baseURL string, client *ResilientClient) *IPAPILocator {
	return &IPAPILocator{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

func (l *IPAPILocator) Name() string {
	return "ip-api"
}

type ipAPIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Country string `json:"country"`
	City    string `json:"city"`
	ISP     string `json:"isp"`
	Org     string `json:"org"`
	AS      string `json:"as"`
	Query   string `json:"query"`
}

// Lookup issues one GET for ip. A "fail" status is returned as a GeoLookup, not
// an error; errors are reserved for transport and decoding problems. Decoding
// problems wrap ports.ErrGeoResponseInvalid.
func (l *IPAPILocator) Lookup(ctx context.Context, ip string) (*ports.GeoLookup, error) {
	endpoint := fmt.Sprintf("%s/%s?fields=%s", l.baseURL, url.PathEscape(ip), ipAPIFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", l.Name(), err)
	}
	defer resp.Body.Close()

	var body ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		metrics.RecordGeoError("parse")
		return nil, fmt.Errorf("%w: failed to decode response: %v", ports.ErrGeoResponseInvalid, err)
	}

	return &ports.GeoLookup{
		Status:  body.Status,
		Message: body.Message,
		Country: body.Country,
		City:    body.City,
		ISP:     body.ISP,
		Org:     body.Org,
		AS:      body.AS,
	}, nil
}
