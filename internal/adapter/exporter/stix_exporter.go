package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hive-corporation/alert-enricher/internal/core/domain"
	"github.com/hive-corporation/alert-enricher/internal/core/ports"
)

// STIXExporter exports the public source IPs of recorded alerts as STIX 2.1 indicators
type STIXExporter struct {
	repo ports.AlertRepository
}

func NewSTIXExporter(repo ports.AlertRepository) *STIXExporter {
	return &STIXExporter{repo: repo}
}

// Export generates a STIX 2.1 bundle of alerts recorded since the given time
func (e *STIXExporter) Export(ctx context.Context, since time.Time) (string, error) {
	// Default to last 24 hours if no time specified
	if since.IsZero() {
		since = time.Now().Add(-24 * time.Hour)
	}

	records, err := e.repo.FindSince(ctx, since, 10000)
	if err != nil {
		return "", fmt.Errorf("failed to fetch alerts: %w", err)
	}

	bundle := STIXBundle{
		Type:    "bundle",
		ID:      fmt.Sprintf("bundle--%s", uuid.New().String()),
		Objects: []STIXObject{},
	}

	for _, rec := range records {
		bundle.Objects = append(bundle.Objects, ConvertToSTIX(rec)...)
	}

	jsonData, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal STIX bundle: %w", err)
	}

	return string(jsonData), nil
}

// ConvertToSTIX yields one indicator per public source IP. Private addresses are
// not shareable intelligence and are skipped. Indicator ids are derived from the
// record id and address, so re-exporting a record yields the same ids.
func ConvertToSTIX(rec domain.RecordedAlert) []STIXObject {
	var objects []STIXObject
	seen := make(map[domain.IPv4Address]bool)

	stamp := rec.ReceivedAt.UTC().Format(time.RFC3339)

	for _, ind := range rec.Alert.SourceIndicators {
		if ind.Address.IsPrivate() || seen[ind.Address] {
			continue
		}
		seen[ind.Address] = true

		labels := []string{string(rec.Alert.Severity)}
		if ind.Geo.Status == domain.GeoResolved {
			labels = append(labels, "country:"+ind.Geo.Country, "asn:"+ind.Geo.ASN)
		}

		objects = append(objects, STIXObject{
			Type:           "indicator",
			SpecVersion:    "2.1",
			ID:             fmt.Sprintf("indicator--%s", uuid.NewSHA1(rec.ID, []byte(ind.Address.String()))),
			Created:        stamp,
			Modified:       stamp,
			Name:           fmt.Sprintf("%s source %s", rec.Alert.DetectionType, ind.Address),
			Description:    rec.Alert.AlarmName,
			Pattern:        fmt.Sprintf("[ipv4-addr:value = '%s']", ind.Address),
			PatternType:    "stix",
			ValidFrom:      stamp,
			IndicatorTypes: mapIndicatorTypes(rec.Alert.DetectionType),
			Confidence:     confidenceFor(rec.Alert.Severity),
			Labels:         labels,
		})
	}

	return objects
}

func mapIndicatorTypes(category domain.DetectionCategory) []string {
	switch category {
	case domain.SSHBruteForce, domain.RootLoginAttempt:
		return []string{"malicious-activity", "attribution"}
	case domain.UserEnumeration, domain.PortScan:
		return []string{"anomalous-activity"}
	}
	return []string{"unknown"}
}

func confidenceFor(level domain.SeverityLevel) int {
	return calculateSeverity(level) * 10
}

// STIX 2.1 data structures

type STIXBundle struct {
	Type    string       `json:"type"`
	ID      string       `json:"id"`
	Objects []STIXObject `json:"objects"`
}

type STIXObject struct {
	Type           string   `json:"type"`
	SpecVersion    string   `json:"spec_version"`
	ID             string   `json:"id"`
	Created        string   `json:"created"`
	Modified       string   `json:"modified"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	Pattern        string   `json:"pattern"`
	PatternType    string   `json:"pattern_type"`
	ValidFrom      string   `json:"valid_from"`
	IndicatorTypes []string `json:"indicator_types"`
	Confidence     int      `json:"confidence"`
	Labels         []string `json:"labels,omitempty"`
}
