package exporter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hive-corporation/alert-enricher/internal/core/domain"
	"github.com/hive-corporation/alert-enricher/internal/core/ports"
)

// CEFExporter exports recorded alerts in Common Event Format for SIEM ingestion
type CEFExporter struct {
	repo ports.AlertRepository
}

func NewCEFExporter(repo ports.AlertRepository) *CEFExporter {
	return &CEFExporter{repo: repo}
}

// Export generates a CEF feed of alerts recorded since the given time
func (e *CEFExporter) Export(ctx context.Context, since time.Time) (string, error) {
	// Default to last 24 hours if no time specified
	if since.IsZero() {
		since = time.Now().Add(-24 * time.Hour)
	}

	records, err := e.repo.FindSince(ctx, since, 10000)
	if err != nil {
		return "", fmt.Errorf("failed to fetch alerts: %w", err)
	}

	var output strings.Builder
	for _, rec := range records {
		output.WriteString(FormatCEF(rec))
		output.WriteString("\n")
	}

	return output.String(), nil
}

// FormatCEF renders one recorded alert.
// Format: CEF:Version|Device Vendor|Device Product|Device Version|Signature ID|Name|Severity|Extension
func FormatCEF(rec domain.RecordedAlert) string {
	alert := rec.Alert

	vendor := "HiveCorporation"
	product := "AlertEnricher"
	version := "1.0"
	signatureID := signatureFor(alert.DetectionType)
	name := escapeHeader(string(alert.DetectionType))

	extensions := []string{
		fmt.Sprintf("externalId=%s", rec.ID),
		fmt.Sprintf("rt=%d", rec.ReceivedAt.UnixMilli()),
		"cs1Label=AlarmName",
		fmt.Sprintf("cs1=%s", escapeField(alert.AlarmName)),
		"cs2Label=AlarmState",
		fmt.Sprintf("cs2=%s", escapeField(alert.State)),
		"cs3Label=SourceIPs",
		fmt.Sprintf("cs3=%s", escapeField(joinIndicators(alert.SourceIndicators))),
	}

	if addr, ok := alert.FirstPublicIndicator(); ok {
		extensions = append(extensions, fmt.Sprintf("src=%s", addr))
		for _, ind := range alert.SourceIndicators {
			if ind.Address == addr && ind.Geo.Status == domain.GeoResolved {
				extensions = append(extensions,
					"cs4Label=SourceCountry",
					fmt.Sprintf("cs4=%s", escapeField(ind.Geo.Country)),
					"cs5Label=SourceASN",
					fmt.Sprintf("cs5=%s", escapeField(ind.Geo.ASN)),
				)
				break
			}
		}
	}

	return fmt.Sprintf("CEF:0|%s|%s|%s|%s|%s|%d|%s",
		vendor, product, version, signatureID, name, calculateSeverity(alert.Severity), strings.Join(extensions, " "))
}

func signatureFor(category domain.DetectionCategory) string {
	switch category {
	case domain.SSHBruteForce:
		return "ssh-brute-force"
	case domain.RootLoginAttempt:
		return "root-login"
	case domain.UserEnumeration:
		return "user-enumeration"
	case domain.PortScan:
		return "port-scan"
	}
	return "unknown"
}

// calculateSeverity maps a severity level to the CEF 0-10 scale
func calculateSeverity(level domain.SeverityLevel) int {
	switch level {
	case domain.SeverityCritical:
		return 10
	case domain.SeverityHigh:
		return 8
	case domain.SeverityMedium:
		return 5
	}
	return 3
}

func joinIndicators(inds []domain.IndicatorContext) string {
	ips := make([]string, len(inds))
	for i, ind := range inds {
		ips[i] = ind.Address.String()
	}
	return strings.Join(ips, ",")
}

// escapeHeader escapes pipes and backslashes in CEF header fields
func escapeHeader(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	return strings.ReplaceAll(s, "|", "\\|")
}

func escapeField(s string) string {
	// Escape special characters in CEF extension values
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "=", "\\=")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	return s
}
