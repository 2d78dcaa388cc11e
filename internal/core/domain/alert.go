package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type GeoStatus string

const (
	GeoResolved GeoStatus = "resolved"
	GeoPrivate  GeoStatus = "private"
	GeoFailed   GeoStatus = "failed"
)

// GeoContext is the normalized geolocation of one indicator. Status selects which
// fields are populated; the JSON form carries only that shape's fields.
type GeoContext struct {
	Status       GeoStatus `json:"-"`
	Country      string    `json:"country,omitempty"`
	City         string    `json:"city,omitempty"`
	ISP          string    `json:"isp,omitempty"`
	Organization string    `json:"organization,omitempty"`
	ASN          string    `json:"asn,omitempty"`
	Error        string    `json:"error,omitempty"`
	Note         string    `json:"note,omitempty"`
}

// PrivateGeoContext is attached to RFC1918/loopback indicators without a lookup.
func PrivateGeoContext() GeoContext {
	return GeoContext{
		Status:  GeoPrivate,
		Country: "Internal/Private",
		City:    "N/A",
		ISP:     "Private Network",
		Note:    "This is a private IP address",
	}
}

// FailedGeoContext records a lookup failure for one indicator.
func FailedGeoContext(message, note string) GeoContext {
	return GeoContext{Status: GeoFailed, Error: message, Note: note}
}

// UnmarshalJSON restores Status from the shape of a stored context.
func (g *GeoContext) UnmarshalJSON(data []byte) error {
	type plain GeoContext
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*g = GeoContext(decoded)

	switch {
	case g.Error != "":
		g.Status = GeoFailed
	case g.Country == PrivateGeoContext().Country:
		g.Status = GeoPrivate
	default:
		g.Status = GeoResolved
	}
	return nil
}

type IndicatorContext struct {
	Address IPv4Address `json:"ip"`
	Geo     GeoContext  `json:"geolocation"`
}

// EnrichedAlert is the terminal record of one enrichment.
type EnrichedAlert struct {
	Timestamp        string             `json:"timestamp"`
	AlarmName        string             `json:"alarm_name"`
	AlarmDescription string             `json:"alarm_description"`
	State            string             `json:"state"`
	DetectionType    DetectionCategory  `json:"detection_type"`
	Severity         SeverityLevel      `json:"severity"`
	SourceIndicators []IndicatorContext `json:"source_ips"`
	Recommendations  []string           `json:"recommendations"`
}

// FirstPublicIndicator returns the first indicator outside private ranges.
func (a *EnrichedAlert) FirstPublicIndicator() (IPv4Address, bool) {
	for _, ind := range a.SourceIndicators {
		if !ind.Address.IsPrivate() {
			return ind.Address, true
		}
	}
	return IPv4Address{}, false
}

type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusFailure ResultStatus = "failure"
)

const (
	MessageEnrichmentSucceeded = "Alert enrichment completed successfully"
	MessageEnrichmentFailed    = "Alert enrichment failed"
)

// Result is the outcome of one enrichment: Alert is set on success, Error on failure.
type Result struct {
	Status  ResultStatus   `json:"status"`
	Message string         `json:"message"`
	Alert   *EnrichedAlert `json:"enriched_data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

func SuccessResult(alert *EnrichedAlert) Result {
	return Result{Status: StatusSuccess, Message: MessageEnrichmentSucceeded, Alert: alert}
}

func FailureResult(err error) Result {
	return Result{Status: StatusFailure, Message: MessageEnrichmentFailed, Error: err.Error()}
}

func (r Result) Succeeded() bool {
	return r.Status == StatusSuccess
}

// RecordedAlert is an enriched alert as persisted by an audit sink.
type RecordedAlert struct {
	ID         uuid.UUID     `json:"id"`
	ReceivedAt time.Time     `json:"received_at"`
	Alert      EnrichedAlert `json:"alert"`
}
