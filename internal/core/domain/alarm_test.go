package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func snsEventFor(t *testing.T, message string) []byte {
	t.Helper()

	event := map[string]interface{}{
		"Records": []map[string]interface{}{
			{"Sns": map[string]interface{}{"Message": message}},
		},
	}
	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("Failed to marshal event: %v", err)
	}
	return data
}

func TestParseNotification_AllFields(t *testing.T) {
	raw := snsEventFor(t, `{
		"AlarmName": "ssh-brute-force",
		"AlarmDescription": "SSH failures",
		"NewStateValue": "ALARM",
		"NewStateReason": "Failed login from 203.0.113.5",
		"StateChangeTime": "2024-05-01T12:00:00.000+0000"
	}`)

	got, err := ParseNotification(raw, time.Now())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := AlarmNotification{
		Name:        "ssh-brute-force",
		Description: "SSH failures",
		NewState:    "ALARM",
		StateReason: "Failed login from 203.0.113.5",
		Timestamp:   "2024-05-01T12:00:00.000+0000",
	}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestParseNotification_Defaults(t *testing.T) {
	now := time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)

	got, err := ParseNotification(snsEventFor(t, `{}`), now)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got.Name != "Unknown" {
		t.Errorf("Expected default name, got %q", got.Name)
	}
	if got.Description != "No description" {
		t.Errorf("Expected default description, got %q", got.Description)
	}
	if got.NewState != "UNKNOWN" {
		t.Errorf("Expected default state, got %q", got.NewState)
	}
	if got.StateReason != "" {
		t.Errorf("Expected empty reason, got %q", got.StateReason)
	}
	if got.Timestamp != "2024-01-15T08:30:00Z" {
		t.Errorf("Expected clock timestamp, got %q", got.Timestamp)
	}
}

func TestParseNotification_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `not json`},
		{"no records", `{}`},
		{"empty records", `{"Records": []}`},
		{"missing sns", `{"Records": [{}]}`},
		{"missing message", `{"Records": [{"Sns": {}}]}`},
		{"message not json", `{"Records": [{"Sns": {"Message": "plain text"}}]}`},
		{"message wrong type", `{"Records": [{"Sns": {"Message": 42}}]}`},
		{"message null", `{"Records": [{"Sns": {"Message": "null"}}]}`},
		{"message is array", `{"Records": [{"Sns": {"Message": "[]"}}]}`},
		{"message is string", `{"Records": [{"Sns": {"Message": "\"ALARM\""}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseNotification([]byte(tt.raw), time.Now())
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !errors.Is(err, ErrMalformedNotification) {
				t.Errorf("Expected ErrMalformedNotification, got %v", err)
			}
		})
	}
}

func TestGeoContext_UnmarshalRestoresStatus(t *testing.T) {
	tests := []struct {
		name string
		in   GeoContext
		want GeoStatus
	}{
		{"resolved", GeoContext{Status: GeoResolved, Country: "France", City: "Paris"}, GeoResolved},
		{"private", PrivateGeoContext(), GeoPrivate},
		{"failed", FailedGeoContext("Geolocation service unavailable", "Unable to fetch geolocation data"), GeoFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.in)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			var got GeoContext
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.in {
				t.Errorf("Expected %+v, got %+v", tt.in, got)
			}
			if got.Status != tt.want {
				t.Errorf("Expected status %s, got %s", tt.want, got.Status)
			}
		})
	}
}
