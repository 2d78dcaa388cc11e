package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hive-corporation/alert-enricher/internal/core/domain"
)

func TestClassifyCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"classify", "SSH-Brute-Force-Prod"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("classify failed: %v", err)
	}

	var got domain.Classification
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("Invalid output: %v\n%s", err, out.String())
	}
	if got.DetectionType != domain.SSHBruteForce || got.Severity != domain.SeverityHigh {
		t.Errorf("Unexpected classification: %+v", got)
	}
}

func TestEnrichCommand_LocalPrivateOnly(t *testing.T) {
	// Private addresses never reach the geolocation API.
	event := `{"Records":[{"Sns":{"Message":"{\"AlarmName\":\"port-scan\",\"NewStateReason\":\"scan from 172.16.4.2\"}"}}]}`
	path := filepath.Join(t.TempDir(), "event.json")
	if err := os.WriteFile(path, []byte(event), 0o600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"enrich", "--file", path})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("enrich failed: %v", err)
	}
	if !strings.Contains(out.String(), `"Internal/Private"`) {
		t.Errorf("Expected private geolocation in output:\n%s", out.String())
	}
}

func TestEnrichCommand_FailureExitsNonZero(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(`{"Records":[]}`))
	cmd.SetArgs([]string{"enrich", "--file", "-"})

	if err := cmd.Execute(); err != errEnrichmentFailed {
		t.Fatalf("Expected errEnrichmentFailed, got %v", err)
	}
	if !strings.Contains(out.String(), `"status": "failure"`) {
		t.Errorf("Expected failure result printed:\n%s", out.String())
	}
}
