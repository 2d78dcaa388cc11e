package domain

import "strings"

type SeverityLevel string

const (
	SeverityCritical SeverityLevel = "CRITICAL"
	SeverityHigh     SeverityLevel = "HIGH"
	SeverityMedium   SeverityLevel = "MEDIUM"
	SeverityLow      SeverityLevel = "LOW"
)

// severityRules is independent of detectionRules. The two tables are not
// guaranteed to agree (e.g. a "failed-login" alarm is SSHBruteForce but LOW).
var severityRules = []keywordRule[SeverityLevel]{
	{Keywords: []string{"root-login"}, Result: SeverityCritical},
	{Keywords: []string{"brute-force", "port-scan"}, Result: SeverityHigh},
	{Keywords: []string{"invalid-user", "enumeration"}, Result: SeverityMedium},
}

// ScoreSeverity maps an alarm name (case-insensitive) to a severity level.
// This is a pure domain function with no I/O dependencies.
func ScoreSeverity(alarmName string) SeverityLevel {
	return firstMatch(severityRules, alarmName, SeverityLow)
}

// Rank orders severities for threshold comparisons (LOW=1 .. CRITICAL=4).
// Unrecognized values rank 0.
func (s SeverityLevel) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// ParseSeverity parses a severity name case-insensitively.
func ParseSeverity(s string) (SeverityLevel, bool) {
	level := SeverityLevel(strings.ToUpper(strings.TrimSpace(s)))
	if level.Rank() == 0 {
		return "", false
	}
	return level, true
}
