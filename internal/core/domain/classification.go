package domain

import "strings"

type DetectionCategory string

const (
	SSHBruteForce    DetectionCategory = "SSH Brute Force Attack"
	RootLoginAttempt DetectionCategory = "Root Login Attempt"
	UserEnumeration  DetectionCategory = "User Enumeration Attack"
	PortScan         DetectionCategory = "Port Scanning Activity"
	Unknown          DetectionCategory = "Unknown Threat"
)

// keywordRule maps an alarm name to a result when it contains any keyword.
type keywordRule[T any] struct {
	Keywords []string
	Result   T
}

func (r keywordRule[T]) matches(lowerName string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(lowerName, kw) {
			return true
		}
	}
	return false
}

// firstMatch evaluates rules in order against the lower-cased name.
func firstMatch[T any](rules []keywordRule[T], name string, fallback T) T {
	lower := strings.ToLower(name)
	for _, rule := range rules {
		if rule.matches(lower) {
			return rule.Result
		}
	}
	return fallback
}

// detectionRules is evaluated top to bottom, first match wins. Categories overlap
// by substring, so "root-login-brute-force" must resolve to SSHBruteForce.
var detectionRules = []keywordRule[DetectionCategory]{
	{Keywords: []string{"brute-force", "failed"}, Result: SSHBruteForce},
	{Keywords: []string{"root-login"}, Result: RootLoginAttempt},
	{Keywords: []string{"invalid-user", "enumeration"}, Result: UserEnumeration},
	{Keywords: []string{"port-scan"}, Result: PortScan},
}

// ClassifyDetection maps an alarm name (case-insensitive) to a detection category.
func ClassifyDetection(alarmName string) DetectionCategory {
	return firstMatch(detectionRules, alarmName, Unknown)
}

// Classification bundles the name-derived verdicts for an alarm.
type Classification struct {
	DetectionType   DetectionCategory `json:"detection_type"`
	Severity        SeverityLevel     `json:"severity"`
	Recommendations []string          `json:"recommendations"`
}

// ClassifyAlarm derives category, severity and recommendations from an alarm name.
// Category and severity come from separate rule tables.
func ClassifyAlarm(alarmName string) Classification {
	category := ClassifyDetection(alarmName)
	return Classification{
		DetectionType:   category,
		Severity:        ScoreSeverity(alarmName),
		Recommendations: Recommendations(category),
	}
}
