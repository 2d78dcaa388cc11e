package domain

import "slices"

var recommendationCatalog = map[DetectionCategory][]string{
	SSHBruteForce: {
		"1. Review the source IP and determine if it is legitimate",
		"2. Consider blocking the IP at Security Group or NACL level",
		"3. Verify SSH key-based authentication is enforced",
		"4. Consider implementing fail2ban or similar tools",
		"5. Review user accounts for any unauthorized access",
	},
	RootLoginAttempt: {
		"1. IMMEDIATE ACTION REQUIRED - Root SSH should be disabled",
		`2. Verify PermitRootLogin is set to "no" in /etc/ssh/sshd_config`,
		"3. Identify the source IP and block if malicious",
		"4. Review all authentication logs for suspicious activity",
		"5. Consider implementing 2FA for administrative access",
	},
	UserEnumeration: {
		"1. Review logs to identify targeted usernames",
		"2. Block source IP if confirmed malicious",
		"3. Monitor for escalation to brute force attacks",
		"4. Consider implementing rate limiting",
		"5. Review user account security policies",
	},
	PortScan: {
		"1. Identify the source IP and assess threat level",
		"2. Verify Security Groups have minimum required ports open",
		"3. Consider implementing IP allowlisting for sensitive services",
		"4. Review NACL rules for additional protection",
		"5. Monitor for follow-up exploitation attempts",
	},
}

var defaultRecommendations = []string{
	"1. Review the alert details and assess severity",
	"2. Investigate logs for additional context",
	"3. Implement appropriate security controls",
	"4. Document the incident and response actions",
}

// Recommendations returns the ordered response actions for a category.
// Categories without a catalog entry get the generic four-step list.
// The returned slice is a copy; callers may modify it freely.
func Recommendations(category DetectionCategory) []string {
	if actions, ok := recommendationCatalog[category]; ok {
		return slices.Clone(actions)
	}
	return slices.Clone(defaultRecommendations)
}
