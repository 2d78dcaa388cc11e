package domain

import "regexp"

var dottedQuadPattern = regexp.MustCompile(`\b(?:[0-9]{1,3}\.){3}[0-9]{1,3}\b`)

// ExtractIndicators returns every valid IPv4 address found in text, in order of
// appearance. Duplicates are kept. Candidates with an octet outside [0,255]
// (e.g. "999.999.999.999") are dropped silently.
func ExtractIndicators(text string) []IPv4Address {
	candidates := dottedQuadPattern.FindAllString(text, -1)

	indicators := make([]IPv4Address, 0, len(candidates))
	for _, candidate := range candidates {
		addr, err := ParseIPv4(candidate)
		if err != nil {
			continue
		}
		indicators = append(indicators, addr)
	}

	return indicators
}
