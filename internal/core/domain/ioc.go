package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// IPv4Address is an indicator extracted from alarm text.
type IPv4Address [4]uint8

// ParseIPv4 parses a dotted-quad string. Every octet must be 1-3 digits in [0,255].
// Leading zeros are accepted ("010" is 10).
func ParseIPv4(s string) (IPv4Address, error) {
	var addr IPv4Address

	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return addr, fmt.Errorf("invalid IPv4 address %q: expected 4 octets", s)
	}

	for i, part := range parts {
		if len(part) == 0 || len(part) > 3 {
			return addr, fmt.Errorf("invalid IPv4 address %q: bad octet %q", s, part)
		}
		if strings.TrimLeft(part, "0123456789") != "" {
			return addr, fmt.Errorf("invalid IPv4 address %q: non-digit octet %q", s, part)
		}
		n, err := strconv.Atoi(part)
		if err != nil || n > 255 {
			return addr, fmt.Errorf("invalid IPv4 address %q: octet %q out of range", s, part)
		}
		addr[i] = uint8(n)
	}

	return addr, nil
}

func (a IPv4Address) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", a[0], a[1], a[2], a[3])
}

// MarshalText renders the address in dotted-quad form for JSON output.
func (a IPv4Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses a dotted-quad address.
func (a *IPv4Address) UnmarshalText(text []byte) error {
	parsed, err := ParseIPv4(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// IsPrivate reports whether the address is RFC1918 or loopback.
// Link-local, CGNAT and other special ranges are treated as public.
func (a IPv4Address) IsPrivate() bool {
	switch {
	case a[0] == 10:
		return true
	case a[0] == 172 && a[1] >= 16 && a[1] <= 31:
		return true
	case a[0] == 192 && a[1] == 168:
		return true
	case a[0] == 127: // loopback
		return true
	}
	return false
}
