package mpesa

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizePhone canonicalizes a Kenyan mobile number to the 12-digit
// 254XXXXXXXXX form the gateway accepts. It takes any of: a leading 0
// ("0712345678"), a bare subscriber number ("712345678"), the full form
// ("254712345678") or the international prefix ("+254712345678"). Bare
// subscriber numbers starting with 1 (the 01xx Safaricom ranges) are
// accepted deliberately, alongside the 7xx ones.
// Anything that does not normalize to exactly 12 digits is rejected.
func NormalizePhone(raw string) (string, error) {
	p := strings.TrimSpace(raw)
	p = strings.TrimPrefix(p, "+")

	switch {
	case strings.HasPrefix(p, "254"):
	case strings.HasPrefix(p, "0"):
		p = "254" + p[1:]
	case strings.HasPrefix(p, "7"), strings.HasPrefix(p, "1"):
		p = "254" + p
	}

	if len(p) != 12 || !strings.HasPrefix(p, "254") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, raw)
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: %q", ErrInvalidPhone, raw)
		}
	}
	return p, nil
}
