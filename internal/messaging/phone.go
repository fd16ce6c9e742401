package messaging

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidPhone is returned for destinations that cannot be normalized to
// E.164 international format.
var ErrInvalidPhone = errors.New("invalid phone number format")

// E.164: leading +, country code, 8-15 digits total.
var phoneRegex = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)

// NormalizePhone rewrites a raw phone number to international format.
// Local numbers with a leading 0 get the default country code; bare digit
// strings get a +. The result must match E.164 or ErrInvalidPhone is
// returned.
func NormalizePhone(raw, defaultCountryCode string) (string, error) {
	p := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if p == "" {
		return "", fmt.Errorf("%w: empty number", ErrInvalidPhone)
	}

	if !strings.HasPrefix(p, "+") {
		if strings.HasPrefix(p, "0") {
			p = "+" + defaultCountryCode + strings.TrimLeft(p, "0")
		} else if isDigits(p) {
			p = "+" + p
		}
	}

	if !phoneRegex.MatchString(p) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, raw)
	}
	return p, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
