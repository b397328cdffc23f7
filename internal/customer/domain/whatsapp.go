package domain

import (
	"strings"
	"unicode"

	"github.com/ttacon/libphonenumber"
)

const defaultRegion = "ID"

// NormalizeWhatsApp keeps digits only and rewrites a local trunk prefix
// ("08...") to the Indonesian country code.
func NormalizeWhatsApp(raw string) (string, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "0") {
		digits = "62" + strings.TrimLeft(digits, "0")
	}
	if len(digits) < 6 || len(digits) > 15 {
		return "", ErrInvalidWhatsApp
	}
	return digits, nil
}

// DisplayWhatsApp renders a stored number in international format for
// receipts and messages. Numbers libphonenumber cannot parse are returned
// with a leading plus.
func DisplayWhatsApp(number string) string {
	number = strings.TrimSpace(number)
	if number == "" {
		return ""
	}
	parsed, err := libphonenumber.Parse("+"+number, defaultRegion)
	if err != nil || !libphonenumber.IsValidNumber(parsed) {
		return "+" + number
	}
	return libphonenumber.Format(parsed, libphonenumber.INTERNATIONAL)
}
