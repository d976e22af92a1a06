package whatsapp

import (
	"regexp"
	"strings"
)

// Brazilian numbers on the provider are the country code 55 followed by a
// 10 or 11 digit local number (2-digit area code + 8 or 9 digit subscriber).
var validPhonePattern = regexp.MustCompile(`^55\d{10,11}$`)

// FormatPhoneNumber normalizes a phone number for the provider API. It strips
// every non-digit, prefixes the country code 55 to bare 10-11 digit local
// numbers and passes through numbers that already carry it. Other lengths are
// returned as-is; normalization is best-effort, not validation.
func FormatPhoneNumber(phone string) string {
	digits := stripNonDigits(phone)

	switch {
	case len(digits) == 10 || len(digits) == 11:
		return "55" + digits
	case (len(digits) == 12 || len(digits) == 13) && strings.HasPrefix(digits, "55"):
		return digits
	default:
		return digits
	}
}

// IsValidPhoneNumber reports whether the normalized form of phone is a valid
// Brazilian WhatsApp destination.
func IsValidPhoneNumber(phone string) bool {
	return validPhonePattern.MatchString(FormatPhoneNumber(phone))
}

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
