package notify

import "strings"

// PhoneNormalizer turns a free-form contact handle into the digits wa.me
// expects. An empty result means the handle is unusable.
type PhoneNormalizer func(handle string) string

// IndiaCountryCode is prefixed to national numbers by NormalizeIndianPhone.
const IndiaCountryCode = "91"

// NormalizeIndianPhone strips every non-digit, then treats a leading 0 as a
// trunk prefix to replace with the country code and prefixes the country
// code to bare 10-digit numbers. Anything else is returned as digits only.
func NormalizeIndianPhone(handle string) string {
	var b strings.Builder
	for _, r := range handle {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case strings.HasPrefix(digits, "0"):
		return IndiaCountryCode + digits[1:]
	case len(digits) == 10:
		return IndiaCountryCode + digits
	default:
		return digits
	}
}
