package domain

import "strings"

// NormalizePhone formats a raw phone number for storage. Non-digits are
// stripped first; an 11-digit mobile number starting with 010 becomes
// 3-4-4, a 10-digit number becomes 3-3-4, and anything else is stored as
// the stripped digits unchanged. Unrecognized input is never an error.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	switch {
	case len(digits) == 11 && strings.HasPrefix(digits, "010"):
		return digits[:3] + "-" + digits[3:7] + "-" + digits[7:]
	case len(digits) == 10:
		return digits[:3] + "-" + digits[3:6] + "-" + digits[6:]
	}
	return digits
}
