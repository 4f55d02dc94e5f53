package calls

import "strings"

// NormalizePhone canonicalizes a phone-number-like string so provider and
// stored numbers compare equal: strip everything but digits and "+", then
// prefix "+" when the remainder looks like a bare international number
// (6 to 15 digits). Anything else is returned as stripped; empty stays empty.
func NormalizePhone(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r == '+' || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(digits, "+") {
		return digits
	}
	if len(digits) >= 6 && len(digits) <= 15 && !strings.Contains(digits, "+") {
		return "+" + digits
	}
	return digits
}
