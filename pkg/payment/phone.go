package payment

import "strings"

// NormalizePhone strips every non-digit and prefixes the Rwandan country
// code for the two local shapes operators accept: 9 digits starting with 7
// and 10 digits starting with 07. Other shapes are returned digits-only.
func NormalizePhone(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)

	switch {
	case len(digits) == 9 && digits[0] == '7':
		return "250" + digits
	case len(digits) == 10 && strings.HasPrefix(digits, "07"):
		return "250" + digits[1:]
	}
	return digits
}
