package domain

import "strings"

// SanitizeDocument strips everything that is not an ASCII digit, so formatted
// input like "123.456.789-00" compares by digit count only.
func SanitizeDocument(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
