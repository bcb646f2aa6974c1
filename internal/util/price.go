package util

import (
	"strconv"
	"strings"
)

// ParseLocaleNumber reads a number out of human-typed text such as
// "1 299,50 kr" or "SEK 45.00". Everything except digits, comma, period and
// minus is dropped and comma is read as the decimal separator. Zero and
// unparsable input report ok=false.
func ParseLocaleNumber(input string) (float64, bool) {
	norm := strings.TrimSpace(strings.ReplaceAll(numericChars(input), ",", "."))
	if norm == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(norm, 64)
	if err != nil || parsed == 0 {
		return 0, false
	}
	return parsed, true
}

func numericChars(input string) string {
	var b strings.Builder
	for _, r := range input {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
