package util

import (
	"regexp"
	"strings"
)

var (
	reSpaces      = regexp.MustCompile(`\s+`)
	reNumericOnly = regexp.MustCompile(`^[0-9\s\-.,]+$`)
)

// NormalizeKey is the catalog key form: trimmed, upper-cased, whitespace runs
// collapsed to one space. NormalizeKey(NormalizeKey(s)) == NormalizeKey(s).
func NormalizeKey(input string) string {
	s := strings.ToUpper(strings.TrimSpace(input))
	return reSpaces.ReplaceAllString(s, " ")
}

func NormalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

// TruncateRunes cuts s to at most max runes.
func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// LooksLikeName reports text of at least two runes that is not only digits
// and number punctuation.
func LooksLikeName(input string) bool {
	t := strings.TrimSpace(input)
	if len([]rune(t)) < 2 {
		return false
	}
	return !reNumericOnly.MatchString(t)
}

// LooksLikeCode reports short text carrying at least one digit, the shape of
// an EM or article number.
func LooksLikeCode(input string) bool {
	t := strings.TrimSpace(input)
	if t == "" || len([]rune(t)) > 20 {
		return false
	}
	for _, r := range t {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

func ContainsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func StringPtr(v string) *string { return &v }

func FloatPtr(v float64) *float64 { return &v }
